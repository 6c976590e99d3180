package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"campus-market-api/internal/apperr"
	"campus-market-api/internal/dto"
	"campus-market-api/internal/repository"

	"gorm.io/gorm"
)

type NotificationService interface {
	List(ctx context.Context, userID uint, unreadOnly bool, page, limit int) (*dto.NotificationList, error)
	UnreadCount(ctx context.Context, userID uint) (int64, error)
	MarkRead(ctx context.Context, userID, id uint) error
	MarkAllRead(ctx context.Context, userID uint) error
	Delete(ctx context.Context, userID, id uint) error
	ClearRead(ctx context.Context, userID uint) error
}

type notificationServiceImpl struct {
	notificationRepo repository.NotificationRepository
}

func NewNotificationService(notificationRepo repository.NotificationRepository) NotificationService {
	return &notificationServiceImpl{notificationRepo: notificationRepo}
}

func (s *notificationServiceImpl) List(ctx context.Context, userID uint, unreadOnly bool, page, limit int) (*dto.NotificationList, error) {
	notifications, total, err := s.notificationRepo.List(ctx, userID, unreadOnly, page, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	unread, err := s.notificationRepo.UnreadCount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count unread notifications: %w", err)
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	return &dto.NotificationList{
		Notifications: notifications,
		Pagination: dto.Pagination{
			CurrentPage: page,
			TotalPages:  int64(math.Ceil(float64(total) / float64(limit))),
			Total:       total,
		},
		UnreadCount: unread,
	}, nil
}

func (s *notificationServiceImpl) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.notificationRepo.UnreadCount(ctx, userID)
}

func (s *notificationServiceImpl) MarkRead(ctx context.Context, userID, id uint) error {
	err := s.notificationRepo.MarkRead(ctx, userID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: notification %d", apperr.ErrNotFound, id)
	}

	return err
}

func (s *notificationServiceImpl) MarkAllRead(ctx context.Context, userID uint) error {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}

func (s *notificationServiceImpl) Delete(ctx context.Context, userID, id uint) error {
	err := s.notificationRepo.Delete(ctx, userID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: notification %d", apperr.ErrNotFound, id)
	}

	return err
}

func (s *notificationServiceImpl) ClearRead(ctx context.Context, userID uint) error {
	return s.notificationRepo.ClearRead(ctx, userID)
}
