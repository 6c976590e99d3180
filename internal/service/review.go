package service

import (
	"context"
	"errors"
	"fmt"

	"campus-market-api/internal/apperr"
	"campus-market-api/internal/dto"
	"campus-market-api/internal/model"
	"campus-market-api/internal/repository"

	"gorm.io/gorm"
)

type ReviewService interface {
	Create(ctx context.Context, userID uint, req *dto.ReviewRequest) (*model.Review, error)
	GetByID(ctx context.Context, id uint) (*model.Review, error)
	ListByProduct(ctx context.Context, productID uint) (*dto.ProductReviews, error)
	ListByUser(ctx context.Context, userID uint) ([]*model.Review, error)
	Update(ctx context.Context, userID uint, id uint, req *dto.ReviewRequest) (*model.Review, error)
	Delete(ctx context.Context, userID uint, isAdmin bool, id uint) error
}

type reviewServiceImpl struct {
	reviewRepo  repository.ReviewRepository
	productRepo repository.ProductRepository
}

func NewReviewService(reviewRepo repository.ReviewRepository, productRepo repository.ProductRepository) ReviewService {
	return &reviewServiceImpl{
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
	}
}

func (s *reviewServiceImpl) Create(ctx context.Context, userID uint, req *dto.ReviewRequest) (*model.Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", apperr.ErrInvalidInput)
	}

	if _, err := s.productRepo.FindByID(ctx, req.ProductID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", apperr.ErrNotFound, req.ProductID)
		}
		return nil, fmt.Errorf("load product: %w", err)
	}

	exists, err := s.reviewRepo.ExistsForUserProduct(ctx, userID, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("check existing review: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: product already reviewed", apperr.ErrConflict)
	}

	review := &model.Review{
		UserID:    userID,
		ProductID: req.ProductID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("store review in db: %w", err)
	}

	return review, nil
}

func (s *reviewServiceImpl) GetByID(ctx context.Context, id uint) (*model.Review, error) {
	review, err := s.reviewRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: review %d", apperr.ErrNotFound, id)
		}
		return nil, fmt.Errorf("load review: %w", err)
	}

	return review, nil
}

func (s *reviewServiceImpl) ListByProduct(ctx context.Context, productID uint) (*dto.ProductReviews, error) {
	reviews, err := s.reviewRepo.FindByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	avg, count, err := s.reviewRepo.RatingSummary(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("rating summary: %w", err)
	}

	return &dto.ProductReviews{
		Reviews:       reviews,
		AverageRating: avg,
		ReviewCount:   count,
	}, nil
}

func (s *reviewServiceImpl) ListByUser(ctx context.Context, userID uint) ([]*model.Review, error) {
	return s.reviewRepo.FindByUser(ctx, userID)
}

func (s *reviewServiceImpl) Update(ctx context.Context, userID uint, id uint, req *dto.ReviewRequest) (*model.Review, error) {
	review, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if review.UserID != userID {
		return nil, fmt.Errorf("%w: review belongs to another user", apperr.ErrForbidden)
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", apperr.ErrInvalidInput)
	}

	review.Rating = req.Rating
	review.Comment = req.Comment

	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}

	return review, nil
}

func (s *reviewServiceImpl) Delete(ctx context.Context, userID uint, isAdmin bool, id uint) error {
	review, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if review.UserID != userID && !isAdmin {
		return fmt.Errorf("%w: review belongs to another user", apperr.ErrForbidden)
	}

	return s.reviewRepo.Delete(ctx, id)
}
