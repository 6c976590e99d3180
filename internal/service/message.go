package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"campus-market-api/internal/apperr"
	"campus-market-api/internal/dto"
	"campus-market-api/internal/model"
	"campus-market-api/internal/repository"

	"gorm.io/gorm"
)

type MessageService interface {
	StartConversation(ctx context.Context, userID uint, req *dto.StartConversationRequest) (*model.Conversation, error)
	ListConversations(ctx context.Context, userID uint) ([]*model.Conversation, error)
	DeleteConversation(ctx context.Context, userID, conversationID uint) error
	Send(ctx context.Context, userID, conversationID uint, req *dto.SendMessageRequest) (*model.Message, error)
	Messages(ctx context.Context, userID, conversationID uint) ([]*model.Message, error)
	UnreadCount(ctx context.Context, userID uint) (int64, error)
	MarkRead(ctx context.Context, userID, conversationID uint) error
}

type messageServiceImpl struct {
	messageRepo      repository.MessageRepository
	userRepo         repository.UserRepository
	notificationRepo repository.NotificationRepository
}

func NewMessageService(
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	notificationRepo repository.NotificationRepository,
) MessageService {
	return &messageServiceImpl{
		messageRepo:      messageRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
	}
}

func (s *messageServiceImpl) StartConversation(ctx context.Context, userID uint, req *dto.StartConversationRequest) (*model.Conversation, error) {
	if req.RecipientID == 0 || req.RecipientID == userID {
		return nil, fmt.Errorf("%w: invalid recipient", apperr.ErrInvalidInput)
	}
	if req.Body == "" {
		return nil, fmt.Errorf("%w: message body is required", apperr.ErrInvalidInput)
	}

	if _, err := s.userRepo.FindByID(ctx, req.RecipientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", apperr.ErrNotFound, req.RecipientID)
		}
		return nil, fmt.Errorf("load recipient: %w", err)
	}

	// The initiator is the buyer side of the pair. A second start between
	// the same two users reuses the existing conversation.
	conv, err := s.messageRepo.FindConversation(ctx, userID, req.RecipientID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		conv = &model.Conversation{
			BuyerID:   userID,
			SellerID:  req.RecipientID,
			ProductID: req.ProductID,
		}
		if err := s.messageRepo.CreateConversation(ctx, conv); err != nil {
			return nil, fmt.Errorf("create conversation: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("find conversation: %w", err)
	}

	if _, err := s.Send(ctx, userID, conv.ID, &dto.SendMessageRequest{Body: req.Body}); err != nil {
		return nil, err
	}

	return conv, nil
}

func (s *messageServiceImpl) ListConversations(ctx context.Context, userID uint) ([]*model.Conversation, error) {
	return s.messageRepo.ListConversations(ctx, userID)
}

func (s *messageServiceImpl) DeleteConversation(ctx context.Context, userID, conversationID uint) error {
	conv, err := s.participantConversation(ctx, userID, conversationID)
	if err != nil {
		return err
	}

	return s.messageRepo.DeleteConversation(ctx, conv.ID)
}

func (s *messageServiceImpl) Send(ctx context.Context, userID, conversationID uint, req *dto.SendMessageRequest) (*model.Message, error) {
	if req.Body == "" {
		return nil, fmt.Errorf("%w: message body is required", apperr.ErrInvalidInput)
	}
	if len(req.Body) > 2000 {
		return nil, fmt.Errorf("%w: message body exceeds 2000 characters", apperr.ErrInvalidInput)
	}

	conv, err := s.participantConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	msg := &model.Message{
		ConversationID: conv.ID,
		SenderID:       userID,
		Body:           req.Body,
	}
	if err := s.messageRepo.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("store message in db: %w", err)
	}

	recipient := conv.BuyerID
	if userID == conv.BuyerID {
		recipient = conv.SellerID
	}
	notification := &model.Notification{
		UserID:  recipient,
		Type:    "message",
		Title:   "New message",
		Message: "You have a new message",
		Link:    fmt.Sprintf("/messages/%d", conv.ID),
	}
	if err := s.notificationRepo.Create(ctx, nil, notification); err != nil {
		// The message is stored; a missing notification row is tolerable.
		log.Printf("create message notification for user %d: %v", recipient, err)
	}

	return msg, nil
}

func (s *messageServiceImpl) Messages(ctx context.Context, userID, conversationID uint) ([]*model.Message, error) {
	if _, err := s.participantConversation(ctx, userID, conversationID); err != nil {
		return nil, err
	}

	return s.messageRepo.ListMessages(ctx, conversationID)
}

func (s *messageServiceImpl) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.messageRepo.UnreadCount(ctx, userID)
}

func (s *messageServiceImpl) MarkRead(ctx context.Context, userID, conversationID uint) error {
	if _, err := s.participantConversation(ctx, userID, conversationID); err != nil {
		return err
	}

	return s.messageRepo.MarkRead(ctx, conversationID, userID)
}

func (s *messageServiceImpl) participantConversation(ctx context.Context, userID, conversationID uint) (*model.Conversation, error) {
	conv, err := s.messageRepo.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: conversation %d", apperr.ErrNotFound, conversationID)
		}
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	if conv.BuyerID != userID && conv.SellerID != userID {
		return nil, fmt.Errorf("%w: not a participant", apperr.ErrForbidden)
	}

	return conv, nil
}
