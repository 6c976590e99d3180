package repository

import (
	"context"
	"time"

	"campus-market-api/internal/model"

	"gorm.io/gorm"
)

type MessageRepository interface {
	FindConversation(ctx context.Context, buyerID, sellerID uint) (*model.Conversation, error)
	CreateConversation(ctx context.Context, conv *model.Conversation) error
	GetConversation(ctx context.Context, id uint) (*model.Conversation, error)
	ListConversations(ctx context.Context, userID uint) ([]*model.Conversation, error)
	DeleteConversation(ctx context.Context, id uint) error
	CreateMessage(ctx context.Context, msg *model.Message) error
	ListMessages(ctx context.Context, conversationID uint) ([]*model.Message, error)
	UnreadCount(ctx context.Context, userID uint) (int64, error)
	MarkRead(ctx context.Context, conversationID, readerID uint) error
}

type messageRepoImpl struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepoImpl{db: db}
}

func (r *messageRepoImpl) FindConversation(ctx context.Context, buyerID, sellerID uint) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.WithContext(ctx).
		Where("buyer_id = ? AND seller_id = ?", buyerID, sellerID).
		First(&conv).Error
	if err != nil {
		return nil, err
	}

	return &conv, nil
}

func (r *messageRepoImpl) CreateConversation(ctx context.Context, conv *model.Conversation) error {
	return r.db.WithContext(ctx).Create(conv).Error
}

func (r *messageRepoImpl) GetConversation(ctx context.Context, id uint) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&conv).Error
	if err != nil {
		return nil, err
	}

	return &conv, nil
}

func (r *messageRepoImpl) ListConversations(ctx context.Context, userID uint) ([]*model.Conversation, error) {
	var convs []*model.Conversation
	err := r.db.WithContext(ctx).
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Order("last_message_at DESC").
		Find(&convs).Error
	if err != nil {
		return nil, err
	}

	return convs, nil
}

func (r *messageRepoImpl) DeleteConversation(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id = ?", id).Delete(&model.Message{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Conversation{}, id).Error
	})
}

func (r *messageRepoImpl) CreateMessage(ctx context.Context, msg *model.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&model.Conversation{}).
			Where("id = ?", msg.ConversationID).
			Update("last_message_at", time.Now()).Error
	})
}

func (r *messageRepoImpl) ListMessages(ctx context.Context, conversationID uint) ([]*model.Message, error) {
	var msgs []*model.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}

	return msgs, nil
}

func (r *messageRepoImpl) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Message{}).
		Joins("JOIN conversations ON conversations.id = messages.conversation_id").
		Where("(conversations.buyer_id = ? OR conversations.seller_id = ?)", userID, userID).
		Where("messages.sender_id <> ? AND messages.is_read = ?", userID, false).
		Count(&count).Error

	return count, err
}

func (r *messageRepoImpl) MarkRead(ctx context.Context, conversationID, readerID uint) error {
	return r.db.WithContext(ctx).Model(&model.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, readerID, false).
		Update("is_read", true).Error
}
