package service

import (
	"context"
	"testing"

	"campus-market-api/internal/apperr"
	"campus-market-api/internal/dto"
	"campus-market-api/internal/model"
	"campus-market-api/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type messageEnv struct {
	db     *gorm.DB
	svc    MessageService
	buyer  *model.User
	seller *model.User
}

func newMessageEnv(t *testing.T) *messageEnv {
	t.Helper()

	db := newTestDB(t)

	buyer := &model.User{
		Username: "buyer", Email: "buyer@students.example.ac.ke",
		PasswordHash: "x", Role: model.RoleUser, IsActive: true,
	}
	seller := &model.User{
		Username: "seller", Email: "seller@students.example.ac.ke",
		PasswordHash: "x", Role: model.RoleUser, IsActive: true,
	}
	require.NoError(t, db.Create(buyer).Error)
	require.NoError(t, db.Create(seller).Error)

	svc := NewMessageService(
		repository.NewMessageRepository(db),
		repository.NewUserRepository(db),
		repository.NewNotificationRepository(db),
	)

	return &messageEnv{db: db, svc: svc, buyer: buyer, seller: seller}
}

func TestStartConversationReusesExisting(t *testing.T) {
	env := newMessageEnv(t)

	first, err := env.svc.StartConversation(context.Background(), env.buyer.ID, &dto.StartConversationRequest{
		RecipientID: env.seller.ID,
		Body:        "is the lamp still available?",
	})
	require.NoError(t, err)

	second, err := env.svc.StartConversation(context.Background(), env.buyer.ID, &dto.StartConversationRequest{
		RecipientID: env.seller.ID,
		Body:        "following up",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "same pair, same conversation")

	msgs, err := env.svc.Messages(context.Background(), env.buyer.ID, first.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestStartConversationRejectsSelf(t *testing.T) {
	env := newMessageEnv(t)

	_, err := env.svc.StartConversation(context.Background(), env.buyer.ID, &dto.StartConversationRequest{
		RecipientID: env.buyer.ID,
		Body:        "hi me",
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestMessagesRequireParticipation(t *testing.T) {
	env := newMessageEnv(t)

	conv, err := env.svc.StartConversation(context.Background(), env.buyer.ID, &dto.StartConversationRequest{
		RecipientID: env.seller.ID,
		Body:        "hello",
	})
	require.NoError(t, err)

	outsider := &model.User{
		Username: "outsider", Email: "outsider@students.example.ac.ke",
		PasswordHash: "x", Role: model.RoleUser, IsActive: true,
	}
	require.NoError(t, env.db.Create(outsider).Error)

	_, err = env.svc.Messages(context.Background(), outsider.ID, conv.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = env.svc.Send(context.Background(), outsider.ID, conv.ID, &dto.SendMessageRequest{Body: "let me in"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestUnreadCountAndMarkRead(t *testing.T) {
	env := newMessageEnv(t)

	conv, err := env.svc.StartConversation(context.Background(), env.buyer.ID, &dto.StartConversationRequest{
		RecipientID: env.seller.ID,
		Body:        "hello",
	})
	require.NoError(t, err)

	_, err = env.svc.Send(context.Background(), env.buyer.ID, conv.ID, &dto.SendMessageRequest{Body: "anyone there?"})
	require.NoError(t, err)

	unread, err := env.svc.UnreadCount(context.Background(), env.seller.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, unread)

	// the sender's own messages never count as unread for them
	unread, err = env.svc.UnreadCount(context.Background(), env.buyer.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)

	require.NoError(t, env.svc.MarkRead(context.Background(), env.seller.ID, conv.ID))

	unread, err = env.svc.UnreadCount(context.Background(), env.seller.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestSendCreatesRecipientNotification(t *testing.T) {
	env := newMessageEnv(t)

	_, err := env.svc.StartConversation(context.Background(), env.buyer.ID, &dto.StartConversationRequest{
		RecipientID: env.seller.ID,
		Body:        "hello",
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, env.db.Model(&model.Notification{}).
		Where("user_id = ? AND type = ?", env.seller.ID, "message").
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
