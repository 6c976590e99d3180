package service

import (
	"context"
	"testing"

	"campus-market-api/internal/apperr"
	"campus-market-api/internal/dto"
	"campus-market-api/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) AuthService {
	t.Helper()

	db := newTestDB(t)
	return NewAuthService(repository.NewUserRepository(db), "test-secret", 1)
}

func registerReq() *dto.RegisterRequest {
	return &dto.RegisterRequest{
		Username: "wanjiku",
		Email:    "wanjiku@students.example.ac.ke",
		Password: "correct horse",
		Name:     "Wanjiku",
		Campus:   "Main",
	}
}

func TestRegisterLoginRoundTrip(t *testing.T) {
	svc := newAuthService(t)

	registered, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "user", registered.User.Role)

	logged, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "wanjiku@students.example.ac.ke",
		Password: "correct horse",
	})
	require.NoError(t, err)

	claims, err := svc.ParseToken(logged.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, claims.UserID)
	assert.Equal(t, "user", claims.Role)
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), registerReq())
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc := newAuthService(t)

	req := registerReq()
	req.Password = "short"
	_, err := svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestRegisterRejectsBadEmail(t *testing.T) {
	svc := newAuthService(t)

	req := registerReq()
	req.Email = "not-an-email"
	_, err := svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "wanjiku@students.example.ac.ke",
		Password: "wrong",
	})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestLoginRejectsUnknownEmail(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "ghost@students.example.ac.ke",
		Password: "whatever",
	})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.ParseToken("not.a.jwt")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}
