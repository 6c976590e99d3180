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

type reviewEnv struct {
	db      *gorm.DB
	svc     ReviewService
	user    *model.User
	product *model.Product
}

func newReviewEnv(t *testing.T) *reviewEnv {
	t.Helper()

	db := newTestDB(t)

	user := &model.User{
		Username: "buyer", Email: "buyer@students.example.ac.ke",
		PasswordHash: "x", Role: model.RoleUser, IsActive: true,
	}
	seller := &model.User{
		Username: "seller", Email: "seller@students.example.ac.ke",
		PasswordHash: "x", Role: model.RoleUser, IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	require.NoError(t, db.Create(seller).Error)

	product := &model.Product{
		SellerID: seller.ID, Name: "Desk lamp", Price: 500, Currency: "KES", Stock: 3,
	}
	require.NoError(t, db.Create(product).Error)

	svc := NewReviewService(
		repository.NewReviewRepository(db),
		repository.NewProductRepository(db),
	)

	return &reviewEnv{db: db, svc: svc, user: user, product: product}
}

func TestReviewCreateAndSummary(t *testing.T) {
	env := newReviewEnv(t)

	review, err := env.svc.Create(context.Background(), env.user.ID, &dto.ReviewRequest{
		ProductID: env.product.ID,
		Rating:    4,
		Comment:   "works fine",
	})
	require.NoError(t, err)
	assert.NotZero(t, review.ID)

	summary, err := env.svc.ListByProduct(context.Background(), env.product.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, summary.ReviewCount)
	assert.Equal(t, float64(4), summary.AverageRating)
}

func TestReviewOnePerUserPerProduct(t *testing.T) {
	env := newReviewEnv(t)

	_, err := env.svc.Create(context.Background(), env.user.ID, &dto.ReviewRequest{
		ProductID: env.product.ID, Rating: 4,
	})
	require.NoError(t, err)

	_, err = env.svc.Create(context.Background(), env.user.ID, &dto.ReviewRequest{
		ProductID: env.product.ID, Rating: 5,
	})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestReviewRatingBounds(t *testing.T) {
	env := newReviewEnv(t)

	for _, rating := range []int32{0, 6, -1} {
		_, err := env.svc.Create(context.Background(), env.user.ID, &dto.ReviewRequest{
			ProductID: env.product.ID, Rating: rating,
		})
		assert.ErrorIs(t, err, apperr.ErrInvalidInput, "rating %d", rating)
	}
}

func TestReviewUnknownProduct(t *testing.T) {
	env := newReviewEnv(t)

	_, err := env.svc.Create(context.Background(), env.user.ID, &dto.ReviewRequest{
		ProductID: 9999, Rating: 3,
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestReviewUpdateOwnershipEnforced(t *testing.T) {
	env := newReviewEnv(t)

	review, err := env.svc.Create(context.Background(), env.user.ID, &dto.ReviewRequest{
		ProductID: env.product.ID, Rating: 4,
	})
	require.NoError(t, err)

	other := &model.User{
		Username: "other", Email: "other@students.example.ac.ke",
		PasswordHash: "x", Role: model.RoleUser, IsActive: true,
	}
	require.NoError(t, env.db.Create(other).Error)

	_, err = env.svc.Update(context.Background(), other.ID, review.ID, &dto.ReviewRequest{
		ProductID: env.product.ID, Rating: 1,
	})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	// admin can delete, author can update
	updated, err := env.svc.Update(context.Background(), env.user.ID, review.ID, &dto.ReviewRequest{
		ProductID: env.product.ID, Rating: 2, Comment: "broke after a week",
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, updated.Rating)

	err = env.svc.Delete(context.Background(), other.ID, true, review.ID)
	assert.NoError(t, err)
}
