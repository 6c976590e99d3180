package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"campus-market-api/internal/dto"

	"github.com/redis/go-redis/v9"
)

// Carts are session scratch state, so they live in Redis keyed by user
// rather than in process memory; any instance can serve any request.
const cartTTL = 14 * 24 * time.Hour

type CartRepository interface {
	Get(ctx context.Context, userID uint) ([]*dto.CartItem, error)
	Save(ctx context.Context, userID uint, items []*dto.CartItem) error
	Clear(ctx context.Context, userID uint) error
}

type cartRepoImpl struct {
	rdb *redis.Client
}

func NewCartRepository(rdb *redis.Client) CartRepository {
	return &cartRepoImpl{rdb: rdb}
}

func cartKey(userID uint) string {
	return fmt.Sprintf("cart:%d", userID)
}

func (r *cartRepoImpl) Get(ctx context.Context, userID uint) ([]*dto.CartItem, error) {
	raw, err := r.rdb.Get(ctx, cartKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []*dto.CartItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	var items []*dto.CartItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}

	return items, nil
}

func (r *cartRepoImpl) Save(ctx context.Context, userID uint, items []*dto.CartItem) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}

	return r.rdb.Set(ctx, cartKey(userID), raw, cartTTL).Err()
}

func (r *cartRepoImpl) Clear(ctx context.Context, userID uint) error {
	return r.rdb.Del(ctx, cartKey(userID)).Err()
}
