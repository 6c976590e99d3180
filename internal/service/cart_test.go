package service

import (
	"context"
	"testing"

	"campus-market-api/internal/apperr"
	"campus-market-api/internal/dto"
	"campus-market-api/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCartService(t *testing.T) CartService {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return NewCartService(repository.NewCartRepository(rdb))
}

func TestCartEmptyByDefault(t *testing.T) {
	svc := newCartService(t)

	items, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCartSaveAndGet(t *testing.T) {
	svc := newCartService(t)

	saved, err := svc.Save(context.Background(), 1, []*dto.CartItem{
		{ProductID: 10, Quantity: 2},
		{ProductID: 11, Quantity: 1},
	})
	require.NoError(t, err)
	require.Len(t, saved, 2)

	items, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.EqualValues(t, 10, items[0].ProductID)
	assert.EqualValues(t, 2, items[0].Quantity)
}

func TestCartIsolatedPerUser(t *testing.T) {
	svc := newCartService(t)

	_, err := svc.Save(context.Background(), 1, []*dto.CartItem{{ProductID: 10, Quantity: 1}})
	require.NoError(t, err)

	items, err := svc.Get(context.Background(), 2)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCartRejectsNonPositiveQuantity(t *testing.T) {
	svc := newCartService(t)

	_, err := svc.Save(context.Background(), 1, []*dto.CartItem{{ProductID: 10, Quantity: 0}})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestCartMergeAddsQuantities(t *testing.T) {
	svc := newCartService(t)

	_, err := svc.Save(context.Background(), 1, []*dto.CartItem{
		{ProductID: 10, Quantity: 2},
	})
	require.NoError(t, err)

	merged, err := svc.Merge(context.Background(), 1, []*dto.CartItem{
		{ProductID: 10, Quantity: 3},
		{ProductID: 12, Quantity: 1},
	})
	require.NoError(t, err)
	require.Len(t, merged, 2)

	byProduct := map[uint]int32{}
	for _, item := range merged {
		byProduct[item.ProductID] = item.Quantity
	}
	assert.EqualValues(t, 5, byProduct[10])
	assert.EqualValues(t, 1, byProduct[12])

	// merge persists
	items, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestCartClear(t *testing.T) {
	svc := newCartService(t)

	_, err := svc.Save(context.Background(), 1, []*dto.CartItem{{ProductID: 10, Quantity: 1}})
	require.NoError(t, err)

	require.NoError(t, svc.Clear(context.Background(), 1))

	items, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, items)
}
