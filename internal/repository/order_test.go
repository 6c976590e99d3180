package repository

import (
	"context"
	"testing"

	"campus-market-api/internal/client"
	"campus-market-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, client.Migrate(db))

	return db
}

func seedOrder(t *testing.T, db *gorm.DB, status model.PaymentStatus) *model.Order {
	t.Helper()

	order := &model.Order{
		UserID:        1,
		TotalAmount:   1500,
		PaymentStatus: status,
		OrderStatus:   model.OrderStatusPending,
	}
	require.NoError(t, db.Create(order).Error)

	return order
}

func TestSetPaymentStatusChangesValue(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db)
	order := seedOrder(t, db, model.PaymentStatusPending)

	ok, err := repo.SetPaymentStatus(context.Background(), db, order.ID, model.PaymentStatusPaid)
	require.NoError(t, err)
	assert.True(t, ok)

	var got model.Order
	require.NoError(t, db.First(&got, order.ID).Error)
	assert.Equal(t, model.PaymentStatusPaid, got.PaymentStatus)
}

// A write that leaves the status at its current value changes no rows,
// which MySQL reports the same way as a missing order. The repository
// must still report the order as present.
func TestSetPaymentStatusSameValueIsNotMissing(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db)
	order := seedOrder(t, db, model.PaymentStatusFailed)

	ok, err := repo.SetPaymentStatus(context.Background(), db, order.ID, model.PaymentStatusFailed)
	require.NoError(t, err)
	assert.True(t, ok, "an order already at the target status is not missing")

	var got model.Order
	require.NoError(t, db.First(&got, order.ID).Error)
	assert.Equal(t, model.PaymentStatusFailed, got.PaymentStatus)
}

func TestSetPaymentStatusMissingOrder(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db)

	ok, err := repo.SetPaymentStatus(context.Background(), db, 9999, model.PaymentStatusPaid)
	require.NoError(t, err)
	assert.False(t, ok)
}
