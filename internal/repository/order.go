package repository

import (
	"context"

	"campus-market-api/internal/model"

	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	FindByID(ctx context.Context, id uint) (*model.Order, error)
	FindByUser(ctx context.Context, userID uint) ([]*model.Order, error)
	FindAll(ctx context.Context) ([]*model.Order, error)
	// SetOrderStatus updates orderStatus and appends one status-history
	// row in the same write. Every transition goes through here so the
	// history stays append-only and complete.
	SetOrderStatus(ctx context.Context, tx *gorm.DB, orderID uint, status model.OrderStatus, note string, changedBy uint) error
	SetTracking(ctx context.Context, tx *gorm.DB, orderID uint, trackingNumber *string) error
	// SetPaymentStatus is written by payment reconciliation, plus the
	// cancel path for orders that were never paid.
	SetPaymentStatus(ctx context.Context, tx *gorm.DB, orderID uint, status model.PaymentStatus) (bool, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{db: db}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return tx.WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) FindByID(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("StatusHistory").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) FindByUser(ctx context.Context, userID uint) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepoImpl) FindAll(ctx context.Context) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepoImpl) SetOrderStatus(ctx context.Context, tx *gorm.DB, orderID uint, status model.OrderStatus, note string, changedBy uint) error {
	result := tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Update("order_status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return tx.WithContext(ctx).Create(&model.OrderStatusChange{
		OrderID:   orderID,
		Status:    status,
		Note:      note,
		ChangedBy: changedBy,
	}).Error
}

func (r *orderRepoImpl) SetTracking(ctx context.Context, tx *gorm.DB, orderID uint, trackingNumber *string) error {
	return tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Update("tracking_number", trackingNumber).Error
}

func (r *orderRepoImpl) SetPaymentStatus(ctx context.Context, tx *gorm.DB, orderID uint, status model.PaymentStatus) (bool, error) {
	// MySQL reports 0 affected rows for a same-value update, so the row
	// count alone cannot distinguish "already there" from "missing".
	// The guard keeps both drivers at 0 rows for a no-change write; a
	// separate existence check then decides.
	result := tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND payment_status <> ?", orderID, status).
		Update("payment_status", status)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	var exists int64
	err := tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Count(&exists).Error
	if err != nil {
		return false, err
	}

	return exists > 0, nil
}
