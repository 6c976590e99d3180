package repository

import (
	"context"

	"campus-market-api/internal/model"

	"gorm.io/gorm"
)

// CompletedUpdate carries the gateway-confirmed fields written when a
// payment reaches its completed state.
type CompletedUpdate struct {
	TransactionID   string
	PaymentMethod   string
	ReceiptNumber   string
	TransactionDate string
	PayerPhone      string
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	// FindByTransactionRef matches either the provider transaction id
	// or the internal reference; callers hold whichever the gateway
	// showed them.
	FindByTransactionRef(ctx context.Context, ref string) (*model.Payment, error)
	FindByID(ctx context.Context, id uint) (*model.Payment, error)
	MarkProcessing(ctx context.Context, id uint, transactionID string) error
	// MarkCompleted performs the guarded terminal transition: only a
	// pending/processing payment advances, and only if no other payment
	// for the same order has already completed. false means the write
	// was a no-op.
	MarkCompleted(ctx context.Context, tx *gorm.DB, payment *model.Payment, upd *CompletedUpdate) (bool, error)
	MarkFailed(ctx context.Context, tx *gorm.DB, id uint, reason string) (bool, error)
}

type paymentRepoImpl struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepoImpl{db: db}
}

func (r *paymentRepoImpl) Create(ctx context.Context, payment *model.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepoImpl) FindByTransactionRef(ctx context.Context, ref string) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.WithContext(ctx).
		Where("transaction_id = ? OR reference = ?", ref, ref).
		First(&payment).Error
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *paymentRepoImpl) FindByID(ctx context.Context, id uint) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&payment).Error
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *paymentRepoImpl) MarkProcessing(ctx context.Context, id uint, transactionID string) error {
	result := r.db.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ? AND status = ?", id, model.PaymentPending).
		Updates(map[string]interface{}{
			"status":         model.PaymentProcessing,
			"transaction_id": transactionID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *paymentRepoImpl) MarkCompleted(ctx context.Context, tx *gorm.DB, payment *model.Payment, upd *CompletedUpdate) (bool, error) {
	// One completed payment per order. Checked inside the caller's
	// transaction; the status guard below makes replays no-ops.
	var completed int64
	err := tx.WithContext(ctx).Model(&model.Payment{}).
		Where("order_id = ? AND status = ? AND id <> ?",
			payment.OrderID, model.PaymentCompleted, payment.ID).
		Count(&completed).Error
	if err != nil {
		return false, err
	}
	if completed > 0 {
		return false, nil
	}

	updates := map[string]interface{}{
		"status":         model.PaymentCompleted,
		"payment_method": upd.PaymentMethod,
	}
	if upd.TransactionID != "" {
		updates["transaction_id"] = upd.TransactionID
	}
	if upd.ReceiptNumber != "" {
		updates["receipt_number"] = upd.ReceiptNumber
	}
	if upd.TransactionDate != "" {
		updates["transaction_date"] = upd.TransactionDate
	}
	if upd.PayerPhone != "" {
		updates["customer_phone"] = upd.PayerPhone
	}

	result := tx.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ? AND status IN ?", payment.ID,
			[]model.PaymentState{model.PaymentPending, model.PaymentProcessing}).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *paymentRepoImpl) MarkFailed(ctx context.Context, tx *gorm.DB, id uint, reason string) (bool, error) {
	result := tx.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ? AND status IN ?", id,
			[]model.PaymentState{model.PaymentPending, model.PaymentProcessing}).
		Updates(map[string]interface{}{
			"status":         model.PaymentFailed,
			"failure_reason": reason,
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}
