package model

import "time"

type PaymentState string

const (
	PaymentPending    PaymentState = "pending"
	PaymentProcessing PaymentState = "processing"
	PaymentCompleted  PaymentState = "completed"
	PaymentFailed     PaymentState = "failed"
	PaymentCancelled  PaymentState = "cancelled"
)

// Terminal reports whether a payment can no longer transition. A new
// attempt for the same order creates a new Payment row instead.
func (s PaymentState) Terminal() bool {
	return s == PaymentCompleted || s == PaymentFailed || s == PaymentCancelled
}

type Payment struct {
	ID     uint `gorm:"primaryKey"`
	UserID uint `gorm:"index;not null"`
	// FK → orders.id; payments and orders are independent top-level
	// records linked by reference only.
	OrderID uint         `gorm:"index;not null"`
	Amount  float64      `gorm:"not null"`
	Status  PaymentState `gorm:"size:16;index;not null;default:pending"`
	// Provider-assigned transaction handle. Nullable so the unique
	// index ignores rows the gateway never acknowledged.
	TransactionID *string `gorm:"size:128;uniqueIndex"`
	// Internally generated reference sent with the charge request.
	Reference     *string `gorm:"size:128;uniqueIndex"`
	Provider      string  `gorm:"size:32;not null"`
	PaymentMethod string  `gorm:"size:32"`
	CustomerEmail string  `gorm:"size:128;not null"`
	CustomerPhone string  `gorm:"size:32"`

	// Mobile-money receipt fields, filled from callback metadata.
	ReceiptNumber   string `gorm:"size:64"`
	TransactionDate string `gorm:"size:32"`

	FailureReason string `gorm:"size:512"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
