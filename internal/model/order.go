package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

type ShippingAddress struct {
	Street  string `gorm:"size:256" json:"street"`
	City    string `gorm:"size:128" json:"city"`
	State   string `gorm:"size:128" json:"state"`
	ZipCode string `gorm:"size:32" json:"zipCode"`
}

type Order struct {
	ID                uint `gorm:"primaryKey"`
	UserID            uint `gorm:"index;not null"`
	Items             []OrderItem
	TotalAmount       float64         `gorm:"not null"`
	ShippingAddress   ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_"`
	PaymentStatus     PaymentStatus   `gorm:"size:16;index;not null;default:pending"`
	OrderStatus       OrderStatus     `gorm:"size:16;index;not null;default:pending"`
	TrackingNumber    *string         `gorm:"size:64"`
	EstimatedDelivery *time.Time
	Notes             string `gorm:"size:200"`
	StatusHistory     []OrderStatusChange
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type OrderItem struct {
	ID              uint    `gorm:"primaryKey"`
	OrderID         uint    `gorm:"index;not null"`
	ProductID       uint    `gorm:"index;not null"`
	Quantity        int32   `gorm:"not null"`
	PriceAtPurchase float64 `gorm:"not null"`
	CreatedAt       time.Time
}

// OrderStatusChange rows are append-only: one per order status
// transition, never updated or deleted.
type OrderStatusChange struct {
	ID        uint        `gorm:"primaryKey"`
	OrderID   uint        `gorm:"index;not null"`
	Status    OrderStatus `gorm:"size:16;not null"`
	Note      string      `gorm:"size:256"`
	ChangedBy uint        `gorm:"not null"`
	CreatedAt time.Time
}
