package model

import "time"

type Product struct {
	ID          uint    `gorm:"primaryKey"`
	SellerID    uint    `gorm:"index;not null"`
	Name        string  `gorm:"size:128;not null"`
	Description string  `gorm:"size:2000"`
	Price       float64 `gorm:"not null"`
	Currency    string  `gorm:"size:8;not null;default:KES"`
	Category    string  `gorm:"size:64;index"`
	Condition   string  `gorm:"size:32"` // new, like-new, used
	Stock       int32   `gorm:"not null"`
	ImageURL    string  `gorm:"size:512"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Review struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"uniqueIndex:idx_review_user_product;not null"`
	ProductID uint   `gorm:"uniqueIndex:idx_review_user_product;index;not null"`
	Rating    int32  `gorm:"not null"` // 1..5
	Comment   string `gorm:"size:1000"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WishlistItem keys on (user, product) the same way inventory-style
// tables do, so adds are natural upsert targets.
type WishlistItem struct {
	UserID    uint `gorm:"primaryKey"`
	ProductID uint `gorm:"primaryKey"`
	CreatedAt time.Time
}
