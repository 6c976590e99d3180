package model

import "time"

type Conversation struct {
	ID uint `gorm:"primaryKey"`
	// Unique per participant pair; starting a second conversation with
	// the same user returns the existing one.
	BuyerID       uint  `gorm:"uniqueIndex:idx_conv_pair;not null"`
	SellerID      uint  `gorm:"uniqueIndex:idx_conv_pair;not null"`
	ProductID     *uint `gorm:"index"`
	LastMessageAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Message struct {
	ID             uint   `gorm:"primaryKey"`
	ConversationID uint   `gorm:"index;not null"`
	SenderID       uint   `gorm:"index;not null"`
	Body           string `gorm:"size:2000;not null"`
	IsRead         bool   `gorm:"column:is_read;not null;default:false" json:"read"`
	CreatedAt      time.Time
}

type Notification struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index;not null"`
	Type      string `gorm:"size:32;index"` // order, payment, message, system
	Title     string `gorm:"size:128;not null"`
	Message   string `gorm:"size:512"`
	Link      string `gorm:"size:256"`
	IsRead    bool   `gorm:"column:is_read;index;not null;default:false" json:"read"`
	CreatedAt time.Time
}
