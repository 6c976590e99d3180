package model

import "time"

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type User struct {
	ID           uint     `gorm:"primaryKey"`
	Username     string   `gorm:"size:64;uniqueIndex;not null"`
	Email        string   `gorm:"size:128;uniqueIndex;not null"`
	PasswordHash string   `gorm:"size:128;not null"`
	Name         string   `gorm:"size:128"`
	Phone        string   `gorm:"size:32"`
	Campus       string   `gorm:"size:128"`
	Role         UserRole `gorm:"size:16;not null;default:user"`
	IsActive     bool     `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type SellerBalance struct {
	SellerID           uint    `gorm:"primaryKey"`
	TotalEarnings      float64 `gorm:"not null;default:0"`
	TotalOrders        int64   `gorm:"not null;default:0"`
	CurrentBalance     float64 `gorm:"not null;default:0"`
	PendingWithdrawals float64 `gorm:"not null;default:0"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
