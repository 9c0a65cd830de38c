package models

import "time"

// Role values stored on User records.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User represents application user.
type User struct {
	ID           uint      `gorm:"primaryKey"`
	Username     string    `gorm:"size:64;uniqueIndex;not null"`
	PasswordHash string    `gorm:"size:255;not null"`
	Role         string    `gorm:"size:16;not null;default:user"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
