package models

import "time"

// AuditLog records authenticated requests for auditing.
type AuditLog struct {
	ID        uint   `gorm:"primaryKey"`
	Username  string `gorm:"size:64;index"`
	Method    string `gorm:"size:16"`
	Path      string `gorm:"size:255"`
	IP        string `gorm:"size:64"`
	UserAgent string `gorm:"size:255"`
	CreatedAt time.Time
}
