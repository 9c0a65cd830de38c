package models

import "time"

// Videogame represents a catalog entry.
type Videogame struct {
	ID          uint      `gorm:"primaryKey"`
	Name        string    `gorm:"size:128;index;not null"`
	ReleaseYear int       `gorm:"not null"`
	Developer   string    `gorm:"size:128;not null"`
	ImageURL    string    `gorm:"size:512;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
