package models

import (
	"time"
)

type User struct {
	ID           int64  `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;size:150;not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	IsSuperuser  bool   `gorm:"default:false"`
	CreatedAt    time.Time
}
