package models

import (
	"time"

	"github.com/google/uuid"
)

type Conversation struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"size:255;not null"`
	Slug      string    `gorm:"size:255;uniqueIndex"`
	CreatedBy int64     `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	// Связи
	Participants []Participant `gorm:"foreignKey:ConversationID"`
}

type Participant struct {
	ID             int64     `gorm:"primaryKey"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_user"`
	UserID         int64     `gorm:"not null;uniqueIndex:idx_conversation_user"`
	Role           string    `gorm:"size:20;default:'member';check:role IN ('admin','member')"`
	JoinedAt       time.Time `gorm:"autoCreateTime"`

	User User `gorm:"foreignKey:UserID"`
}
