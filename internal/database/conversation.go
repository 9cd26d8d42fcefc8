package database

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"openchat/internal/models"
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// IsParticipant отвечает на единственный вопрос, который нужен ядру:
// состоит ли пользователь в беседе
func (d *Database) IsParticipant(ctx context.Context, userID int64, conversationID string) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).
		Model(&models.Participant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (d *Database) CreateConversation(name string, createdBy int64) (*models.Conversation, error) {
	conv := &models.Conversation{
		ID:        uuid.New(),
		Name:      name,
		Slug:      d.uniqueSlug(name),
		CreatedBy: createdBy,
		CreatedAt: time.Now(),
	}

	if err := d.db.Create(conv).Error; err != nil {
		return nil, err
	}

	return conv, nil
}

func (d *Database) AddParticipant(conversationID uuid.UUID, userID int64, role string) error {
	participant := &models.Participant{
		ConversationID: conversationID,
		UserID:         userID,
		Role:           role,
	}
	return d.db.Create(participant).Error
}

// uniqueSlug добавляет счетчик, если slug уже занят
func (d *Database) uniqueSlug(name string) string {
	base := strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if base == "" {
		base = "conversation"
	}

	slug := base
	for counter := 1; ; counter++ {
		var count int64
		d.db.Model(&models.Conversation{}).Where("slug = ?", slug).Count(&count)
		if count == 0 {
			return slug
		}
		slug = fmt.Sprintf("%s-%d", base, counter)
	}
}

// EnsureSuperuser создает начального суперпользователя, если его еще нет
func (d *Database) EnsureSuperuser(email, username, passwordHash string) (*models.User, error) {
	var user models.User
	err := d.db.First(&user, "email = ?", email).Error
	if err == nil {
		return &user, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	user = models.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		IsSuperuser:  true,
		CreatedAt:    time.Now(),
	}

	if err := d.db.Create(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}
