package repository

import (
	"errors"

	"betterish-backend/internal/chat/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChatRepository defines the interface for chat persistence.
// Messages can only be appended.
type ChatRepository interface {
	Append(msg *domain.ChatMessage) error

	// ListByUserID returns every message of the user, oldest first
	ListByUserID(userID string) ([]*domain.ChatMessage, error)

	// Recent returns the last limit messages of the user, oldest first
	Recent(userID string, limit int) ([]*domain.ChatMessage, error)

	FindByID(userID, id string) (*domain.ChatMessage, error)

	// ConvertedIDs returns the ids of the user's converted messages
	ConvertedIDs(userID string) (map[string]bool, error)

	IsConverted(messageID string) (bool, error)

	// RecordConversion stores a conversion; the first record for a message wins
	RecordConversion(conv *domain.MessageConversion) error

	// WithTx returns a repository bound to an open transaction
	WithTx(tx *gorm.DB) ChatRepository
}

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a new instance of chatRepository
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) WithTx(tx *gorm.DB) ChatRepository {
	return &chatRepository{db: tx}
}

func (r *chatRepository) Append(msg *domain.ChatMessage) error {
	return r.db.Create(msg).Error
}

func (r *chatRepository) ListByUserID(userID string) ([]*domain.ChatMessage, error) {
	var msgs []*domain.ChatMessage
	err := r.db.Where("user_id = ?", userID).Order("sent_at ASC, id ASC").Find(&msgs).Error
	return msgs, err
}

func (r *chatRepository) Recent(userID string, limit int) ([]*domain.ChatMessage, error) {
	var msgs []*domain.ChatMessage
	err := r.db.Where("user_id = ?", userID).Order("sent_at DESC, id DESC").Limit(limit).Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (r *chatRepository) FindByID(userID, id string) (*domain.ChatMessage, error) {
	var msg domain.ChatMessage
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

func (r *chatRepository) ConvertedIDs(userID string) (map[string]bool, error) {
	var ids []string
	if err := r.db.Model(&domain.MessageConversion{}).Where("user_id = ?", userID).Pluck("message_id", &ids).Error; err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (r *chatRepository) IsConverted(messageID string) (bool, error) {
	var count int64
	err := r.db.Model(&domain.MessageConversion{}).Where("message_id = ?", messageID).Count(&count).Error
	return count > 0, err
}

func (r *chatRepository) RecordConversion(conv *domain.MessageConversion) error {
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(conv).Error
}
