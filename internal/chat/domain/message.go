package domain

import (
	"errors"
	"time"
)

// Role identifies who wrote a chat message
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

var (
	ErrEmptyMessage = errors.New("message text is required")
	ErrInvalidRole  = errors.New("invalid message role")
)

// ChatMessage is one entry of a user's append-only chat log.
// TaskID records the active task context the message was written under.
type ChatMessage struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"-" gorm:"index:idx_chat_user_time;not null"`
	Role      Role      `json:"role" gorm:"not null"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	TaskID    string    `json:"task_id,omitempty"`
	Timestamp time.Time `json:"timestamp" gorm:"column:sent_at;index:idx_chat_user_time"`
}

// TableName specifies the table name for GORM
func (ChatMessage) TableName() string {
	return "chat_messages"
}

// MessageConversion marks a message whose text has been turned into tasks.
// It lives apart from the message so messages are never updated.
type MessageConversion struct {
	MessageID string    `json:"message_id" gorm:"primaryKey"`
	UserID    string    `json:"-" gorm:"index;not null"`
	Count     int       `json:"count"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (MessageConversion) TableName() string {
	return "message_conversions"
}
