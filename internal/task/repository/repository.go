package repository

import (
	"betterish-backend/internal/task/domain"

	"gorm.io/gorm"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// FindByUserID loads the user's top-level tasks, newest first, with subtasks in order
	FindByUserID(userID string) ([]*domain.Task, error)

	// FindByID finds a top-level task or subtask by its ID
	FindByID(userID, id string) (*domain.Task, error)

	// Apply persists a flushed store change in one transaction.
	// afterWrite, when set, runs inside the same transaction so dependent
	// records commit or roll back together with the task rows.
	Apply(change *domain.Change, afterWrite func(tx *gorm.DB) error) error
}
