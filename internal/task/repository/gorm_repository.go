package repository

import (
	"errors"
	"fmt"
	"time"

	"betterish-backend/internal/task/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// gormTaskRepository implements TaskRepository using GORM
type gormTaskRepository struct {
	db *gorm.DB
}

// NewGormTaskRepository creates a new GORM-based TaskRepository
func NewGormTaskRepository(db *gorm.DB) TaskRepository {
	return &gormTaskRepository{db: db}
}

func (r *gormTaskRepository) FindByUserID(userID string) ([]*domain.Task, error) {
	var tasks []*domain.Task
	err := r.db.
		Where("user_id = ? AND (parent_id = '' OR parent_id IS NULL)", userID).
		Preload("Subtasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, created_at ASC")
		}).
		Order("created_at DESC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	return tasks, nil
}

func (r *gormTaskRepository) FindByID(userID, id string) (*domain.Task, error) {
	var task domain.Task
	err := r.db.
		Where("id = ? AND user_id = ?", id, userID).
		Preload("Subtasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, created_at ASC")
		}).
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

func (r *gormTaskRepository) Apply(change *domain.Change, afterWrite func(tx *gorm.DB) error) error {
	if change.Empty() {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if len(change.Deleted) > 0 {
			if err := tx.Where("id IN ?", change.Deleted).Delete(&domain.Task{}).Error; err != nil {
				return fmt.Errorf("failed to delete tasks: %w", err)
			}
		}
		for _, task := range change.Upserted {
			if task.UpdatedAt.IsZero() {
				task.UpdatedAt = time.Now()
			}
			// Rows are written one by one; subtasks arrive as their own entries.
			if err := tx.Omit(clause.Associations).Save(task).Error; err != nil {
				return fmt.Errorf("failed to save task %s: %w", task.ID, err)
			}
		}
		if afterWrite != nil {
			return afterWrite(tx)
		}
		return nil
	})
}
