package domain

import (
	"errors"
	"time"
)

// Category classifies a task. Survival tasks are surfaced first.
type Category string

const (
	CategoryQuick    Category = "quick"
	CategoryProject  Category = "project"
	CategorySurvival Category = "survival"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryQuick, CategoryProject, CategorySurvival:
		return true
	}
	return false
}

var (
	ErrEmptyTitle      = errors.New("task title is required")
	ErrInvalidCategory = errors.New("invalid task category")
	ErrTaskNotFound    = errors.New("task not found")
)

// RetentionWindow is how long a completed top-level task is kept before the sweep removes it.
const RetentionWindow = 24 * time.Hour

// Task is a to-do item. Top-level tasks may own one level of subtasks;
// subtasks are stored as rows with ParentID set.
type Task struct {
	ID           string     `json:"id" gorm:"primaryKey"`
	UserID       string     `json:"-" gorm:"index;not null"`
	ParentID     string     `json:"parent_id,omitempty" gorm:"index"`
	Position     int        `json:"-"`
	Title        string     `json:"title" gorm:"not null"`
	Completed    bool       `json:"completed" gorm:"default:false"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	Category     Category   `json:"category" gorm:"default:quick"`
	Subtasks     []*Task    `json:"subtasks,omitempty" gorm:"foreignKey:ParentID"`
	IsBrokenDown bool       `json:"is_broken_down" gorm:"default:false"`
	IsExpanded   bool       `json:"is_expanded" gorm:"default:false"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsSubtask reports whether the task lives inside a parent's subtask list.
func (t *Task) IsSubtask() bool {
	return t.ParentID != ""
}

// AgeDays is the number of whole days since the task was created.
func (t *Task) AgeDays(now time.Time) int {
	if now.Before(t.CreatedAt) {
		return 0
	}
	return int(now.Sub(t.CreatedAt) / (24 * time.Hour))
}

// Change is the set of row writes produced by store operations since the last flush.
type Change struct {
	Upserted        []*Task  // rows to insert or update (top-level and subtask rows alike)
	Deleted         []string // ids to delete
	CompletionDelta int      // net completion transitions, +1 per false->true, -1 per true->false
}

// Empty reports whether the change carries nothing to persist.
func (c *Change) Empty() bool {
	return c == nil || (len(c.Upserted) == 0 && len(c.Deleted) == 0 && c.CompletionDelta == 0)
}
