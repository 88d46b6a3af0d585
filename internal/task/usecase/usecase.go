package usecase

import (
	statsdomain "betterish-backend/internal/stats/domain"
	"betterish-backend/internal/task/domain"

	"gorm.io/gorm"
)

// TaskUsecase defines the interface for task business logic.
// Not-found ids are silent no-ops: mutations return the unchanged view.
type TaskUsecase interface {
	// ListTasks runs the retention sweep and returns the sorted task list with stats
	ListTasks(userID string) (*TaskListView, error)

	// GetTask resolves a top-level task or subtask, ErrTaskNotFound when unknown
	GetTask(userID, taskID string) (*domain.Task, error)

	// CreateTask creates a top-level task
	CreateTask(userID, title string, category domain.Category) (*TaskListView, error)

	// CreateProject creates a project task together with its subtasks
	CreateProject(userID, title string, subtaskTitles []string) (*TaskListView, error)

	// ToggleTask flips completion and applies the stats delta in the same transaction
	ToggleTask(userID, taskID string) (*TaskListView, error)

	// DeleteTask removes a task (with subtasks) or a single subtask
	DeleteTask(userID, taskID string) (*TaskListView, error)

	// ToggleExpansion flips subtask visibility of a top-level task
	ToggleExpansion(userID, taskID string) (*TaskListView, error)

	// AttachSubtasks appends subtasks to a top-level task and returns the number attached
	AttachSubtasks(userID, parentID string, titles []string) (int, error)

	// AttachBreakdown attaches steps to a top-level task that is not broken down yet;
	// otherwise it is a no-op returning 0
	AttachBreakdown(userID, taskID string, steps []string) (int, error)

	// AttachOrCreateProject attaches to targetID when it is a live top-level task,
	// otherwise creates a project titled title. Returns the number of subtasks added.
	// afterWrite runs in the same transaction, only when something was added.
	AttachOrCreateProject(userID, targetID, title string, subtaskTitles []string, afterWrite ...AfterWrite) (int, error)

	// ApplyPriorities recategorizes priorityIDs to survival and deletes staleIDs
	ApplyPriorities(userID string, priorityIDs, staleIDs []string) (*TaskListView, error)

	// ActiveTasks returns the incomplete top-level tasks
	ActiveTasks(userID string) ([]*domain.Task, error)

	// SeedDefaults creates the starter tasks for a new user
	SeedDefaults(userID string) error

	// SetEventPublisher sets the publisher notified after every persisted change
	SetEventPublisher(p EventPublisher)
}

// AfterWrite runs inside the transaction that persists a change; attached is
// the number of subtasks the change added
type AfterWrite func(tx *gorm.DB, attached int) error

// EventPublisher pushes change notifications to a user's connected clients
type EventPublisher interface {
	SendToUser(userID, event string, data interface{})
}

// TaskListView is the re-rendered state returned after reads and mutations
type TaskListView struct {
	Tasks     []*domain.Task   `json:"tasks"`
	Stats     statsdomain.View `json:"stats"`
	CreatedID string           `json:"created_id,omitempty"`
}

// EventTasksChanged is published whenever a user's task rows change
const EventTasksChanged = "tasks_changed"
