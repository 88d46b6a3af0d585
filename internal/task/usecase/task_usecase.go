package usecase

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	statsrepo "betterish-backend/internal/stats/repository"
	"betterish-backend/internal/task/domain"
	"betterish-backend/internal/task/repository"

	"gorm.io/gorm"
)

// DefaultProjectTitle names projects extracted without a main task title.
const DefaultProjectTitle = "New Project"

// seedTasks are created for every new user.
var seedTasks = []struct {
	Title    string
	Category domain.Category
}{
	{"Text your partner something nice", domain.CategoryQuick},
	{"Keep everyone alive today", domain.CategorySurvival},
}

// taskUsecase implements TaskUsecase interface
type taskUsecase struct {
	taskRepo  repository.TaskRepository
	statsRepo statsrepo.StatsRepository
	events    EventPublisher
	now       func() time.Time
	newID     func() string

	locks sync.Map // userID -> *sync.Mutex
}

// NewTaskUsecase creates a new instance of taskUsecase
func NewTaskUsecase(taskRepo repository.TaskRepository, statsRepo statsrepo.StatsRepository) TaskUsecase {
	return &taskUsecase{
		taskRepo:  taskRepo,
		statsRepo: statsRepo,
		now:       time.Now,
	}
}

func (u *taskUsecase) SetEventPublisher(p EventPublisher) {
	u.events = p
}

func (u *taskUsecase) lock(userID string) func() {
	m, _ := u.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (u *taskUsecase) storeOptions() []domain.StoreOption {
	opts := []domain.StoreOption{domain.WithClock(u.now)}
	if u.newID != nil {
		opts = append(opts, domain.WithIDGenerator(u.newID))
	}
	return opts
}

// mutate loads the user's tasks, runs op on a fresh store and persists the
// resulting change together with its stats delta and any extra writes.
func (u *taskUsecase) mutate(userID string, op func(s *domain.TaskStore) error, extra ...func(tx *gorm.DB) error) (*domain.TaskStore, error) {
	unlock := u.lock(userID)
	defer unlock()

	tasks, err := u.taskRepo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}
	store := domain.NewTaskStore(userID, tasks, u.storeOptions()...)
	if err := op(store); err != nil {
		return nil, err
	}

	change := store.Flush()
	if change.Empty() {
		return store, nil
	}
	err = u.taskRepo.Apply(change, func(tx *gorm.DB) error {
		if err := u.statsRepo.WithTx(tx).ApplyCompletionDelta(userID, change.CompletionDelta); err != nil {
			return err
		}
		for _, write := range extra {
			if err := write(tx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist tasks: %w", err)
	}

	if u.events != nil {
		u.events.SendToUser(userID, EventTasksChanged, map[string]interface{}{
			"upserted": len(change.Upserted),
			"deleted":  len(change.Deleted),
		})
	}
	return store, nil
}

func (u *taskUsecase) view(userID string, store *domain.TaskStore) (*TaskListView, error) {
	stats, err := u.statsRepo.Get(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}
	tasks := store.Sorted()
	if tasks == nil {
		tasks = []*domain.Task{}
	}
	return &TaskListView{Tasks: tasks, Stats: stats.View()}, nil
}

func (u *taskUsecase) ListTasks(userID string) (*TaskListView, error) {
	var swept int
	store, err := u.mutate(userID, func(s *domain.TaskStore) error {
		swept = s.RetentionSweep(u.now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	if swept > 0 {
		log.Printf("[TaskUsecase] Retention sweep removed %d tasks for user %s", swept, userID)
	}
	return u.view(userID, store)
}

func (u *taskUsecase) GetTask(userID, taskID string) (*domain.Task, error) {
	task, err := u.taskRepo.FindByID(userID, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, domain.ErrTaskNotFound
	}
	return task, nil
}

func (u *taskUsecase) CreateTask(userID, title string, category domain.Category) (*TaskListView, error) {
	var id string
	store, err := u.mutate(userID, func(s *domain.TaskStore) error {
		var err error
		id, err = s.Create(title, category)
		return err
	})
	if err != nil {
		return nil, err
	}
	view, err := u.view(userID, store)
	if err != nil {
		return nil, err
	}
	view.CreatedID = id
	return view, nil
}

func (u *taskUsecase) CreateProject(userID, title string, subtaskTitles []string) (*TaskListView, error) {
	var id string
	store, err := u.mutate(userID, func(s *domain.TaskStore) error {
		var err error
		id, err = s.CreateProject(title, subtaskTitles)
		return err
	})
	if err != nil {
		return nil, err
	}
	view, err := u.view(userID, store)
	if err != nil {
		return nil, err
	}
	view.CreatedID = id
	return view, nil
}

func (u *taskUsecase) ToggleTask(userID, taskID string) (*TaskListView, error) {
	store, err := u.mutate(userID, func(s *domain.TaskStore) error {
		s.Toggle(taskID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u.view(userID, store)
}

func (u *taskUsecase) DeleteTask(userID, taskID string) (*TaskListView, error) {
	store, err := u.mutate(userID, func(s *domain.TaskStore) error {
		s.Delete(taskID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u.view(userID, store)
}

func (u *taskUsecase) ToggleExpansion(userID, taskID string) (*TaskListView, error) {
	store, err := u.mutate(userID, func(s *domain.TaskStore) error {
		s.ToggleExpansion(taskID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u.view(userID, store)
}

func (u *taskUsecase) AttachSubtasks(userID, parentID string, titles []string) (int, error) {
	var n int
	_, err := u.mutate(userID, func(s *domain.TaskStore) error {
		n = s.AttachSubtasks(parentID, titles)
		return nil
	})
	return n, err
}

func (u *taskUsecase) AttachBreakdown(userID, taskID string, steps []string) (int, error) {
	var n int
	_, err := u.mutate(userID, func(s *domain.TaskStore) error {
		task, parent := s.Find(taskID)
		if task == nil || parent != nil || task.IsBrokenDown {
			return nil
		}
		n = s.AttachSubtasks(taskID, steps)
		return nil
	})
	return n, err
}

func (u *taskUsecase) AttachOrCreateProject(userID, targetID, title string, subtaskTitles []string, afterWrite ...AfterWrite) (int, error) {
	var n int
	extra := make([]func(tx *gorm.DB) error, 0, len(afterWrite))
	for _, write := range afterWrite {
		extra = append(extra, func(tx *gorm.DB) error {
			if n == 0 {
				return nil
			}
			return write(tx, n)
		})
	}
	_, err := u.mutate(userID, func(s *domain.TaskStore) error {
		if task, parent := s.Find(targetID); task != nil && parent == nil {
			n = s.AttachSubtasks(targetID, subtaskTitles)
			return nil
		}
		if targetID != "" {
			log.Printf("[TaskUsecase] Active task %s is gone, creating a project instead", targetID)
		}
		id, err := s.CreateProject(title, subtaskTitles)
		if err != nil {
			return err
		}
		if task, _ := s.Find(id); task != nil {
			n = len(task.Subtasks)
		}
		return nil
	}, extra...)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (u *taskUsecase) ApplyPriorities(userID string, priorityIDs, staleIDs []string) (*TaskListView, error) {
	store, err := u.mutate(userID, func(s *domain.TaskStore) error {
		for _, id := range priorityIDs {
			s.Recategorize(id, domain.CategorySurvival)
		}
		for _, id := range staleIDs {
			// Stale ids may point at subtasks or tasks already gone; only top-level tasks go.
			if task, parent := s.Find(id); task != nil && parent == nil {
				s.Delete(id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u.view(userID, store)
}

func (u *taskUsecase) ActiveTasks(userID string) ([]*domain.Task, error) {
	tasks, err := u.taskRepo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}
	return domain.NewTaskStore(userID, tasks).Active(), nil
}

func (u *taskUsecase) SeedDefaults(userID string) error {
	_, err := u.mutate(userID, func(s *domain.TaskStore) error {
		if len(s.Tasks()) > 0 {
			return nil
		}
		for _, seed := range seedTasks {
			if _, err := s.Create(seed.Title, seed.Category); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("[TaskUsecase] Failed to seed tasks for user %s: %v", userID, err)
	}
	return err
}

// IsValidationError reports whether err comes from invalid user input.
func IsValidationError(err error) bool {
	return errors.Is(err, domain.ErrEmptyTitle) || errors.Is(err, domain.ErrInvalidCategory)
}
