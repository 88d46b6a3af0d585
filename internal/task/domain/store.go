package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskStore owns one user's task list. All mutations go through its methods,
// which keep the subtask invariants and record the rows to persist.
//
// Id resolution always checks top-level tasks before subtasks.
type TaskStore struct {
	userID string
	tasks  []*Task // top-level, newest first
	now    func() time.Time
	newID  func() string

	upserted map[string]*Task
	order    []string
	deleted  map[string]struct{}
	delta    int
}

// StoreOption customises a TaskStore.
type StoreOption func(*TaskStore)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) StoreOption {
	return func(s *TaskStore) { s.now = now }
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(newID func() string) StoreOption {
	return func(s *TaskStore) { s.newID = newID }
}

// NewTaskStore builds a store over the user's top-level tasks as loaded from storage.
func NewTaskStore(userID string, tasks []*Task, opts ...StoreOption) *TaskStore {
	s := &TaskStore{
		userID:   userID,
		tasks:    tasks,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
		upserted: make(map[string]*Task),
		deleted:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tasks returns the top-level tasks in storage order (newest first).
func (s *TaskStore) Tasks() []*Task {
	return s.tasks
}

// Sorted returns the display order: incomplete before completed, incomplete
// survival tasks first, then newest first.
func (s *TaskStore) Sorted() []*Task {
	out := make([]*Task, len(s.tasks))
	copy(out, s.tasks)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Completed != b.Completed {
			return !a.Completed
		}
		if !a.Completed {
			aSurvival := a.Category == CategorySurvival
			bSurvival := b.Category == CategorySurvival
			if aSurvival != bSurvival {
				return aSurvival
			}
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return out
}

// Active returns the incomplete top-level tasks.
func (s *TaskStore) Active() []*Task {
	var out []*Task
	for _, t := range s.tasks {
		if !t.Completed {
			out = append(out, t)
		}
	}
	return out
}

// Find resolves id against top-level tasks first, then subtasks.
// For a subtask the owning parent is returned as well.
func (s *TaskStore) Find(id string) (task *Task, parent *Task) {
	if id == "" {
		return nil, nil
	}
	for _, t := range s.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	for _, t := range s.tasks {
		for _, st := range t.Subtasks {
			if st.ID == id {
				return st, t
			}
		}
	}
	return nil, nil
}

// Create inserts a new top-level task and returns its id.
func (s *TaskStore) Create(title string, category Category) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrEmptyTitle
	}
	if category == "" {
		category = CategoryQuick
	}
	if !category.Valid() {
		return "", ErrInvalidCategory
	}

	now := s.now()
	task := &Task{
		ID:        s.mintID(),
		UserID:    s.userID,
		Title:     title,
		Category:  category,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.tasks = append([]*Task{task}, s.tasks...)
	s.markUpserted(task)
	return task.ID, nil
}

// CreateProject creates a project task with its subtasks in the same pending change.
func (s *TaskStore) CreateProject(title string, subtaskTitles []string) (string, error) {
	id, err := s.Create(title, CategoryProject)
	if err != nil {
		return "", err
	}
	s.AttachSubtasks(id, subtaskTitles)
	return id, nil
}

// Toggle flips completion of a task or subtask. Every transition counts toward
// stats, whatever the nesting level. Returns false for unknown ids.
func (s *TaskStore) Toggle(id string) bool {
	task, _ := s.Find(id)
	if task == nil {
		return false
	}

	now := s.now()
	task.Completed = !task.Completed
	if task.Completed {
		task.CompletedAt = &now
		s.delta++
	} else {
		task.CompletedAt = nil
		s.delta--
	}
	task.UpdatedAt = now
	s.markUpserted(task)
	return true
}

// Delete removes a top-level task with its subtasks, or a single subtask.
func (s *TaskStore) Delete(id string) bool {
	task, parent := s.Find(id)
	if task == nil {
		return false
	}

	if parent == nil {
		for i, t := range s.tasks {
			if t.ID == id {
				s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
				break
			}
		}
		for _, st := range task.Subtasks {
			s.markDeleted(st.ID)
		}
		s.markDeleted(task.ID)
		return true
	}

	for i, st := range parent.Subtasks {
		if st.ID == id {
			parent.Subtasks = append(parent.Subtasks[:i:i], parent.Subtasks[i+1:]...)
			break
		}
	}
	s.markDeleted(id)
	return true
}

// AttachSubtasks appends subtasks built from titles to a top-level task.
// Blank titles are dropped; when none remain nothing changes. Returns the number attached.
func (s *TaskStore) AttachSubtasks(parentID string, titles []string) int {
	parent, grandparent := s.Find(parentID)
	if parent == nil || grandparent != nil {
		return 0
	}

	var clean []string
	for _, title := range titles {
		if title = strings.TrimSpace(title); title != "" {
			clean = append(clean, title)
		}
	}
	if len(clean) == 0 {
		return 0
	}

	now := s.now()
	next := 0
	for _, st := range parent.Subtasks {
		if st.Position >= next {
			next = st.Position + 1
		}
	}
	for i, title := range clean {
		sub := &Task{
			ID:        s.mintID(),
			UserID:    s.userID,
			ParentID:  parent.ID,
			Position:  next + i,
			Title:     title,
			Category:  CategoryQuick,
			CreatedAt: now,
			UpdatedAt: now,
		}
		parent.Subtasks = append(parent.Subtasks, sub)
		s.markUpserted(sub)
	}

	parent.IsBrokenDown = true
	parent.IsExpanded = true
	parent.UpdatedAt = now
	s.markUpserted(parent)
	return len(clean)
}

// ToggleExpansion flips subtask visibility on a top-level task. Subtask ids are ignored.
func (s *TaskStore) ToggleExpansion(id string) bool {
	task, parent := s.Find(id)
	if task == nil || parent != nil {
		return false
	}
	task.IsExpanded = !task.IsExpanded
	task.UpdatedAt = s.now()
	s.markUpserted(task)
	return true
}

// Recategorize moves a top-level task into category.
func (s *TaskStore) Recategorize(id string, category Category) bool {
	if !category.Valid() {
		return false
	}
	task, parent := s.Find(id)
	if task == nil || parent != nil || task.Category == category {
		return false
	}
	task.Category = category
	task.UpdatedAt = s.now()
	s.markUpserted(task)
	return true
}

// RetentionSweep deletes top-level tasks completed more than RetentionWindow before now.
func (s *TaskStore) RetentionSweep(now time.Time) int {
	var expired []string
	for _, t := range s.tasks {
		if t.Completed && t.CompletedAt != nil && now.Sub(*t.CompletedAt) > RetentionWindow {
			expired = append(expired, t.ID)
		}
	}
	for _, id := range expired {
		s.Delete(id)
	}
	return len(expired)
}

// Flush returns the pending change and resets it.
func (s *TaskStore) Flush() *Change {
	change := &Change{CompletionDelta: s.delta}
	for _, id := range s.order {
		if t, ok := s.upserted[id]; ok {
			change.Upserted = append(change.Upserted, t)
		}
	}
	for id := range s.deleted {
		change.Deleted = append(change.Deleted, id)
	}
	sort.Strings(change.Deleted)

	s.upserted = make(map[string]*Task)
	s.order = nil
	s.deleted = make(map[string]struct{})
	s.delta = 0
	return change
}

func (s *TaskStore) markUpserted(t *Task) {
	if _, ok := s.upserted[t.ID]; !ok {
		s.order = append(s.order, t.ID)
	}
	s.upserted[t.ID] = t
}

func (s *TaskStore) markDeleted(id string) {
	delete(s.upserted, id)
	s.deleted[id] = struct{}{}
}

// mintID returns an id not used by any task or subtask in the store.
func (s *TaskStore) mintID() string {
	for {
		id := s.newID()
		if t, _ := s.Find(id); t == nil {
			if _, gone := s.deleted[id]; !gone {
				return id
			}
		}
	}
}
