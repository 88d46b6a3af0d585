// Package requeststate tracks one outstanding request per logical action.
package requeststate

import (
	"errors"
	"sync"
	"time"
)

// State is the lifecycle of a logical request.
type State string

const (
	Idle      State = "idle"
	InFlight  State = "in_flight"
	Succeeded State = "succeeded"
	Failed    State = "failed"
)

// Action names a logical AI-backed operation.
type Action string

const (
	ActionBreakdown Action = "breakdown"
	ActionExtract   Action = "extract"
	ActionAnalyze   Action = "analyze"
	ActionSend      Action = "send"
	ActionSuggest   Action = "suggest"
)

var (
	// ErrRequestInFlight is returned when the same action is already running for the same target.
	ErrRequestInFlight = errors.New("request already in flight")

	// ErrSkipped passed to done restores the slot to what it was before Begin.
	ErrSkipped = errors.New("request skipped")
)

// Key identifies a request slot.
type Key struct {
	UserID string
	Action Action
	Target string
}

// Entry is a snapshot of one slot.
type Entry struct {
	Action    Action    `json:"action"`
	Target    string    `json:"target,omitempty"`
	State     State     `json:"state"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Tracker is safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	entries map[Key]*Entry
	now     func() time.Time
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{
		entries: make(map[Key]*Entry),
		now:     time.Now,
	}
}

// Begin moves the slot to in_flight. It fails with ErrRequestInFlight when the
// slot is already in flight; the returned done func records the outcome.
func (t *Tracker) Begin(key Key) (done func(err error), err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev, ok := t.entries[key]
	if ok && prev.State == InFlight {
		return nil, ErrRequestInFlight
	}
	t.entries[key] = &Entry{
		Action:    key.Action,
		Target:    key.Target,
		State:     InFlight,
		UpdatedAt: t.now(),
	}

	var once sync.Once
	return func(err error) {
		once.Do(func() {
			if errors.Is(err, ErrSkipped) {
				t.restore(key, prev)
				return
			}
			t.finish(key, err)
		})
	}, nil
}

func (t *Tracker) restore(key Key, prev *Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if prev == nil {
		delete(t.entries, key)
		return
	}
	t.entries[key] = prev
}

func (t *Tracker) finish(key Key, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[key]
	if !ok {
		return
	}
	e.UpdatedAt = t.now()
	if err != nil {
		e.State = Failed
		e.Error = err.Error()
		return
	}
	e.State = Succeeded
	e.Error = ""
}

// State returns the slot's current state, Idle when never used.
func (t *Tracker) State(key Key) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[key]; ok {
		return e.State
	}
	return Idle
}

// ForUser lists every slot the user has touched.
func (t *Tracker) ForUser(userID string) []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := []Entry{}
	for k, e := range t.entries {
		if k.UserID == userID {
			out = append(out, *e)
		}
	}
	return out
}

// Reset returns the slot to Idle.
func (t *Tracker) Reset(key Key) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, key)
}
