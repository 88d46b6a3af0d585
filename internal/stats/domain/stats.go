package domain

import "time"

// Level is one rung of the progression table.
type Level struct {
	Threshold int    `json:"threshold"`
	Title     string `json:"title"`
}

// Levels is ordered by ascending threshold.
var Levels = []Level{
	{Threshold: 0, Title: "Sleep Deprived Rookie"},
	{Threshold: 5, Title: "Diaper Bag Commander"},
	{Threshold: 20, Title: "Chaos Manager"},
	{Threshold: 50, Title: "Dad Joke Grandmaster"},
}

// UserStats is the single stats record of a user. The primary key on UserID
// keeps it one-to-one with the user.
type UserStats struct {
	UserID         string    `json:"-" gorm:"primaryKey"`
	Streak         int       `json:"streak" gorm:"default:0"`
	TasksCompleted int       `json:"tasks_completed" gorm:"default:0"`
	LastActive     time.Time `json:"last_active"`
	UpdatedAt      time.Time `json:"-"`
}

// TableName specifies the table name for GORM
func (UserStats) TableName() string {
	return "user_stats"
}

// ApplyCompletionDelta adds delta to the completed count, never going below zero.
func (s *UserStats) ApplyCompletionDelta(delta int) {
	s.TasksCompleted += delta
	if s.TasksCompleted < 0 {
		s.TasksCompleted = 0
	}
}

// RecordActivity applies the daily streak rule and reports whether anything changed.
// Activity on the day after LastActive extends the streak; a longer gap restarts it.
func (s *UserStats) RecordActivity(now time.Time) bool {
	today := startOfDay(now)
	if !s.LastActive.IsZero() {
		last := startOfDay(s.LastActive.In(now.Location()))
		switch {
		case last.Equal(today):
			return false
		case last.AddDate(0, 0, 1).Equal(today):
			s.Streak++
			s.LastActive = now
			return true
		case last.After(today):
			// Clock went backwards; keep the record as is.
			return false
		}
	}
	s.Streak = 1
	s.LastActive = now
	return true
}

// Level returns the greatest level whose threshold is at most TasksCompleted.
func (s UserStats) Level() Level {
	current := Levels[0]
	for _, l := range Levels {
		if s.TasksCompleted >= l.Threshold {
			current = l
		}
	}
	return current
}

// NextLevel returns the first level above the current count, or nil at the top.
func (s UserStats) NextLevel() *Level {
	for _, l := range Levels {
		if l.Threshold > s.TasksCompleted {
			next := l
			return &next
		}
	}
	return nil
}

// Progress is the percentage travelled from the current level to the next, 100 at the top.
func (s UserStats) Progress() float64 {
	next := s.NextLevel()
	if next == nil {
		return 100
	}
	current := s.Level()
	return float64(s.TasksCompleted-current.Threshold) / float64(next.Threshold-current.Threshold) * 100
}

// View is the read model returned to clients; level fields are derived, never stored.
type View struct {
	Streak         int       `json:"streak"`
	TasksCompleted int       `json:"tasks_completed"`
	LastActive     time.Time `json:"last_active"`
	Level          string    `json:"level"`
	NextLevel      *Level    `json:"next_level,omitempty"`
	Progress       float64   `json:"progress"`
	WinsToNext     int       `json:"wins_to_next"`
}

func (s UserStats) View() View {
	v := View{
		Streak:         s.Streak,
		TasksCompleted: s.TasksCompleted,
		LastActive:     s.LastActive,
		Level:          s.Level().Title,
		NextLevel:      s.NextLevel(),
		Progress:       s.Progress(),
	}
	if v.NextLevel != nil {
		v.WinsToNext = v.NextLevel.Threshold - s.TasksCompleted
	}
	return v
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
