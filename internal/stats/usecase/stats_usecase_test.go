package usecase

import (
	"testing"
	"time"

	"betterish-backend/internal/stats/domain"
	"betterish-backend/internal/stats/repository"
	"betterish-backend/pkg/database"
)

func TestGetStatsTracksStreak(t *testing.T) {
	db, err := database.NewInMemory()
	if err != nil {
		t.Fatalf("NewInMemory() = %v", err)
	}
	if err := db.AutoMigrate(&domain.UserStats{}); err != nil {
		t.Fatalf("AutoMigrate() = %v", err)
	}
	repo := repository.NewStatsRepository(db)
	uc := NewStatsUsecase(repo).(*statsUsecase)

	now := time.Now()
	uc.now = func() time.Time { return now }

	view, err := uc.GetStats("u1")
	if err != nil {
		t.Fatalf("GetStats() = %v", err)
	}
	if view.Streak != 1 || view.Level != "Sleep Deprived Rookie" {
		t.Fatalf("first GetStats() = %+v", view)
	}

	now = now.Add(24 * time.Hour)
	view, _ = uc.GetStats("u1")
	if view.Streak != 2 {
		t.Fatalf("next-day streak = %d, expected 2", view.Streak)
	}

	view, _ = uc.GetStats("u1")
	if view.Streak != 2 {
		t.Fatalf("same-day repeat changed streak to %d", view.Streak)
	}

	now = now.Add(72 * time.Hour)
	view, _ = uc.GetStats("u1")
	if view.Streak != 1 {
		t.Fatalf("streak after a gap = %d, expected 1", view.Streak)
	}
}

func TestCompletionDeltaClampsInRepository(t *testing.T) {
	db, _ := database.NewInMemory()
	db.AutoMigrate(&domain.UserStats{})
	repo := repository.NewStatsRepository(db)

	if err := repo.ApplyCompletionDelta("u1", -1); err != nil {
		t.Fatalf("ApplyCompletionDelta(-1) = %v", err)
	}
	repo.ApplyCompletionDelta("u1", 1)
	repo.ApplyCompletionDelta("u1", 1)
	s, _ := repo.Get("u1")
	if s.TasksCompleted != 2 {
		t.Fatalf("TasksCompleted = %d, expected 2", s.TasksCompleted)
	}
}

// interleavingRepo runs between once, right after the first Get returns.
type interleavingRepo struct {
	repository.StatsRepository
	between func()
}

func (r *interleavingRepo) Get(userID string) (*domain.UserStats, error) {
	s, err := r.StatsRepository.Get(userID)
	if r.between != nil {
		between := r.between
		r.between = nil
		between()
	}
	return s, err
}

func TestGetStatsKeepsConcurrentCompletion(t *testing.T) {
	db, _ := database.NewInMemory()
	db.AutoMigrate(&domain.UserStats{})
	base := repository.NewStatsRepository(db)
	if err := base.Create("u1"); err != nil {
		t.Fatalf("Create() = %v", err)
	}

	repo := &interleavingRepo{StatsRepository: base}
	repo.between = func() {
		if err := base.ApplyCompletionDelta("u1", 1); err != nil {
			t.Fatalf("ApplyCompletionDelta() = %v", err)
		}
	}
	uc := NewStatsUsecase(repo).(*statsUsecase)
	// A new day forces the streak write.
	uc.now = func() time.Time { return time.Now().Add(24 * time.Hour) }

	view, err := uc.GetStats("u1")
	if err != nil {
		t.Fatalf("GetStats() = %v", err)
	}
	if view.TasksCompleted != 1 {
		t.Fatalf("GetStats() view TasksCompleted = %d, expected 1", view.TasksCompleted)
	}
	s, _ := base.Get("u1")
	if s.TasksCompleted != 1 || s.Streak != 2 {
		t.Fatalf("stored stats = %+v, expected 1 completion and streak 2", s)
	}
}
