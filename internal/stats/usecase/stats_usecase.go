package usecase

import (
	"fmt"
	"time"

	"betterish-backend/internal/stats/domain"
	"betterish-backend/internal/stats/repository"
)

// StatsUsecase defines the interface for stats business logic
type StatsUsecase interface {
	// GetStats records today's activity for the streak and returns the derived view
	GetStats(userID string) (*domain.View, error)
}

type statsUsecase struct {
	statsRepo repository.StatsRepository
	now       func() time.Time
}

// NewStatsUsecase creates a new instance of statsUsecase
func NewStatsUsecase(statsRepo repository.StatsRepository) StatsUsecase {
	return &statsUsecase{statsRepo: statsRepo, now: time.Now}
}

func (u *statsUsecase) GetStats(userID string) (*domain.View, error) {
	stats, err := u.statsRepo.Get(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}
	if stats.RecordActivity(u.now()) {
		if err := u.statsRepo.SaveActivity(stats); err != nil {
			return nil, fmt.Errorf("failed to save stats: %w", err)
		}
		// Re-read so completions committed since the first read are reflected.
		if stats, err = u.statsRepo.Get(userID); err != nil {
			return nil, fmt.Errorf("failed to load stats: %w", err)
		}
	}
	view := stats.View()
	return &view, nil
}
