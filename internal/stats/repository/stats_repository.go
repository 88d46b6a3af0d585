package repository

import (
	"time"

	statsdomain "betterish-backend/internal/stats/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StatsRepository defines the interface for user stats persistence
type StatsRepository interface {
	// Get returns the user's stats row, creating it on first access
	Get(userID string) (*statsdomain.UserStats, error)

	// Create inserts the stats row for a new user; an existing row is left untouched
	Create(userID string) error

	// SaveActivity writes the streak columns only; tasks_completed is left to ApplyCompletionDelta
	SaveActivity(stats *statsdomain.UserStats) error

	// ApplyCompletionDelta adjusts tasks_completed in place, clamped at zero
	ApplyCompletionDelta(userID string, delta int) error

	// WithTx returns a repository bound to an open transaction
	WithTx(tx *gorm.DB) StatsRepository
}

type statsRepository struct {
	db *gorm.DB
}

// NewStatsRepository creates a new instance of statsRepository
func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) WithTx(tx *gorm.DB) StatsRepository {
	return &statsRepository{db: tx}
}

func (r *statsRepository) Create(userID string) error {
	stats := &statsdomain.UserStats{
		UserID:     userID,
		Streak:     1,
		LastActive: time.Now(),
		UpdatedAt:  time.Now(),
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(stats).Error
}

func (r *statsRepository) Get(userID string) (*statsdomain.UserStats, error) {
	if err := r.Create(userID); err != nil {
		return nil, err
	}
	var stats statsdomain.UserStats
	if err := r.db.Where("user_id = ?", userID).First(&stats).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *statsRepository) SaveActivity(stats *statsdomain.UserStats) error {
	stats.UpdatedAt = time.Now()
	return r.db.Model(&statsdomain.UserStats{}).
		Where("user_id = ?", stats.UserID).
		Updates(map[string]interface{}{
			"streak":      stats.Streak,
			"last_active": stats.LastActive,
			"updated_at":  stats.UpdatedAt,
		}).Error
}

func (r *statsRepository) ApplyCompletionDelta(userID string, delta int) error {
	if delta == 0 {
		return nil
	}
	if err := r.Create(userID); err != nil {
		return err
	}
	// Single statement so a concurrent streak update cannot overwrite the count.
	return r.db.Model(&statsdomain.UserStats{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"tasks_completed": gorm.Expr("CASE WHEN tasks_completed + ? < 0 THEN 0 ELSE tasks_completed + ? END", delta, delta),
			"updated_at":      time.Now(),
		}).Error
}
