package repository

import (
	"errors"

	"betterish-backend/internal/assistant/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TipRepository defines the interface for daily tip persistence
type TipRepository interface {
	// FindByDate returns the user's tip for date, nil when none was stored
	FindByDate(userID, date string) (*domain.DailyTip, error)

	// Save stores a tip unless one already exists for the same user and date
	Save(tip *domain.DailyTip) error

	// DeleteBefore removes tips older than date
	DeleteBefore(date string) (int64, error)
}

type tipRepository struct {
	db *gorm.DB
}

// NewTipRepository creates a new instance of tipRepository
func NewTipRepository(db *gorm.DB) TipRepository {
	return &tipRepository{db: db}
}

func (r *tipRepository) FindByDate(userID, date string) (*domain.DailyTip, error) {
	var tip domain.DailyTip
	err := r.db.Where("user_id = ? AND date = ?", userID, date).First(&tip).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tip, nil
}

func (r *tipRepository) Save(tip *domain.DailyTip) error {
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(tip).Error
}

func (r *tipRepository) DeleteBefore(date string) (int64, error) {
	res := r.db.Where("date < ?", date).Delete(&domain.DailyTip{})
	return res.RowsAffected, res.Error
}
