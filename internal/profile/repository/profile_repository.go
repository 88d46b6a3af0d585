package repository

import (
	"time"

	"betterish-backend/internal/profile/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileRepository defines the interface for profile persistence
type ProfileRepository interface {
	// Get returns the user's profile, creating a default one on first access
	Get(userID string) (*domain.UserProfile, error)
	Save(profile *domain.UserProfile) error
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new instance of profileRepository
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Get(userID string) (*domain.UserProfile, error) {
	now := time.Now()
	seed := &domain.UserProfile{
		UserID:    userID,
		KidStage:  domain.DefaultKidStage,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(seed).Error; err != nil {
		return nil, err
	}

	var profile domain.UserProfile
	if err := r.db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) Save(profile *domain.UserProfile) error {
	profile.UpdatedAt = time.Now()
	return r.db.Save(profile).Error
}
