package domain

import (
	"errors"
	"time"
)

// KidStages are the selectable child stages, youngest first.
var KidStages = []string{
	"Pregnancy (The Waiting Game)",
	"Newborn (0-3mo - Survival Mode)",
	"Infant (4-12mo - The Crawler)",
	"Toddler (1-3yr - The Chaos)",
	"Preschool (3-5yr - The Why Phase)",
	"Big Kid (5-8yr - School Daze)",
}

// DefaultKidStage is assigned to new profiles
const DefaultKidStage = "Newborn (0-3mo - Survival Mode)"

var ErrInvalidKidStage = errors.New("invalid kid stage")

// UserProfile is the single profile record of a user
type UserProfile struct {
	UserID    string    `json:"-" gorm:"primaryKey"`
	Name      string    `json:"name"`
	KidName   string    `json:"kid_name"`
	KidStage  string    `json:"kid_stage" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (UserProfile) TableName() string {
	return "user_profiles"
}

// ValidKidStage reports whether stage is one of KidStages
func ValidKidStage(stage string) bool {
	for _, s := range KidStages {
		if s == stage {
			return true
		}
	}
	return false
}
