package usecase

import (
	"fmt"
	"strings"

	"betterish-backend/internal/profile/domain"
	"betterish-backend/internal/profile/repository"
)

// ProfileUsecase defines the interface for profile business logic
type ProfileUsecase interface {
	GetProfile(userID string) (*domain.UserProfile, error)
	UpdateProfile(userID string, req UpdateProfileRequest) (*domain.UserProfile, error)
}

// UpdateProfileRequest carries the fields that can change; nil leaves a field as is
type UpdateProfileRequest struct {
	Name     *string `json:"name"`
	KidName  *string `json:"kid_name"`
	KidStage *string `json:"kid_stage"`
}

type profileUsecase struct {
	profileRepo repository.ProfileRepository
}

// NewProfileUsecase creates a new instance of profileUsecase
func NewProfileUsecase(profileRepo repository.ProfileRepository) ProfileUsecase {
	return &profileUsecase{profileRepo: profileRepo}
}

func (u *profileUsecase) GetProfile(userID string) (*domain.UserProfile, error) {
	profile, err := u.profileRepo.Get(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return profile, nil
}

func (u *profileUsecase) UpdateProfile(userID string, req UpdateProfileRequest) (*domain.UserProfile, error) {
	if req.KidStage != nil && !domain.ValidKidStage(*req.KidStage) {
		return nil, domain.ErrInvalidKidStage
	}

	profile, err := u.GetProfile(userID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		profile.Name = strings.TrimSpace(*req.Name)
	}
	if req.KidName != nil {
		profile.KidName = strings.TrimSpace(*req.KidName)
	}
	if req.KidStage != nil {
		profile.KidStage = *req.KidStage
	}

	if err := u.profileRepo.Save(profile); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	return profile, nil
}
