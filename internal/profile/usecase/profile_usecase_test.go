package usecase

import (
	"errors"
	"testing"

	"betterish-backend/internal/profile/domain"
	"betterish-backend/internal/profile/repository"
	"betterish-backend/pkg/database"
)

func newProfileUsecase(t *testing.T) ProfileUsecase {
	t.Helper()
	db, err := database.NewInMemory()
	if err != nil {
		t.Fatalf("NewInMemory() = %v", err)
	}
	if err := db.AutoMigrate(&domain.UserProfile{}); err != nil {
		t.Fatalf("AutoMigrate() = %v", err)
	}
	return NewProfileUsecase(repository.NewProfileRepository(db))
}

func strPtr(s string) *string { return &s }

func TestGetProfileCreatesDefault(t *testing.T) {
	uc := newProfileUsecase(t)

	p, err := uc.GetProfile("u1")
	if err != nil {
		t.Fatalf("GetProfile() = %v", err)
	}
	if p.KidStage != domain.DefaultKidStage {
		t.Fatalf("KidStage = %q, expected default", p.KidStage)
	}
	again, _ := uc.GetProfile("u1")
	if again.CreatedAt.Unix() != p.CreatedAt.Unix() {
		t.Fatalf("second GetProfile() recreated the row")
	}
}

func TestUpdateProfile(t *testing.T) {
	uc := newProfileUsecase(t)

	p, err := uc.UpdateProfile("u1", UpdateProfileRequest{
		Name:     strPtr("  Sam "),
		KidStage: strPtr("Toddler (1-3yr - The Chaos)"),
	})
	if err != nil {
		t.Fatalf("UpdateProfile() = %v", err)
	}
	if p.Name != "Sam" || p.KidStage != "Toddler (1-3yr - The Chaos)" || p.KidName != "" {
		t.Fatalf("profile = %+v", p)
	}

	if _, err := uc.UpdateProfile("u1", UpdateProfileRequest{KidStage: strPtr("Teenager")}); !errors.Is(err, domain.ErrInvalidKidStage) {
		t.Fatalf("UpdateProfile(bad stage) = %v", err)
	}
	stored, _ := uc.GetProfile("u1")
	if stored.KidStage != "Toddler (1-3yr - The Chaos)" {
		t.Fatalf("invalid update changed the stage to %q", stored.KidStage)
	}
}
