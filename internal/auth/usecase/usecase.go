package usecase

import (
	authdomain "betterish-backend/internal/auth/domain"
	authdto "betterish-backend/internal/auth/dto"
)

// AuthUsecase defines the interface for authentication business logic
type AuthUsecase interface {
	Register(req *authdto.RegisterRequest) (*authdto.TokenResponse, error)
	Login(req *authdto.LoginRequest) (*authdto.TokenResponse, error)
	RefreshToken(refreshToken string) (*authdto.TokenResponse, error)
	Logout(refreshToken string) error

	// ValidateToken resolves the user of an access token
	ValidateToken(token string) (*authdomain.User, error)
	GetUser(userID string) (*authdomain.User, error)

	RegisterFCMToken(userID, token, deviceInfo string) error
	UnregisterFCMToken(userID, token string) error

	// SetRegisterCallback sets the hook run once for every new account
	SetRegisterCallback(cb func(userID string))
}
