package auth

import (
	"context"

	"github.com/hugh/finza/internal/database/models"
)

// Authenticator defines the interface for user authentication operations.
type Authenticator interface {
	Login(ctx context.Context, input LoginInput) (*AuthResponse, error)
	Register(ctx context.Context, input RegisterInput) (*AuthResponse, error)
	GoogleLogin(ctx context.Context, profile *GoogleProfile) (*AuthResponse, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
}

// SessionTokenService defines the interface for session token operations.
type SessionTokenService interface {
	GenerateSessionToken(userID uint, email string, roleID *uint, expiry Expiry) (string, error)
	ValidateSessionToken(tokenString string) (*SessionClaims, error)
}

// PasswordResetter defines the interface for the reset lifecycle.
type PasswordResetter interface {
	RequestReset(ctx context.Context, email string) error
	VerifyResetToken(ctx context.Context, token string) (string, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// Compile-time interface satisfaction checks
var (
	_ Authenticator       = (*Service)(nil)
	_ SessionTokenService = (*JWTService)(nil)
	_ PasswordResetter    = (*PasswordResetService)(nil)
)
