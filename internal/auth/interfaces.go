package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/hollis/causeconnect/internal/database/models"
)

// Authenticator defines the interface for user authentication operations.
type Authenticator interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResponse, error)
	Login(ctx context.Context, input LoginInput) (*AuthResponse, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// PasswordResetter defines the interface for the password-reset flow.
type PasswordResetter interface {
	RequestPasswordReset(ctx context.Context, email string) (*ResetIssue, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
	AdminResetPassword(ctx context.Context, userID uuid.UUID, newPassword string) error
}

// TokenService defines the interface for JWT token operations.
type TokenService interface {
	GenerateToken(userID uuid.UUID, email string, isAdmin bool) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Compile-time interface satisfaction checks
var (
	_ Authenticator    = (*Service)(nil)
	_ PasswordResetter = (*Service)(nil)
	_ TokenService     = (*JWTService)(nil)
)
