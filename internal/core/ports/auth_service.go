package ports

import (
	"context"

	"github.com/accounts/auth-api/internal/core/domain"
)

// RegisterInput is the structured input for account registration. Role is
// optional and defaults to the regular user role.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      domain.Role
}

// AuthResult is the success shape of register and login.
type AuthResult struct {
	User         domain.PublicUser `json:"user"`
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token"`
}

// AuthService composes hashing, token issuance, and the user store into the
// register/login/refresh/logout flows and owns the token-rotation policy.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	// Refresh exchanges a valid refresh token for a new access token. The
	// refresh token itself is not rotated.
	Refresh(ctx context.Context, refreshToken string) (string, error)
	// Logout clears the refresh-token slot. Idempotent.
	Logout(ctx context.Context, userID string) error
}
