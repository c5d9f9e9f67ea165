package ports

import (
	"context"

	"github.com/accounts/auth-api/internal/core/domain"
)

// UserService owns the user-record state rules on top of the repository:
// password hashing on create and change, email-uniqueness checks on profile
// updates, and status transitions.
type UserService interface {
	Create(ctx context.Context, input RegisterInput) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// VerifyPassword reports whether the plaintext matches the stored hash.
	// Malformed hashes verify as false, never as an error.
	VerifyPassword(user *domain.User, password string) bool
	UpdateRefreshToken(ctx context.Context, id string, token string) error
	RemoveRefreshToken(ctx context.Context, id string) error
	UpdateLastLogin(ctx context.Context, id string) error
	UpdateProfile(ctx context.Context, id string, patch ProfilePatch) (*domain.User, error)
	// ChangePassword fails with domain.ErrInvalidCredentials when current does
	// not verify, domain.ErrUserNotFound when the user is missing.
	ChangePassword(ctx context.Context, id, current, next string) error
	Activate(ctx context.Context, id string) error
	Deactivate(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	// List returns outward-facing projections for all users.
	List(ctx context.Context) ([]domain.PublicUser, error)
}
