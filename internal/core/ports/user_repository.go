package ports

import (
	"context"

	"github.com/accounts/auth-api/internal/core/domain"
)

// ProfilePatch carries optional profile changes. Nil fields are left untouched.
type ProfilePatch struct {
	FirstName *string
	LastName  *string
	Email     *string
}

// UserRepository defines the persistence contract for user records. Every
// operation is its own implicit transaction; composite flows issue the writes
// they need without multi-statement coordination.
type UserRepository interface {
	// Create persists a new user. Returns domain.ErrUserExists when the email
	// is already taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// FindByEmail returns domain.ErrUserNotFound when no user owns the email.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindByID returns domain.ErrUserNotFound when the id is unknown.
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// UpdateRefreshToken overwrites the single refresh-token slot
	// unconditionally. A nil token clears the slot.
	UpdateRefreshToken(ctx context.Context, id string, token *string) error
	// UpdateLastLogin stamps last_login_at with the current time.
	UpdateLastLogin(ctx context.Context, id string) error
	// UpdateProfile applies the patch and returns the updated record. Returns
	// domain.ErrUserNotFound when the user vanished, domain.ErrUserExists when
	// the patched email belongs to a different user.
	UpdateProfile(ctx context.Context, id string, patch ProfilePatch) (*domain.User, error)
	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	// UpdateStatus transitions the account status without validating the prior
	// state (idempotent).
	UpdateStatus(ctx context.Context, id string, status domain.Status) error
	// Delete physically removes the record. Returns domain.ErrUserNotFound
	// when it is already gone.
	Delete(ctx context.Context, id string) error
	// List returns all users ordered by creation time.
	List(ctx context.Context) ([]*domain.User, error)
}
