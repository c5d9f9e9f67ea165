package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/accounts/auth-api/internal/core/domain"
	"github.com/accounts/auth-api/internal/core/ports"
)

func seed(t *testing.T, r *UserRepository, id, email string) *domain.User {
	t.Helper()
	now := time.Now().UTC()
	u, err := r.Create(context.Background(), &domain.User{
		ID:        id,
		FirstName: "Alice",
		LastName:  "Smith",
		Email:     email,
		Role:      domain.RoleUser,
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func TestUserRepository_CreateConflict(t *testing.T) {
	r := NewUserRepository()
	seed(t, r, "u1", "alice@example.com")

	_, err := r.Create(context.Background(), &domain.User{ID: "u2", Email: "alice@example.com"})
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestUserRepository_RefreshTokenSlot(t *testing.T) {
	r := NewUserRepository()
	seed(t, r, "u1", "alice@example.com")
	ctx := context.Background()

	token := "refresh-1"
	if err := r.UpdateRefreshToken(ctx, "u1", &token); err != nil {
		t.Fatalf("set slot: %v", err)
	}
	u, err := r.FindByID(ctx, "u1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if u.RefreshToken == nil || *u.RefreshToken != "refresh-1" {
		t.Fatalf("slot not set: %v", u.RefreshToken)
	}

	if err := r.UpdateRefreshToken(ctx, "u1", nil); err != nil {
		t.Fatalf("clear slot: %v", err)
	}
	u, _ = r.FindByID(ctx, "u1")
	if u.RefreshToken != nil {
		t.Fatalf("slot not cleared")
	}
}

func TestUserRepository_UpdateProfileEmailConflict(t *testing.T) {
	r := NewUserRepository()
	seed(t, r, "u1", "alice@example.com")
	seed(t, r, "u2", "bob@example.com")

	email := "alice@example.com"
	_, err := r.UpdateProfile(context.Background(), "u2", ports.ProfilePatch{Email: &email})
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestUserRepository_DeleteMissing(t *testing.T) {
	r := NewUserRepository()

	if err := r.Delete(context.Background(), "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserRepository_ReturnsCopies(t *testing.T) {
	r := NewUserRepository()
	seed(t, r, "u1", "alice@example.com")
	ctx := context.Background()

	u, _ := r.FindByID(ctx, "u1")
	u.Email = "mutated@example.com"

	again, _ := r.FindByID(ctx, "u1")
	if again.Email != "alice@example.com" {
		t.Fatalf("repository leaked internal state")
	}
}
