package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/accounts/auth-api/internal/core/domain"
	"github.com/accounts/auth-api/internal/core/ports"
)

// UserService implements the user-record state rules over a UserRepository.
type UserService struct {
	repo       ports.UserRepository
	bcryptCost int
	logger     zerolog.Logger
}

func NewUserService(repo ports.UserRepository, bcryptCost int, logger zerolog.Logger) *UserService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = 12
	}
	return &UserService{repo: repo, bcryptCost: bcryptCost, logger: logger}
}

// Create hashes the password and persists a new user with status pending.
func (s *UserService) Create(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
	role := input.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !role.Valid() {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		PasswordHash: string(hash),
		Role:         role,
		Status:       domain.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", created.ID).Str("role", string(created.Role)).Msg("user created")
	return created, nil
}

func (s *UserService) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.repo.FindByEmail(ctx, email)
}

func (s *UserService) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.FindByID(ctx, id)
}

// VerifyPassword compares plaintext against the stored hash. bcrypt runs in
// constant time for equal-length inputs; a malformed stored hash reads as a
// mismatch rather than an error.
func (s *UserService) VerifyPassword(user *domain.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

func (s *UserService) UpdateRefreshToken(ctx context.Context, id string, token string) error {
	return s.repo.UpdateRefreshToken(ctx, id, &token)
}

func (s *UserService) RemoveRefreshToken(ctx context.Context, id string) error {
	return s.repo.UpdateRefreshToken(ctx, id, nil)
}

func (s *UserService) UpdateLastLogin(ctx context.Context, id string) error {
	return s.repo.UpdateLastLogin(ctx, id)
}

// UpdateProfile applies a partial update. When the patch changes the email,
// the new address must not belong to a different user.
func (s *UserService) UpdateProfile(ctx context.Context, id string, patch ports.ProfilePatch) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Email != nil && *patch.Email != user.Email {
		owner, err := s.repo.FindByEmail(ctx, *patch.Email)
		if err == nil && owner.ID != id {
			return nil, domain.ErrUserExists
		}
		if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
	}

	return s.repo.UpdateProfile(ctx, id, patch)
}

// ChangePassword swaps the stored hash after verifying the current password.
// The refresh-token slot is untouched: an existing session stays valid.
func (s *UserService) ChangePassword(ctx context.Context, id, current, next string) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if !s.VerifyPassword(user, current) {
		return domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.bcryptCost)
	if err != nil {
		return err
	}

	if err := s.repo.UpdatePassword(ctx, id, string(hash)); err != nil {
		return err
	}

	s.logger.Info().Str("user_id", id).Msg("password changed")
	return nil
}

func (s *UserService) Activate(ctx context.Context, id string) error {
	return s.repo.UpdateStatus(ctx, id, domain.StatusActive)
}

func (s *UserService) Deactivate(ctx context.Context, id string) error {
	return s.repo.UpdateStatus(ctx, id, domain.StatusInactive)
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", id).Msg("user deleted")
	return nil
}

// List projects every user record, dropping credential fields at the boundary.
func (s *UserService) List(ctx context.Context) ([]domain.PublicUser, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}
