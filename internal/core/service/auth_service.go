package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/accounts/auth-api/internal/core/domain"
	"github.com/accounts/auth-api/internal/core/ports"
)

// AuthService composes the user store and token issuer into the
// register/login/refresh/logout flows. Revocation is by slot overwrite: a user
// has at most one valid refresh token, and issuing or clearing one makes any
// previous token permanently unverifiable even though its signature would
// still check out.
type AuthService struct {
	users  ports.UserService
	tokens ports.TokenIssuer
	logger zerolog.Logger
}

func NewAuthService(users ports.UserService, tokens ports.TokenIssuer, logger zerolog.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, logger: logger}
}

// Register creates the account and immediately activates it — there is no
// verification step, so the pending status only exists between the two writes.
func (s *AuthService) Register(ctx context.Context, input ports.RegisterInput) (*ports.AuthResult, error) {
	user, err := s.users.Create(ctx, input)
	if err != nil {
		return nil, err
	}

	if err := s.users.Activate(ctx, user.ID); err != nil {
		return nil, err
	}
	user.Status = domain.StatusActive

	result, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Msg("user registered")
	return result, nil
}

// Login verifies credentials and rotates the refresh slot. A missing user and
// a wrong password fail identically so responses never reveal whether an
// account exists.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.users.VerifyPassword(user, password) {
		return nil, domain.ErrInvalidCredentials
	}

	if !user.IsActive() {
		return nil, domain.ErrAccountNotActive
	}

	result, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Msg("user logged in")
	return result, nil
}

// Refresh exchanges a refresh token for a new access token. The presented
// token must verify against the refresh key AND exactly equal the stored slot;
// the slot comparison is what makes logout and re-login effective revocation.
// The refresh token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return "", domain.ErrInvalidRefreshToken
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrInvalidRefreshToken
		}
		return "", err
	}

	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		return "", domain.ErrInvalidRefreshToken
	}

	if !user.IsActive() {
		return "", domain.ErrInvalidRefreshToken
	}

	return s.tokens.IssueAccessToken(user)
}

// Logout clears the refresh slot unconditionally. Calling it twice is harmless.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.users.RemoveRefreshToken(ctx, userID)
}

// issuePair mints an access+refresh pair and stores the refresh token in the
// user's slot, overwriting whatever was there.
func (s *AuthService) issuePair(ctx context.Context, user *domain.User) (*ports.AuthResult, error) {
	access, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}

	refresh, err := s.tokens.IssueRefreshToken(user)
	if err != nil {
		return nil, err
	}

	if err := s.users.UpdateRefreshToken(ctx, user.ID, refresh); err != nil {
		return nil, err
	}

	return &ports.AuthResult{
		User:         user.Public(),
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}
