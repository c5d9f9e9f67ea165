package ports

import (
	"time"

	"github.com/accounts/auth-api/internal/core/domain"
)

// TokenClaims is the verified identity carried inside a signed token.
type TokenClaims struct {
	UserID    string
	Email     string
	Role      domain.Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenIssuer creates and verifies signed access and refresh tokens. The two
// token classes are signed with distinct secrets and distinct expiries, so a
// refresh token can never pass access-token verification and vice versa.
// Every verification failure (bad signature, expired, malformed, wrong key
// class) surfaces as domain.ErrInvalidToken.
type TokenIssuer interface {
	IssueAccessToken(user *domain.User) (string, error)
	IssueRefreshToken(user *domain.User) (string, error)
	VerifyAccessToken(token string) (*TokenClaims, error)
	VerifyRefreshToken(token string) (*TokenClaims, error)
}
