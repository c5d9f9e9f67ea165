package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/accounts/auth-api/internal/api/metrics"
	"github.com/accounts/auth-api/internal/core/domain"
	"github.com/accounts/auth-api/internal/core/ports"
)

// identityKey is the context key the Auth middleware stores the resolved
// Identity under. Handlers read it through CurrentIdentity.
const identityKey = "identity"

// Identity is the minimal projection of the authenticated user attached to
// the request context. It is produced once at the guard boundary and threaded
// explicitly; handlers never re-parse the token.
type Identity struct {
	ID        string
	Email     string
	Role      domain.Role
	FirstName string
	LastName  string
	Status    domain.Status
}

// Auth is the access guard: it extracts the bearer token, verifies it as an
// access token, re-resolves the user from the store, and rejects callers whose
// account has since disappeared or gone non-active. The account status check
// runs on every request, not cached from the token. As a side effect the
// user's last_login_at is stamped, giving it last-seen semantics.
func Auth(tokens ports.TokenIssuer, users ports.UserService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				metrics.AuthRejectionsTotal.WithLabelValues("missing_header").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				metrics.AuthRejectionsTotal.WithLabelValues("malformed_header").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims, err := tokens.VerifyAccessToken(parts[1])
			if err != nil {
				metrics.AuthRejectionsTotal.WithLabelValues("invalid_token").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			user, err := users.FindByID(c.Request().Context(), claims.UserID)
			if err != nil {
				metrics.AuthRejectionsTotal.WithLabelValues("user_not_found").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "User not found")
			}

			if !user.IsActive() {
				metrics.AuthRejectionsTotal.WithLabelValues("inactive").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "User account is not active")
			}

			if err := users.UpdateLastLogin(c.Request().Context(), user.ID); err != nil {
				return err
			}

			c.Set(identityKey, Identity{
				ID:        user.ID,
				Email:     user.Email,
				Role:      user.Role,
				FirstName: user.FirstName,
				LastName:  user.LastName,
				Status:    user.Status,
			})

			return next(c)
		}
	}
}

// CurrentIdentity returns the Identity stored by the Auth middleware. The
// boolean is false when the middleware never ran on this request.
func CurrentIdentity(c echo.Context) (Identity, bool) {
	id, ok := c.Get(identityKey).(Identity)
	return id, ok
}
