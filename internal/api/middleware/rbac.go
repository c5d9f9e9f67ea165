package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/accounts/auth-api/internal/api/metrics"
	"github.com/accounts/auth-api/internal/core/domain"
)

// RBAC enforces role-based access control against the identity resolved by
// Auth. With no roles declared, any authenticated caller passes.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, ok := CurrentIdentity(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
			}

			if len(allowed) == 0 {
				return next(c)
			}

			if _, ok := allowed[identity.Role]; !ok {
				metrics.AuthRejectionsTotal.WithLabelValues("forbidden").Inc()
				return echo.NewHTTPError(http.StatusForbidden, "Forbidden")
			}
			return next(c)
		}
	}
}
