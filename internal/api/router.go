package api

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"

	_ "github.com/accounts/auth-api/docs"
	"github.com/accounts/auth-api/internal/api/handler"
	"github.com/accounts/auth-api/internal/api/middleware"
	"github.com/accounts/auth-api/internal/core/domain"
	"github.com/accounts/auth-api/internal/core/ports"
	"github.com/accounts/auth-api/internal/infrastructure/http/handlers"
)

// Dependencies bundles everything the router needs. All components are
// constructed explicitly at startup and passed in; nothing is looked up from
// ambient state.
type Dependencies struct {
	AuthService ports.AuthService
	UserService ports.UserService
	Tokens      ports.TokenIssuer
	Pool        *pgxpool.Pool
	Logger      zerolog.Logger
	// Registerer receives the HTTP metrics collectors. Defaults to the global
	// Prometheus registry; tests inject their own to avoid double registration.
	Registerer prometheus.Registerer
}

// routePolicy declares, per operation, whether it is public and which roles
// may call it. An empty role set on a protected route admits any
// authenticated caller. The table replaces per-handler metadata: access rules
// live in one place and the guards consume them at wiring time.
type routePolicy struct {
	method  string
	path    string
	handler echo.HandlerFunc
	public  bool
	roles   []domain.Role
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())

	registerer := deps.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "auth",
		Registerer: registerer,
	}))

	// --- Handlers and guards ---
	authHandler := handler.NewAuthHandler(deps.AuthService)
	userHandler := handler.NewUserHandler(deps.UserService)
	authGuard := middleware.Auth(deps.Tokens, deps.UserService)

	policies := []routePolicy{
		{method: echo.POST, path: "/auth/register", handler: authHandler.Register, public: true},
		{method: echo.POST, path: "/auth/login", handler: authHandler.Login, public: true},
		{method: echo.POST, path: "/auth/refresh", handler: authHandler.Refresh, public: true},
		{method: echo.POST, path: "/auth/logout", handler: authHandler.Logout},

		{method: echo.GET, path: "/users/profile", handler: userHandler.GetProfile},
		{method: echo.PUT, path: "/users/profile", handler: userHandler.UpdateProfile},
		{method: echo.PUT, path: "/users/change-password", handler: userHandler.ChangePassword},
		{method: echo.GET, path: "/users", handler: userHandler.List, roles: []domain.Role{domain.RoleAdmin}},
		{method: echo.GET, path: "/users/:id", handler: userHandler.GetByID, roles: []domain.Role{domain.RoleAdmin}},
		{method: echo.DELETE, path: "/users/:id", handler: userHandler.Delete, roles: []domain.Role{domain.RoleAdmin}},
	}

	v1 := e.Group("/api/v1")
	for _, p := range policies {
		if p.public {
			v1.Add(p.method, p.path, p.handler)
			continue
		}
		v1.Add(p.method, p.path, p.handler, authGuard, middleware.RBAC(p.roles...))
	}

	// --- Operational endpoints (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.Pool)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e
}
