package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/accounts/auth-api/internal/api"
	"github.com/accounts/auth-api/internal/core/service"
	"github.com/accounts/auth-api/internal/infrastructure/config"
	"github.com/accounts/auth-api/internal/infrastructure/db/postgres"
	"github.com/accounts/auth-api/pkg/logger"
)

// @title           Auth API
// @version         1.0
// @description     User-account and session-authentication backend.
// @BasePath        /api/v1
//
// @securityDefinitions.apikey BearerAuth
// @in   header
// @name Authorization
func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.Connect(ctx, postgres.Config{
		DSN:      cfg.Postgres.DSN,
		MaxConns: cfg.Postgres.MaxConns,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection failed")
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	userRepo := postgres.NewUserRepository(pool)
	userService := service.NewUserService(userRepo, cfg.Bcrypt.Cost, log)
	tokenService := service.NewTokenService(
		cfg.JWT.AccessSecret, cfg.JWT.AccessTTL,
		cfg.JWT.RefreshSecret, cfg.JWT.RefreshTTL,
	)
	authService := service.NewAuthService(userService, tokenService, log)

	e := api.NewRouter(api.Dependencies{
		AuthService: authService,
		UserService: userService,
		Tokens:      tokenService,
		Pool:        pool,
		Logger:      log,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server start failed")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server started")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}
