package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"movie-favorites/internal/auth"
	"movie-favorites/internal/config"
	"movie-favorites/internal/db"
	"movie-favorites/internal/favorite"
	"movie-favorites/internal/movie"
	"movie-favorites/internal/observability"
)

const ServiceName = "movie-favorites"

type Runtime struct {
	Handler http.Handler
	Close   func() error
}

// NewLogger builds the process logger from cfg.
func NewLogger(cfg config.Config) *slog.Logger {
	return observability.NewLogger(observability.LogConfig{
		Service: ServiceName,
		Env:     cfg.AppEnv,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
}

// Build opens every collaborator described by cfg and returns the HTTP
// handler. The caller owns Close.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Runtime, error) {
	if err := observability.InitSentry(cfg.SentryDSN, cfg.AppEnv); err != nil {
		logger.Error("init_sentry_failed", "error", err.Error())
	}

	database, err := OpenDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Database.RunMigrations {
		if err := db.RunMigrations(ctx, database); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("migrations_applied")
	}

	tokens, err := auth.NewTokenCodec(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("init token codec: %w", err)
	}

	hasher, err := auth.NewSchemeHasher(cfg.Auth.PasswordHash, auth.NewArgon2Hasher(), auth.NewBcryptHasher())
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("init password hasher: %w", err)
	}

	authService, err := auth.NewService(auth.NewRepository(database), hasher, tokens)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("init auth service: %w", err)
	}

	catalog, err := movie.NewTMDB(cfg.Movie.BaseURL, cfg.Movie.APIKey, cfg.Movie.Timeout)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("init movie client: %w", err)
	}

	handler := NewRouter(Deps{
		Logger:         logger,
		Auth:           auth.NewHandler(authService),
		Tokens:         tokens,
		AuthLimiter:    auth.NewRateLimiter(cfg.Auth.RateLimitMax, cfg.Auth.RateLimitWindow),
		Favorites:      favorite.NewHandler(favorite.NewRepository(database)),
		Movies:         movie.NewHandler(catalog),
		Health:         database,
		AllowedOrigins: cfg.CORSAllowedOrigins,

		TrustProxyHeaders: cfg.TrustProxyHeaders,
	})

	return &Runtime{
		Handler: handler,
		Close: func() error {
			observability.FlushSentry()
			return database.Close()
		},
	}, nil
}

func OpenDatabase(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	return db.Open(ctx, cfg.Database.Driver, cfg.Database.URL, db.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	})
}
