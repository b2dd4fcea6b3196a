// Package api is the serverless entrypoint: the platform invokes Handler for
// every request and the runtime is built once per instance.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"movie-favorites/internal/app"
	"movie-favorites/internal/config"
	"movie-favorites/internal/httpx"
)

var (
	initOnce   sync.Once
	apiRuntime *app.Runtime
	initErr    error
)

func Handler(w http.ResponseWriter, r *http.Request) {
	initOnce.Do(func() {
		cfg, err := serverlessConfig()
		if err != nil {
			slog.Error("load_config_failed", "error", err.Error())
			initErr = err
			return
		}
		apiRuntime, initErr = app.Build(context.Background(), cfg, app.NewLogger(cfg))
		if initErr != nil {
			slog.Error("bootstrap_failed", "error", initErr.Error())
		}
	})

	if initErr != nil {
		httpx.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "application bootstrap failed"})
		return
	}

	apiRuntime.Handler.ServeHTTP(w, r)
}

// serverlessConfig runs migrations only when RUN_MIGRATIONS_ON_STARTUP is set,
// since every cold start would otherwise apply them. The platform proxy always
// sets the forwarding headers.
func serverlessConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	cfg.Database.RunMigrations = cfg.Database.RunMigrationsOnStartup
	cfg.TrustProxyHeaders = true
	return cfg, nil
}
