package command

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"movie-favorites/internal/app"
	"movie-favorites/internal/config"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "serve the HTTP API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (runErr error) {
			rt, err := runtimeFrom(cmd.Context(), config.Config.Validate)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			runtime, err := app.Build(ctx, rt.cfg, rt.logger)
			if err != nil {
				rt.logger.Error("bootstrap_failed", "error", err.Error())
				return err
			}
			defer func() {
				if err := runtime.Close(); err != nil {
					runErr = errors.Join(runErr, fmt.Errorf("close runtime: %w", err))
				}
			}()

			srv := &http.Server{
				Addr:              rt.cfg.Addr(),
				Handler:           runtime.Handler,
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       10 * time.Second,
				WriteTimeout:      rt.cfg.Movie.Timeout + 10*time.Second,
				IdleTimeout:       120 * time.Second,
			}

			serveErr := make(chan error, 1)
			go func() {
				rt.logger.Info("server_start", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()

			select {
			case err := <-serveErr:
				if err != nil {
					rt.logger.Error("server_failed", "error", err.Error())
					return err
				}
				return nil
			case <-ctx.Done():
			}

			rt.logger.Info("server_shutdown", "grace_period", rt.cfg.ShutdownGracePeriod.String())
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rt.cfg.ShutdownGracePeriod)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				rt.logger.Error("server_forced_shutdown", "error", err.Error())
				return err
			}

			rt.logger.Info("server_stopped")
			return nil
		},
	}
}
