// Package command contains the CLI command constructors.
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"movie-favorites/internal/app"
	"movie-favorites/internal/config"
)

type runtimeKey struct{}

type cliRuntime struct {
	cfg    config.Config
	logger *slog.Logger
}

// RootCommand instantiates the root command with all sub-commands bound.
// Running it without a sub-command serves the API.
func RootCommand() *cobra.Command {
	serve := serveCommand()

	cmd := &cobra.Command{
		Use:          "movie-favorites [command]",
		Short:        "Movie search proxy and favorites API",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Each command validates the part of the configuration it uses.
			cfg := config.Read()
			logger := app.NewLogger(cfg)
			cmd.SetContext(context.WithValue(cmd.Context(), runtimeKey{}, cliRuntime{cfg: cfg, logger: logger}))
			return nil
		},
		RunE: serve.RunE,
	}

	cmd.AddCommand(
		serve,
		migrateCommand(),
	)

	return cmd
}

func runtimeFrom(ctx context.Context, validate func(config.Config) error) (cliRuntime, error) {
	rt, ok := ctx.Value(runtimeKey{}).(cliRuntime)
	if !ok {
		return cliRuntime{}, errors.New("configuration not loaded")
	}
	if err := validate(rt.cfg); err != nil {
		return cliRuntime{}, fmt.Errorf("load configuration: %w", err)
	}
	return rt, nil
}
