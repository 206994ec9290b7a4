// Package setup initializes the shared state of blobpull commands before they run.
package setup

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	slogcontext "github.com/veqryn/slog-context"

	"ocm.software/open-component-model/distribution/cli/cmd/configuration"
	clictx "ocm.software/open-component-model/distribution/cli/internal/context"
	"ocm.software/open-component-model/distribution/cli/internal/flags/log"
)

// Logger installs the logger configured by the logging flags as the default logger
// and attaches it to the command context, where the library packages pick it up.
func Logger(cmd *cobra.Command) error {
	logger, err := log.GetBaseLogger(cmd)
	if err != nil {
		return fmt.Errorf("could not retrieve logger: %w", err)
	}
	slog.SetDefault(logger)
	cmd.SetContext(slogcontext.NewCtx(cmd.Context(), logger))
	return nil
}

// Config loads the configuration of the command into the command context.
func Config(cmd *cobra.Command) error {
	cfg, err := configuration.GetConfigForCommand(cmd)
	if err != nil {
		return fmt.Errorf("could not get configuration: %w", err)
	}
	slog.DebugContext(cmd.Context(), "configuration loaded", slog.Int("registries", len(cfg.Registries)))
	cmd.SetContext(clictx.WithConfiguration(cmd.Context(), cfg))
	return nil
}
