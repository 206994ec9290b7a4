package hooks

import (
	"github.com/spf13/cobra"

	"ocm.software/open-component-model/distribution/cli/cmd/setup"
	clictx "ocm.software/open-component-model/distribution/cli/internal/context"
)

// PreRunE prepares logging, configuration and the CLI context for every subcommand.
func PreRunE(cmd *cobra.Command, _ []string) error {
	clictx.Register(cmd)
	if err := setup.Logger(cmd); err != nil {
		return err
	}
	return setup.Config(cmd)
}
