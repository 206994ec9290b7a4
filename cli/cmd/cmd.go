package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"ocm.software/open-component-model/distribution/cli/cmd/configuration"
	"ocm.software/open-component-model/distribution/cli/cmd/pull"
	"ocm.software/open-component-model/distribution/cli/cmd/setup/hooks"
	"ocm.software/open-component-model/distribution/cli/cmd/verify"
	"ocm.software/open-component-model/distribution/cli/cmd/version"
	"ocm.software/open-component-model/distribution/cli/internal/flags/log"
)

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := New().Execute(); err != nil {
		os.Exit(1)
	}
}

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blobpull [sub-command]",
		Short: "Pull and verify BLOBs from OCI distribution registries",
		Long: `blobpull downloads BLOBs by digest from registries implementing the OCI distribution API.
Every BLOB is verified against its digest while it is streamed to disk,
content that does not match is never left behind.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: hooks.PreRunE,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}

	configuration.RegisterConfigFlag(cmd)
	log.RegisterLoggingFlags(cmd.PersistentFlags())
	cmd.AddCommand(pull.New())
	cmd.AddCommand(verify.New())
	cmd.AddCommand(version.New())
	return cmd
}
