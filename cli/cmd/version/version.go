package version

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"ocm.software/open-component-model/distribution/cli/internal/flags/enum"
)

const (
	FlagFormat                = "format"
	FlagFormatShortHand       = "f"
	FlagFormatJSON            = "json"
	FlagFormatGoBuildInfo     = "gobuildinfo"
	FlagFormatGoBuildInfoJSON = "gobuildinfojson"
)

// BuildVersion can be set at build time to override the module version of the build info:
//
//	-ldflags "-X ocm.software/open-component-model/distribution/cli/cmd/version.BuildVersion=1.2.3"
var BuildVersion = "n/a"

// readBuildInfo is replaced in tests.
var readBuildInfo = debug.ReadBuildInfo

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Retrieve the build version of blobpull",
		Long: fmt.Sprintf(`The version command retrieves the build version of blobpull.

With the default format %[1]q the version is split into its semantic version components.
Build date and commit are derived from the pre-release part of pseudo versions.

The format %[2]q prints the Go build information as text, %[3]q prints it as JSON.`,
			FlagFormatJSON, FlagFormatGoBuildInfo, FlagFormatGoBuildInfoJSON),
		Example: fmt.Sprintf(`blobpull version --format %s`, FlagFormatJSON),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := enum.Get(cmd.Flags(), FlagFormat)
			if err != nil {
				return err
			}
			bi, ok := readBuildInfo()
			if !ok {
				return fmt.Errorf("no build info available")
			}
			if BuildVersion != "n/a" {
				bi.Main.Version = BuildVersion
			}
			switch format {
			case FlagFormatJSON:
				return json.NewEncoder(cmd.OutOrStdout()).Encode(GetVersionInfo(bi))
			case FlagFormatGoBuildInfo:
				_, err = io.Copy(cmd.OutOrStdout(), strings.NewReader(bi.String()))
				return err
			case FlagFormatGoBuildInfoJSON:
				return json.NewEncoder(cmd.OutOrStdout()).Encode(bi)
			default:
				return fmt.Errorf("unknown format %q", format)
			}
		},
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}

	enum.VarP(cmd.Flags(), FlagFormat, FlagFormatShortHand, []string{
		FlagFormatJSON,
		FlagFormatGoBuildInfo,
		FlagFormatGoBuildInfoJSON,
	}, "format of the version output")
	return cmd
}
