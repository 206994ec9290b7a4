package verify

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/opencontainers/go-digest"
	"github.com/spf13/cobra"
	slogcontext "github.com/veqryn/slog-context"

	"ocm.software/open-component-model/distribution/blob"
)

const FlagDigest = "digest"

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <file>...",
		Short: "Verify previously pulled BLOBs against their digest",
		Args:  cobra.MinimumNArgs(1),
		Long: `Verify that local files still hold the content of the BLOBs they were pulled as.

Files written by the pull command are named <algorithm>-<hex>, and their digest is derived from the name.
For files with other names, the expected digest has to be given with the --digest flag.`,
		Example: `  # Verify all BLOBs in a pull output directory
  blobpull verify ./blobs/*

  # Verify a renamed file
  blobpull verify ./layer.tar --digest sha256:2c26b46b68ffc68ff99b453c1d30413413422d706483bfa0f98a5e886266e7ae`,
		RunE:              VerifyFiles,
		DisableAutoGenTag: true,
	}
	cmd.Flags().String(FlagDigest, "", "expected digest, only allowed with a single file")
	return cmd
}

func VerifyFiles(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := slogcontext.FromCtx(ctx)

	expected, err := cmd.Flags().GetString(FlagDigest)
	if err != nil {
		return fmt.Errorf("getting digest flag failed: %w", err)
	}
	if expected != "" && len(args) > 1 {
		return fmt.Errorf("--%s can only be used with a single file, got %d", FlagDigest, len(args))
	}

	var errs []error
	for _, path := range args {
		dgst, err := expectedDigest(path, expected)
		if err == nil {
			err = blob.Copy(io.Discard, blob.NewFileBlob(path, dgst))
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("verifying %s failed: %w", path, err))
			logger.ErrorContext(ctx, "verification failed", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		logger.InfoContext(ctx, "verified", slog.String("path", path), slog.String("digest", dgst.String()))
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: OK\n", path); err != nil {
			return err
		}
	}
	return errors.Join(errs...)
}

// expectedDigest returns the given digest, or derives it from a file name of the form <algorithm>-<hex>.
func expectedDigest(path, given string) (digest.Digest, error) {
	raw := given
	if raw == "" {
		algorithm, encoded, ok := strings.Cut(filepath.Base(path), "-")
		if !ok {
			return "", fmt.Errorf("cannot derive a digest from the file name %q, use --%s", filepath.Base(path), FlagDigest)
		}
		raw = algorithm + ":" + encoded
	}
	dgst, err := digest.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid digest %q: %w", raw, err)
	}
	return dgst, nil
}
