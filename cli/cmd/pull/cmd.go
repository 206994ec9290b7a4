package pull

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"slices"
	"strings"

	"github.com/opencontainers/go-digest"
	"github.com/spf13/cobra"
	slogcontext "github.com/veqryn/slog-context"
	"golang.org/x/sync/errgroup"
	"oras.land/oras-go/v2/registry/remote"

	v1 "ocm.software/open-component-model/distribution/cli/configuration/v1"
	clictx "ocm.software/open-component-model/distribution/cli/internal/context"
	"ocm.software/open-component-model/distribution/cli/internal/flags/enum"
	"ocm.software/open-component-model/distribution/credentials"
	"ocm.software/open-component-model/distribution/registry"
)

const (
	FlagOutputDir   = "output-dir"
	FlagPlainHTTP   = "plain-http"
	FlagUserAgent   = "user-agent"
	FlagConcurrency = "concurrency"
	FlagFailFast    = "fail-fast"
	FlagOutput      = "output"

	DefaultUserAgent = "blobpull"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pull {<server>/<image>[@<digest>]} [<digest>...]",
		Short: "Pull BLOBs from an OCI registry and verify their content",
		Args:  cobra.MinimumNArgs(1),
		Long: `Pull one or more BLOBs of a repository from an OCI distribution registry.

Every BLOB is streamed into a temporary file in the output directory while its digest is computed.
Only if the computed digest matches the requested one, the file is renamed to <algorithm>-<hex>.
BLOBs that fail to download or verify leave no file behind.

Registry settings such as plain HTTP, the user agent and the docker config used for credentials
are taken from the configuration file entry of the registry host. Flags override the configuration.`,
		Example: `  # Pull a single BLOB into the current directory
  blobpull pull ghcr.io/org/image@sha256:2c26b46b68ffc68ff99b453c1d30413413422d706483bfa0f98a5e886266e7ae

  # Pull several BLOBs of a repository from a local registry in parallel
  blobpull pull localhost:5000/org/image sha256:aaaa... sha256:bbbb... --plain-http --output-dir ./blobs -o json`,
		RunE:              PullBlobs,
		DisableAutoGenTag: true,
	}

	cmd.Flags().String(FlagOutputDir, ".", "directory to write the pulled BLOBs to, created if it does not exist")
	cmd.Flags().Bool(FlagPlainHTTP, false, "use plain http instead of https to talk to the registry")
	cmd.Flags().String(FlagUserAgent, "", "User-Agent header sent to the registry (default \""+DefaultUserAgent+"\")")
	cmd.Flags().Int(FlagConcurrency, 4, "maximum number of BLOBs pulled at the same time")
	cmd.Flags().Bool(FlagFailFast, false, "cancel all outstanding pulls after the first failure")
	enum.VarP(cmd.Flags(), FlagOutput, "o", []string{"table", "json", "yaml"}, "output format of the pull summary")

	return cmd
}

func PullBlobs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := slogcontext.FromCtx(ctx)

	outputDir, err := cmd.Flags().GetString(FlagOutputDir)
	if err != nil {
		return fmt.Errorf("getting output directory flag failed: %w", err)
	}
	concurrency, err := cmd.Flags().GetInt(FlagConcurrency)
	if err != nil {
		return fmt.Errorf("getting concurrency flag failed: %w", err)
	}
	if concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", concurrency)
	}
	failFast, err := cmd.Flags().GetBool(FlagFailFast)
	if err != nil {
		return fmt.Errorf("getting fail-fast flag failed: %w", err)
	}
	output, err := enum.Get(cmd.Flags(), FlagOutput)
	if err != nil {
		return fmt.Errorf("getting output flag failed: %w", err)
	}

	properties, ref, err := registry.ParseEndpointProperties(args[0])
	if err != nil {
		return err
	}
	digests, err := collectDigests(ref, args[1:])
	if err != nil {
		return err
	}

	client, err := newClient(cmd, properties)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory failed: %w", err)
	}

	results := make([]Result, len(digests))
	eg, pullCtx := new(errgroup.Group), ctx
	if failFast {
		eg, pullCtx = errgroup.WithContext(ctx)
	}
	eg.SetLimit(concurrency)
	for i, dgst := range digests {
		eg.Go(func() error {
			results[i] = pullToFile(pullCtx, client, dgst, outputDir)
			if results[i].err != nil && failFast {
				return results[i].err
			}
			return nil
		})
	}
	// errors are collected per result, Wait only reports the first one with fail-fast
	_ = eg.Wait()

	var errs []error
	for _, res := range results {
		if res.err != nil {
			errs = append(errs, res.err)
		}
	}
	logger.InfoContext(ctx, "pull finished",
		slog.String("reference", properties.String()),
		slog.Int("requested", len(digests)),
		slog.Int("failed", len(errs)),
	)

	encoded, err := encodeResults(output, results)
	if err != nil {
		return errors.Join(append(errs, err)...)
	}
	if _, err := io.Copy(cmd.OutOrStdout(), encoded); err != nil {
		errs = append(errs, fmt.Errorf("writing pull summary failed: %w", err))
	}
	return errors.Join(errs...)
}

// collectDigests returns the requested digests in order, without duplicates.
// ref is the tag or digest part of the reference and only counts if it is a digest.
func collectDigests(ref string, args []string) ([]digest.Digest, error) {
	var candidates []string
	if ref != "" {
		if !strings.Contains(ref, ":") {
			return nil, fmt.Errorf("reference must not carry a tag, got %q: BLOBs can only be pulled by digest", ref)
		}
		candidates = append(candidates, ref)
	}
	candidates = append(candidates, args...)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no digest given: pass it as <server>/<image>@<digest> or as additional argument")
	}

	var digests []digest.Digest
	for _, c := range candidates {
		dgst, err := digest.Parse(c)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", registry.ErrInvalidDigest, c, err)
		}
		if !slices.Contains(digests, dgst) {
			digests = append(digests, dgst)
		}
	}
	return digests, nil
}

func newClient(cmd *cobra.Command, properties registry.EndpointProperties) (*registry.Client, error) {
	ctx := cmd.Context()
	cliCtx := clictx.FromContext(ctx)

	entry, found := cliCtx.Configuration().Lookup(properties.ServerURL)
	if !found {
		entry = v1.Registry{Hostname: properties.ServerURL}
	}
	if cmd.Flags().Changed(FlagPlainHTTP) {
		plainHTTP, err := cmd.Flags().GetBool(FlagPlainHTTP)
		if err != nil {
			return nil, fmt.Errorf("getting plain-http flag failed: %w", err)
		}
		entry.PlainHTTP = plainHTTP
	}
	if userAgent, err := cmd.Flags().GetString(FlagUserAgent); err != nil {
		return nil, fmt.Errorf("getting user-agent flag failed: %w", err)
	} else if userAgent != "" {
		entry.UserAgent = userAgent
	}
	if entry.UserAgent == "" {
		entry.UserAgent = DefaultUserAgent
	}

	var transport remote.Client = cliCtx.Transport()
	if transport == nil {
		var err error
		if transport, err = newTransport(ctx, entry); err != nil {
			return nil, err
		}
	}

	return registry.NewClient(properties,
		registry.WithTransport(transport),
		registry.WithPlainHTTP(entry.PlainHTTP),
		registry.WithUserAgent(entry.UserAgent),
	)
}

// newTransport picks the credentials for entry. Static credentials of the entry come first,
// then a docker config named by the entry, resolved once for the host. Without either, the
// default docker locations and native credential helpers are asked on every request.
func newTransport(ctx context.Context, entry v1.Registry) (remote.Client, error) {
	creds := entry.Credentials
	if len(creds) == 0 && (entry.DockerConfigFile != "" || entry.DockerConfig.DockerConfig != "") {
		resolved, err := credentials.ResolveDockerConfigCredentials(ctx, entry.DockerConfig, entry.Hostname)
		if err != nil {
			return nil, fmt.Errorf("could not resolve credentials for %q: %w", entry.Hostname, err)
		}
		creds = resolved
	}
	if len(creds) > 0 {
		hostname, port, err := net.SplitHostPort(entry.Hostname)
		if err != nil {
			hostname, port = entry.Hostname, ""
		}
		return credentials.NewStaticTransport(hostname, port, creds, entry.UserAgent), nil
	}

	store, err := credentials.NewStore(ctx, entry.DockerConfig)
	if err != nil {
		return nil, fmt.Errorf("could not create credential store for %q: %w", entry.Hostname, err)
	}
	return credentials.NewTransport(store, entry.UserAgent), nil
}
