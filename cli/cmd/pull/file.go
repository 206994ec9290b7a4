package pull

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/opencontainers/go-digest"
	slogcontext "github.com/veqryn/slog-context"

	"ocm.software/open-component-model/distribution/blob"
	"ocm.software/open-component-model/distribution/registry"
)

const (
	StatusPulled = "pulled"
	StatusExists = "exists"
	StatusFailed = "failed"
)

// Result describes the outcome of pulling a single BLOB.
type Result struct {
	Digest digest.Digest `json:"digest"`
	Status string        `json:"status"`
	Size   int64         `json:"size"`
	Path   string        `json:"path,omitempty"`
	// MediaType is sniffed from the stored content, registries do not serve it for BLOBs.
	MediaType string `json:"mediaType,omitempty"`
	Duration  string `json:"duration"`
	Error     string `json:"error,omitempty"`

	err error
}

// FileName returns the name a verified BLOB is stored under.
func FileName(dgst digest.Digest) string {
	return dgst.Algorithm().String() + "-" + dgst.Encoded()
}

func pullToFile(ctx context.Context, client *registry.Client, dgst digest.Digest, dir string) Result {
	logger := slogcontext.FromCtx(ctx).With(slog.String("digest", dgst.String()))
	start := time.Now()
	target := filepath.Join(dir, FileName(dgst))
	res := Result{Digest: dgst, Path: target}

	size, status, err := pullIfMissing(ctx, client, dgst, target)
	res.Duration = time.Since(start).Round(time.Millisecond).String()
	if err != nil {
		res.Status, res.Path, res.Error, res.err = StatusFailed, "", err.Error(), err
		logger.ErrorContext(ctx, "pull failed", slog.String("error", err.Error()))
		return res
	}
	res.Status, res.Size = status, size
	if mime, err := mimetype.DetectFile(target); err == nil {
		res.MediaType = mime.String()
	}
	logger.InfoContext(ctx, "blob available", slog.String("status", status), slog.String("path", target), slog.Int64("size", size))
	return res
}

// pullIfMissing skips the download if target already holds the verified BLOB.
func pullIfMissing(ctx context.Context, client *registry.Client, dgst digest.Digest, target string) (int64, string, error) {
	if size, err := verifyExisting(target, dgst); err == nil {
		return size, StatusExists, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		slogcontext.FromCtx(ctx).WarnContext(ctx, "existing file does not match the digest, pulling again",
			slog.String("path", target), slog.String("error", err.Error()))
	}
	size, err := pullFile(ctx, client, dgst, target)
	if err != nil {
		return 0, "", err
	}
	return size, StatusPulled, nil
}

func verifyExisting(path string, dgst digest.Digest) (int64, error) {
	existing := blob.NewFileBlob(path, dgst)
	if err := blob.Copy(io.Discard, existing); err != nil {
		return 0, err
	}
	return existing.Size(), nil
}

// pullFile streams the BLOB into a temporary file next to target and renames it once verified.
// The temporary file is removed on every failure.
func pullFile(ctx context.Context, client *registry.Client, dgst digest.Digest, target string) (_ int64, err error) {
	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*.partial")
	if err != nil {
		return 0, fmt.Errorf("creating temporary file for %s failed: %w", dgst, err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rmErr := os.Remove(tmp.Name()); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			err = errors.Join(err, rmErr)
		}
	}()

	// PullBlob closes tmp on every path.
	if err := client.PullBlob(ctx, dgst, tmp); err != nil {
		return 0, err
	}

	info, err := os.Stat(tmp.Name())
	if err != nil {
		return 0, err
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return 0, fmt.Errorf("moving %s into place failed: %w", dgst, err)
	}
	return info.Size(), nil
}
