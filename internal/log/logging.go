// Package log holds the structured logging helpers shared by the registry client packages.
package log

import (
	"context"
	"log/slog"
	"time"

	ociImageSpecV1 "github.com/opencontainers/image-spec/specs-go/v1"
	slogcontext "github.com/veqryn/slog-context"
)

// Realm is attached to every record emitted through this package.
const Realm = "distribution"

// Base returns the logger stored in ctx (or the default logger) scoped to the realm.
func Base(ctx context.Context) *slog.Logger {
	return slogcontext.FromCtx(ctx).With(slog.String("realm", Realm))
}

// Operation is a helper function to log operations with timing and error handling.
func Operation(ctx context.Context, operation string, fields ...slog.Attr) func(error) {
	start := time.Now()
	attrs := make([]any, 0, len(fields)+1)
	attrs = append(attrs, slog.String("operation", operation))
	for _, field := range fields {
		attrs = append(attrs, field)
	}
	logger := Base(ctx).With(attrs...)
	logger.Log(ctx, slog.LevelDebug, "operation starting")
	return func(err error) {
		if err != nil {
			logger.Log(ctx, slog.LevelError, "operation failed", slog.Duration("duration", time.Since(start)), slog.String("error", err.Error()))
		} else {
			logger.Log(ctx, slog.LevelDebug, "operation completed", slog.Duration("duration", time.Since(start)))
		}
	}
}

// DescriptorLogAttr creates a log attribute for an OCI descriptor.
func DescriptorLogAttr(descriptor ociImageSpecV1.Descriptor) slog.Attr {
	args := []any{
		slog.String("digest", descriptor.Digest.String()),
		slog.Int64("size", descriptor.Size),
	}
	if descriptor.MediaType != "" {
		args = append(args, slog.String("mediaType", descriptor.MediaType))
	}
	return slog.Group("descriptor", args...)
}

// EndpointLogAttr creates a log attribute for the registry endpoint an operation is run against.
func EndpointLogAttr(server, image string) slog.Attr {
	return slog.Group("endpoint", slog.String("server", server), slog.String("image", image))
}
