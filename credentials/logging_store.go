package credentials

import (
	"context"
	"log/slog"

	"oras.land/oras-go/v2/registry/remote/auth"
	remotecredentials "oras.land/oras-go/v2/registry/remote/credentials"

	"ocm.software/open-component-model/distribution/internal/log"
)

// Credential sources reported by the logging store.
const (
	sourceDefault = "default"
	sourceInline  = "inline"
	sourceFile    = "file"
)

// wrapWithLogging reports every lookup of store on the logger of the lookup context.
// Secrets are never logged, only which kinds of credential were found.
func wrapWithLogging(store remotecredentials.Store, source string) remotecredentials.Store {
	return &loggingStore{Store: store, source: source}
}

type loggingStore struct {
	remotecredentials.Store
	source string
}

func (l *loggingStore) Get(ctx context.Context, serverAddress string) (auth.Credential, error) {
	logger := log.Base(ctx).With(slog.String("source", l.source), slog.String("serverAddress", serverAddress))
	logger.DebugContext(ctx, "resolving credentials")
	credential, err := l.Store.Get(ctx, serverAddress)

	switch {
	case err != nil:
		logger.ErrorContext(ctx, "credential lookup failed", slog.String("error", err.Error()))
	case credential != auth.EmptyCredential:
		logger.DebugContext(ctx, "credential found",
			slog.String("username", credential.Username),
			slog.Bool("password", credential.Password != ""),
			slog.Bool("accessToken", credential.AccessToken != ""),
			slog.Bool("refreshToken", credential.RefreshToken != ""),
		)
	default:
		logger.DebugContext(ctx, "no credential found")
	}

	return credential, err
}
