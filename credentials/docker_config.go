package credentials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"

	"oras.land/oras-go/v2/registry/remote/auth"
	remotecredentials "oras.land/oras-go/v2/registry/remote/credentials"

	"ocm.software/open-component-model/distribution/internal/log"
)

// CredentialKey constants define the standard keys used in credential maps.
const (
	// CredentialKeyUsername is the key for storing username credentials
	CredentialKeyUsername = "username"
	// CredentialKeyPassword is the key for storing password credentials
	CredentialKeyPassword = "password"
	// CredentialKeyAccessToken is the key for storing access token credentials
	CredentialKeyAccessToken = "accessToken"
	// CredentialKeyRefreshToken is the key for storing refresh token credentials
	CredentialKeyRefreshToken = "refreshToken"
)

// DockerConfig selects where Docker credentials are read from.
// If both fields are empty, the default Docker locations and the native host store are used.
type DockerConfig struct {
	// DockerConfigFile is the path to a Docker config.json. "~" is expanded to the home directory.
	DockerConfigFile string `json:"dockerConfigFile,omitempty"`
	// DockerConfig is an inline Docker config.json document.
	DockerConfig string `json:"dockerConfig,omitempty"`
}

// CredentialFunc creates a function that returns credentials based on host and port matching.
// It can be used with the oras client for authentication.
//
// The returned function will:
//   - Return the provided credentials if the host and port match (an empty hostname or port matches any)
//   - Return empty credentials if there's a mismatch
//   - Return an error if the hostport string is invalid
//
// A hostport without a port, as sent for registries on their default port, only has its host compared.
func CredentialFunc(hostname, port string, credentials map[string]string) auth.CredentialFunc {
	credential := auth.Credential{}
	if v, ok := credentials[CredentialKeyUsername]; ok {
		credential.Username = v
	}
	if v, ok := credentials[CredentialKeyPassword]; ok {
		credential.Password = v
	}
	if v, ok := credentials[CredentialKeyAccessToken]; ok {
		credential.AccessToken = v
	}
	if v, ok := credentials[CredentialKeyRefreshToken]; ok {
		credential.RefreshToken = v
	}

	return func(ctx context.Context, hostport string) (auth.Credential, error) {
		actualHost, actualPort, err := net.SplitHostPort(hostport)
		if err != nil {
			var addrErr *net.AddrError
			if !errors.As(err, &addrErr) || addrErr.Err != "missing port in address" {
				return auth.Credential{}, fmt.Errorf("failed to split host and port: %w", err)
			}
			actualHost, actualPort = hostport, ""
		}
		hostMismatch := hostname != "" && hostname != actualHost
		portMismatch := port != "" && port != actualPort
		if hostMismatch || portMismatch {
			return auth.EmptyCredential, nil
		}
		return credential, nil
	}
}

// ResolveDockerConfigCredentials resolves credentials from a Docker configuration
// for a given registry hostname (optionally including a port).
func ResolveDockerConfigCredentials(ctx context.Context, dockerConfig DockerConfig, hostname string) (map[string]string, error) {
	if hostname == "" {
		return nil, fmt.Errorf("missing hostname to resolve credentials for")
	}

	credStore, err := NewStore(ctx, dockerConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve credentials store: %w", err)
	}

	cred, err := credStore.Get(ctx, hostname)
	if err != nil {
		return nil, fmt.Errorf("failed to get credentials for %q: %w", hostname, err)
	}
	credentialMap := map[string]string{}
	if v := cred.Username; v != "" {
		credentialMap[CredentialKeyUsername] = v
	}
	if v := cred.Password; v != "" {
		credentialMap[CredentialKeyPassword] = v
	}
	if v := cred.AccessToken; v != "" {
		credentialMap[CredentialKeyAccessToken] = v
	}
	if v := cred.RefreshToken; v != "" {
		credentialMap[CredentialKeyRefreshToken] = v
	}

	return credentialMap, nil
}

// NewStore creates a credential store based on the provided Docker configuration.
// It supports three modes of operation:
//   - Default mode: Uses system default Docker config locations
//   - Inline config: Uses a provided JSON configuration string
//   - File-based: Uses a specified Docker config file
func NewStore(ctx context.Context, dockerConfig DockerConfig) (remotecredentials.Store, error) {
	switch {
	case dockerConfig.DockerConfigFile == "" && dockerConfig.DockerConfig == "":
		return createDefaultStore(ctx)
	case dockerConfig.DockerConfig != "":
		return createInlineConfigStore(ctx, dockerConfig.DockerConfig)
	default:
		return createFileBasedStore(ctx, dockerConfig.DockerConfigFile)
	}
}

// createDefaultStore creates a credential store using system default Docker config locations
// and attempts to use the native host credential store if available.
func createDefaultStore(ctx context.Context) (remotecredentials.Store, error) {
	log.Base(ctx).DebugContext(ctx, "attempting to load docker config from default locations or native host store")
	store, err := remotecredentials.NewStoreFromDocker(remotecredentials.StoreOptions{
		DetectDefaultNativeStore: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create default docker config store: %w", err)
	}
	return wrapWithLogging(store, sourceDefault), nil
}

func createInlineConfigStore(ctx context.Context, config string) (remotecredentials.Store, error) {
	log.Base(ctx).DebugContext(ctx, "using docker config from inline config")
	store, err := remotecredentials.NewMemoryStoreFromDockerConfig([]byte(config))
	if err != nil {
		return nil, fmt.Errorf("failed to create inline config store: %w", err)
	}
	return wrapWithLogging(store, sourceInline), nil
}

// createFileBasedStore creates a credential store from a specified Docker config file.
// A missing file counts as an empty store.
func createFileBasedStore(ctx context.Context, configPath string) (remotecredentials.Store, error) {
	log.Base(ctx).DebugContext(ctx, "using docker config from file", slog.String("file", configPath))

	expandedPath, err := expandConfigPath(configPath)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(expandedPath); err != nil {
		log.Base(ctx).WarnContext(ctx, "failed to find docker config file, thus the config will not offer any credentials", slog.String("path", expandedPath))
	}

	store, err := remotecredentials.NewStore(expandedPath, remotecredentials.StoreOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create file-based config store: %w", err)
	}
	return wrapWithLogging(store, sourceFile), nil
}

// expandConfigPath expands a leading "~" to the home directory of the user.
func expandConfigPath(path string) (string, error) {
	if rest, ok := strings.CutPrefix(path, "~"); ok {
		dirname, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		return dirname + rest, nil
	}
	return path, nil
}
