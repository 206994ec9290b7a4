package v1

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"sigs.k8s.io/yaml"

	"ocm.software/open-component-model/distribution/credentials"
)

const ConfigType = "blobpull.config/v1"

// Config holds the registry settings loaded from a configuration file.
type Config struct {
	Type       string     `json:"type"`
	Registries []Registry `json:"registries,omitempty"`
}

// Registry configures access to a single registry host.
type Registry struct {
	// Hostname is the registry host, including the port if it is not the default one.
	Hostname string `json:"hostname"`
	// PlainHTTP talks to the registry over http instead of https.
	PlainHTTP bool `json:"plainHTTP,omitempty"`
	// UserAgent overrides the User-Agent header of requests to the registry.
	UserAgent string `json:"userAgent,omitempty"`
	// Credentials are static credentials for the registry, keyed by the credentials.CredentialKey* constants.
	// If set, they take precedence over any docker config.
	Credentials map[string]string `json:"credentials,omitempty"`

	credentials.DockerConfig
}

var credentialKeys = []string{
	credentials.CredentialKeyUsername,
	credentials.CredentialKeyPassword,
	credentials.CredentialKeyAccessToken,
	credentials.CredentialKeyRefreshToken,
}

// New returns an empty configuration of ConfigType.
func New() *Config {
	return &Config{Type: ConfigType}
}

// Decode reads and validates a configuration from r.
func Decode(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading configuration failed: %w", err)
	}
	var cfg Config
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("decoding configuration failed: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the type marker and that every registry entry names a unique host.
func (c *Config) Validate() error {
	if c.Type != ConfigType {
		return fmt.Errorf("unsupported configuration type %q, expected %q", c.Type, ConfigType)
	}
	var errs []error
	seen := make(map[string]struct{}, len(c.Registries))
	for i, r := range c.Registries {
		if r.Hostname == "" {
			errs = append(errs, fmt.Errorf("registry entry %d has no hostname", i))
			continue
		}
		if _, ok := seen[r.Hostname]; ok {
			errs = append(errs, fmt.Errorf("registry %q is configured more than once", r.Hostname))
		}
		seen[r.Hostname] = struct{}{}
		for key := range r.Credentials {
			if !slices.Contains(credentialKeys, key) {
				errs = append(errs, fmt.Errorf("registry %q has unknown credential key %q", r.Hostname, key))
			}
		}
	}
	return errors.Join(errs...)
}

// Lookup returns the entry configured for hostname.
func (c *Config) Lookup(hostname string) (Registry, bool) {
	if c == nil {
		return Registry{}, false
	}
	idx := slices.IndexFunc(c.Registries, func(r Registry) bool {
		return r.Hostname == hostname
	})
	if idx < 0 {
		return Registry{}, false
	}
	return c.Registries[idx], true
}

// Merge combines configs into a single configuration.
// The configurations are merged in the order they are provided, so an entry for a
// hostname in a later configuration replaces the entry of any preceding one.
// Nil configurations are skipped.
func Merge(configs ...*Config) *Config {
	merged := New()
	for _, cfg := range configs {
		if cfg == nil {
			continue
		}
		for _, r := range cfg.Registries {
			if idx := slices.IndexFunc(merged.Registries, func(existing Registry) bool {
				return existing.Hostname == r.Hostname
			}); idx >= 0 {
				merged.Registries[idx] = r
				continue
			}
			merged.Registries = append(merged.Registries, r)
		}
	}
	return merged
}
