package registry

import (
	"fmt"

	"oras.land/oras-go/v2/registry"
)

// EndpointProperties identifies the repository of a registry an operation is run against.
type EndpointProperties struct {
	// ServerURL is the registry host, optionally with a port, such as "ghcr.io" or "localhost:5000".
	ServerURL string
	// ImageName is the repository name within the registry, such as "library/alpine".
	ImageName string
}

// Validate checks that the server and image name form a valid OCI repository address.
func (p EndpointProperties) Validate() error {
	if p.ServerURL == "" {
		return fmt.Errorf("%w: missing server", ErrInvalidEndpointProperties)
	}
	ref := registry.Reference{
		Registry:   p.ServerURL,
		Repository: p.ImageName,
	}
	if err := ref.ValidateRegistry(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEndpointProperties, err)
	}
	if err := ref.ValidateRepository(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEndpointProperties, err)
	}
	return nil
}

func (p EndpointProperties) String() string {
	return p.ServerURL + "/" + p.ImageName
}

// ParseEndpointProperties parses a reference such as "localhost:5000/library/alpine"
// or "ghcr.io/org/repo@sha256:...". The tag or digest of the reference, if any,
// is returned as the second value.
func ParseEndpointProperties(reference string) (EndpointProperties, string, error) {
	ref, err := registry.ParseReference(reference)
	if err != nil {
		return EndpointProperties{}, "", fmt.Errorf("%w: %w", ErrInvalidEndpointProperties, err)
	}
	return EndpointProperties{
		ServerURL: ref.Registry,
		ImageName: ref.Repository,
	}, ref.Reference, nil
}
