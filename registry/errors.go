package registry

import (
	"errors"
	"fmt"

	"github.com/opencontainers/go-digest"
)

var (
	// ErrInvalidAPIRoute is returned when the URL of an operation cannot be built.
	// It is always returned before any request is sent.
	ErrInvalidAPIRoute = errors.New("invalid api route")

	// ErrInvalidDigest is returned when a requested digest is malformed.
	ErrInvalidDigest = errors.New("invalid blob digest")

	// ErrInvalidEndpointProperties is returned when the server or image name cannot address a repository.
	ErrInvalidEndpointProperties = errors.New("invalid registry endpoint properties")

	// ErrUnexpectedBlobDigest matches every *UnexpectedBlobDigestError.
	ErrUnexpectedBlobDigest = errors.New("unexpected blob digest")
)

// UnexpectedBlobDigestError is returned when the content received from the registry
// does not hash to the digest that was requested.
// Whatever was written to the destination must not be trusted.
type UnexpectedBlobDigestError struct {
	// Received is the digest computed over the received bytes.
	Received digest.Digest
	// Expected is the digest that was requested.
	Expected digest.Digest
	// Size is the number of bytes that were received.
	Size int64
}

func (e *UnexpectedBlobDigestError) Error() string {
	return fmt.Sprintf("the pulled BLOB has digest '%s', but the request digest was '%s'", e.Received, e.Expected)
}

func (e *UnexpectedBlobDigestError) Is(target error) bool {
	return target == ErrUnexpectedBlobDigest
}
