package registry

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/opencontainers/go-digest"
	ociImageSpecV1 "github.com/opencontainers/image-spec/specs-go/v1"

	"ocm.software/open-component-model/distribution/blob"
)

// BlobPuller pulls an image's BLOB (layer or container configuration).
//
// The puller owns its destination from construction on and closes it exactly once:
// at the end of HandleResponse, or through Close if the response is never handled.
// A BlobPuller is meant to be used for a single pull.
type BlobPuller struct {
	properties EndpointProperties

	// digest of the BLOB to pull.
	digest digest.Digest
	// received describes the content that arrived, set once the response body was read.
	received ociImageSpecV1.Descriptor

	destination io.WriteCloser
	closeOnce   sync.Once
	closeErr    error
}

var (
	_ Provider[struct{}] = (*BlobPuller)(nil)
	_ io.Closer          = (*BlobPuller)(nil)
)

// NewBlobPuller creates a puller for the BLOB with the given digest that writes into destination.
// If an error is returned, the caller keeps ownership of destination.
func NewBlobPuller(properties EndpointProperties, dgst digest.Digest, destination io.WriteCloser) (*BlobPuller, error) {
	if err := dgst.Validate(); err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidDigest, dgst, err)
	}
	if destination == nil {
		return nil, errors.New("blob destination must not be nil")
	}
	return &BlobPuller{
		properties:  properties,
		digest:      dgst,
		destination: destination,
	}, nil
}

// BuildRequest does nothing: pulling a BLOB needs no body and no headers beyond
// what the transport adds.
func (p *BlobPuller) BuildRequest(*http.Request) error {
	return nil
}

// HandleResponse streams the response body into the destination while hashing it,
// and fails with an *UnexpectedBlobDigestError if the received content does not
// match the requested digest. The destination is closed before HandleResponse returns.
func (p *BlobPuller) HandleResponse(resp *http.Response) (_ struct{}, err error) {
	defer func() {
		err = errors.Join(err, p.Close())
	}()

	body := io.Reader(http.NoBody)
	if resp != nil && resp.Body != nil {
		body = resp.Body
	}

	received, err := blob.WriteTo(p.destination, body, p.digest.Algorithm())
	if err != nil {
		return struct{}{}, err
	}
	if resp != nil {
		received.MediaType = resp.Header.Get("Content-Type")
	}
	p.received = received

	if received.Digest != p.digest {
		return struct{}{}, &UnexpectedBlobDigestError{
			Received: received.Digest,
			Expected: p.digest,
			Size:     received.Size,
		}
	}

	return struct{}{}, nil
}

// APIRoute returns <apiRouteBase><image name>/blobs/<digest>.
// The image name is taken as is, it only has to be usable as a URL path without escaping.
// Repository name rules of the distribution spec are enforced by EndpointProperties.Validate.
func (p *BlobPuller) APIRoute(apiRouteBase string) (*url.URL, error) {
	name := p.properties.ImageName
	if name == "" {
		return nil, fmt.Errorf("%w: missing image name", ErrInvalidAPIRoute)
	}
	if (&url.URL{Path: name}).EscapedPath() != name {
		return nil, fmt.Errorf("%w: image name %q is not a valid url path", ErrInvalidAPIRoute, name)
	}

	raw := apiRouteBase + name + "/blobs/" + p.digest.String()
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidAPIRoute, raw, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("%w %q: api route base %q is not an absolute url", ErrInvalidAPIRoute, raw, apiRouteBase)
	}
	return u, nil
}

func (p *BlobPuller) HTTPMethod() string {
	return http.MethodGet
}

func (p *BlobPuller) ActionDescription() string {
	return "pull BLOB for " + p.properties.String() + " with digest " + p.digest.String()
}

// Digest returns the digest of the BLOB that is pulled.
func (p *BlobPuller) Digest() digest.Digest {
	return p.digest
}

// Received returns the descriptor of the content read from the registry,
// with the media type the registry announced. It is empty until HandleResponse read the body.
func (p *BlobPuller) Received() ociImageSpecV1.Descriptor {
	return p.received
}

// Close releases the destination. Only the first call closes it; later calls
// return the result of the first.
func (p *BlobPuller) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.destination.Close()
	})
	return p.closeErr
}
