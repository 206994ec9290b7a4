package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/opencontainers/go-digest"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/errcode"

	"ocm.software/open-component-model/distribution/internal/log"
)

// maxErrorBytes bounds how much of an error response body is decoded.
const maxErrorBytes int64 = 8 * 1024

// Client runs Providers against a single repository of a registry.
// A Client is safe for concurrent use if its transport is.
type Client struct {
	properties EndpointProperties
	transport  remote.Client
	plainHTTP  bool
	userAgent  string
}

// NewClient creates a Client for the repository described by properties.
func NewClient(properties EndpointProperties, opts ...ClientOption) (*Client, error) {
	if err := properties.Validate(); err != nil {
		return nil, err
	}

	options := &ClientOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if options.Transport == nil {
		options.Transport = auth.DefaultClient
	}

	return &Client{
		properties: properties,
		transport:  options.Transport,
		plainHTTP:  options.PlainHTTP,
		userAgent:  options.UserAgent,
	}, nil
}

// Properties returns the endpoint properties of the repository the client talks to.
func (c *Client) Properties() EndpointProperties {
	return c.properties
}

// APIRouteBase returns the base of the distribution API of the registry, such as "https://ghcr.io/v2/".
func (c *Client) APIRouteBase() string {
	scheme := "https"
	if c.plainHTTP {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s/v2/", scheme, c.properties.ServerURL)
}

// PullBlob pulls the BLOB with the given digest into dst and verifies its content.
// PullBlob takes ownership of dst and closes it on every path, including an invalid digest.
// On error the content written to dst must be discarded.
func (c *Client) PullBlob(ctx context.Context, dgst digest.Digest, dst io.WriteCloser) error {
	puller, err := NewBlobPuller(c.properties, dgst, dst)
	if err != nil {
		return errors.Join(err, dst.Close())
	}
	if _, err = Call(ctx, c, puller); err != nil {
		return err
	}
	log.Base(ctx).DebugContext(ctx, "blob received", log.DescriptorLogAttr(puller.Received()))
	return nil
}

// Call executes the operation described by provider against the registry of the client.
//
// The URL is resolved before anything is sent, so construction errors never reach the network.
// Responses with a status other than 2xx are returned as *errcode.ErrorResponse and are never
// handed to the provider. If the provider implements io.Closer, it is closed whenever Call
// fails before its response handler runs.
func Call[T any](ctx context.Context, c *Client, provider Provider[T]) (result T, err error) {
	done := log.Operation(ctx, provider.HTTPMethod()+" "+c.properties.String(),
		log.EndpointLogAttr(c.properties.ServerURL, c.properties.ImageName),
		slog.String("action", provider.ActionDescription()),
	)
	defer func() {
		done(err)
	}()

	resp, err := send(ctx, c, provider)
	if err != nil {
		if closer, ok := provider.(io.Closer); ok {
			err = errors.Join(err, closer.Close())
		}
		return result, fmt.Errorf("failed to %s: %w", provider.ActionDescription(), err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if result, err = provider.HandleResponse(resp); err != nil {
		return result, fmt.Errorf("failed to %s: %w", provider.ActionDescription(), err)
	}
	return result, nil
}

// send builds and sends the request of provider and returns the response if its status is 2xx.
func send[T any](ctx context.Context, c *Client, provider Provider[T]) (*http.Response, error) {
	u, err := provider.APIRoute(c.APIRouteBase())
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, provider.HTTPMethod(), u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAPIRoute, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if err := provider.BuildRequest(req); err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	log.Base(ctx).DebugContext(ctx, "sending request", slog.String("method", req.Method), slog.String("url", req.URL.String()))

	resp, err := c.transport.Do(req)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("no response received for %s %s", req.Method, req.URL)
	}
	if resp.Body == nil {
		resp.Body = http.NoBody
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		defer func() {
			_ = resp.Body.Close()
		}()
		return nil, parseErrorResponse(req, resp)
	}
	return resp, nil
}

// parseErrorResponse converts a failed response into an *errcode.ErrorResponse,
// including the errors reported by the registry if the body holds any.
func parseErrorResponse(req *http.Request, resp *http.Response) error {
	errResp := &errcode.ErrorResponse{
		Method:     req.Method,
		URL:        req.URL,
		StatusCode: resp.StatusCode,
	}
	var body struct {
		Errors errcode.Errors `json:"errors"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBytes)).Decode(&body); err == nil {
		errResp.Errors = body.Errors
	}
	return errResp
}
