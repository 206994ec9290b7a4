package registry

import (
	"oras.land/oras-go/v2/registry/remote"
)

// ClientOptions holds configuration options for a Client.
type ClientOptions struct {
	// Transport sends the requests of the client. It is responsible for
	// authentication, redirects and connection handling.
	// Defaults to auth.DefaultClient.
	Transport remote.Client

	// PlainHTTP uses http instead of https to reach the registry.
	PlainHTTP bool

	// UserAgent is set on every request if not empty.
	UserAgent string
}

type ClientOption func(*ClientOptions)

// WithTransport sets the transport option
func WithTransport(transport remote.Client) ClientOption {
	return func(o *ClientOptions) {
		o.Transport = transport
	}
}

// WithPlainHTTP sets the plain http option
func WithPlainHTTP(plainHTTP bool) ClientOption {
	return func(o *ClientOptions) {
		o.PlainHTTP = plainHTTP
	}
}

// WithUserAgent sets the user agent option
func WithUserAgent(userAgent string) ClientOption {
	return func(o *ClientOptions) {
		o.UserAgent = userAgent
	}
}
