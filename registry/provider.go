package registry

import (
	"net/http"
	"net/url"
)

// Provider describes a single registry operation producing a result of type T.
//
// A Provider that owns resources (such as the destination of a pull) additionally
// implements io.Closer. Call closes such a provider whenever it fails before
// HandleResponse is reached.
type Provider[T any] interface {
	// BuildRequest adjusts the outgoing request before it is sent.
	BuildRequest(req *http.Request) error

	// HandleResponse consumes a successful response and produces the result of the operation.
	HandleResponse(resp *http.Response) (T, error)

	// APIRoute returns the URL of the operation relative to the given API route base,
	// such as "https://registry.example.com/v2/".
	APIRoute(apiRouteBase string) (*url.URL, error)

	// HTTPMethod returns the method used for the request.
	HTTPMethod() string

	// ActionDescription describes the operation for logs and error messages.
	ActionDescription() string
}
