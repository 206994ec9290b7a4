package credentials

import (
	"oras.land/oras-go/v2/registry/remote/auth"
	remotecredentials "oras.land/oras-go/v2/registry/remote/credentials"
	"oras.land/oras-go/v2/registry/remote/retry"
)

// NewTransport creates the authenticating transport for registry requests.
// Credentials are looked up in store per registry host; a nil store sends anonymous requests.
// Tokens are cached across requests, and transient transport failures are retried by the
// underlying oras retry client.
func NewTransport(store remotecredentials.Store, userAgent string) *auth.Client {
	client := &auth.Client{
		Client: retry.DefaultClient,
		Cache:  auth.NewCache(),
	}
	if store != nil {
		client.Credential = remotecredentials.Credential(store)
	}
	if userAgent != "" {
		client.SetUserAgent(userAgent)
	}
	return client
}

// NewStaticTransport creates a transport that authenticates against a single registry
// with fixed credentials, see CredentialFunc.
func NewStaticTransport(hostname, port string, credentials map[string]string, userAgent string) *auth.Client {
	client := NewTransport(nil, userAgent)
	client.Credential = CredentialFunc(hostname, port, credentials)
	return client
}
