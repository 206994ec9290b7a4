// Package registry implements operations against an OCI distribution registry.
//
// Each registry operation is packaged as a Provider: it knows the HTTP method it uses,
// how to derive its URL from the API route base of a registry, how to prepare the request
// and how to interpret the response. Call is the generic driver executing any Provider
// through a Client, which owns the endpoint properties and the transport.
//
// BlobPuller is the Provider that pulls a BLOB (an image layer or a config document).
// It streams the response body into a destination owned by the puller and verifies
// that the received bytes hash to the digest that was requested:
//
//	client, err := registry.NewClient(registry.EndpointProperties{
//		ServerURL: "ghcr.io",
//		ImageName: "open-component-model/ocm",
//	})
//	if err != nil {
//		return err
//	}
//	file, err := os.Create("layer.tar")
//	if err != nil {
//		return err
//	}
//	// PullBlob closes file on return.
//	if err := client.PullBlob(ctx, dgst, file); err != nil {
//		// the content of file must not be trusted
//		return err
//	}
//
// A failed pull never removes what was already written to the destination.
// Callers must discard the destination on any error.
package registry
