// Package v1 defines the blobpull configuration file.
//
// The file format is YAML (or JSON) and carries a type marker so that the
// format can evolve. Each registry entry configures how blobpull talks to one
// registry host, matched exactly against the server of the pulled reference:
//
//	type: blobpull.config/v1
//	registries:
//	  - hostname: localhost:5000
//	    plainHTTP: true
//	    userAgent: blobpull/dev
//	  - hostname: ghcr.io
//	    dockerConfigFile: "~/.docker/config.json"
package v1
