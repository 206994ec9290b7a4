// Package credentials resolves registry credentials from Docker configuration and
// builds the authenticating transport used by the registry client.
//
// It integrates with Docker's credential store system (config files, inline
// configuration and native credential helpers) through oras.
package credentials
