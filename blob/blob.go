package blob

import (
	"io"
)

// ReadOnlyBlob is an interface that represents a Binary Large Object that can only be read.
type ReadOnlyBlob interface {
	// ReadCloser returns a reader to incrementally access byte stream content
	// It is the caller's responsibility to close the reader.
	//
	// ReadCloser MUST be able to be called multiple times, where each invocation
	// returning a new reader, that starts from the beginning of the blob.
	ReadCloser() (io.ReadCloser, error)
}

// SizeUnknown is a constant that represents an unknown size of a blob.
const SizeUnknown int64 = -1

// SizeAware is an interface that represents any arbitrary object that can be sized.
type SizeAware interface {
	// Size returns the blob size in bytes if known.
	// If the size is unknown, it MUST return SizeUnknown.
	Size() (size int64)
}

// DigestAware is an interface that represents any arbitrary object that can be digested.
type DigestAware interface {
	// Digest returns the blob digest if known.
	Digest() (digest string, known bool)
}
