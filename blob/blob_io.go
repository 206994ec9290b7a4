package blob

import (
	"errors"
	"fmt"
	"io"

	"github.com/opencontainers/go-digest"
	ociImageSpecV1 "github.com/opencontainers/image-spec/specs-go/v1"
)

// copyBufferSize bounds the memory used per transfer.
const copyBufferSize = 32 * 1024

var (
	// ErrRead marks failures that happened while reading the source of a transfer.
	ErrRead = errors.New("reading blob")
	// ErrWrite marks failures that happened while writing the destination of a transfer.
	ErrWrite = errors.New("writing blob")
)

// WriteTo streams src into dst and returns a descriptor of the bytes that were seen.
//
// Every chunk is hashed with the given algorithm and written to dst before the next one is read,
// so memory stays bounded no matter the size of src and a slow dst throttles reading from src.
// The digest in the returned descriptor is only known once src is exhausted.
//
// Failures are wrapped with ErrRead or ErrWrite and keep the underlying cause reachable
// through errors.Is and errors.As. On failure dst may have received a prefix of src.
func WriteTo(dst io.Writer, src io.Reader, algorithm digest.Algorithm) (ociImageSpecV1.Descriptor, error) {
	if !algorithm.Available() {
		return ociImageSpecV1.Descriptor{}, fmt.Errorf("digest algorithm %q is not available", algorithm)
	}

	digester := algorithm.Digester()
	hash := digester.Hash()
	buf := make([]byte, copyBufferSize)

	var size int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			// hash.Hash never returns an error on Write
			_, _ = hash.Write(chunk)
			written, werr := dst.Write(chunk)
			size += int64(written)
			if werr == nil && written != n {
				werr = io.ErrShortWrite
			}
			if werr != nil {
				return ociImageSpecV1.Descriptor{}, fmt.Errorf("%w after %d bytes: %w", ErrWrite, size, werr)
			}
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return ociImageSpecV1.Descriptor{}, fmt.Errorf("%w after %d bytes: %w", ErrRead, size, rerr)
		}
	}

	return ociImageSpecV1.Descriptor{
		Digest: digester.Digest(),
		Size:   size,
	}, nil
}

// Copy copies the contents of a ReadOnlyBlob to a provided io.Writer, performing optional size and digest checks.
//
// If the source blob is SizeAware, exactly that many bytes are copied with io.CopyN.
// If the source blob is DigestAware, the data is read through an io.TeeReader into a digest verifier
// and the copy fails if the verification fails.
// The reader of the blob is closed after the operation, even if an error occurs.
func Copy(dst io.Writer, src ReadOnlyBlob) (err error) {
	size := SizeUnknown
	if srcSizeAware, ok := src.(SizeAware); ok {
		size = srcSizeAware.Size()
	}

	data, err := src.ReadCloser()
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, data.Close())
	}()

	reader := io.Reader(data)

	if digestAware, ok := src.(DigestAware); ok {
		if digRaw, known := digestAware.Digest(); known {
			var dig digest.Digest
			if dig, err = digest.Parse(digRaw); err != nil {
				return err
			}
			verifier := dig.Verifier()
			reader = io.TeeReader(reader, verifier)
			defer func() {
				if !verifier.Verified() {
					err = errors.Join(err, fmt.Errorf("blob digest verification failed for %s", dig))
				}
			}()
		}
	}

	if size > SizeUnknown {
		_, err = io.CopyN(dst, reader, size)
	} else {
		_, err = io.Copy(dst, reader)
	}

	return err
}
