package blob

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/opencontainers/go-digest"
)

// FileBlob is a ReadOnlyBlob backed by a file on disk that is expected to have a known digest.
// It is used to re-verify content that was previously pulled.
type FileBlob struct {
	path     string
	expected digest.Digest
}

var (
	_ ReadOnlyBlob = (*FileBlob)(nil)
	_ SizeAware    = (*FileBlob)(nil)
	_ DigestAware  = (*FileBlob)(nil)
)

// NewFileBlob creates a FileBlob for path that claims the digest expected.
func NewFileBlob(path string, expected digest.Digest) *FileBlob {
	return &FileBlob{
		path:     filepath.Clean(path),
		expected: expected,
	}
}

func (f *FileBlob) ReadCloser() (io.ReadCloser, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("unable to open file %q: %w", f.path, err)
	}
	return file, nil
}

func (f *FileBlob) Size() int64 {
	fi, err := os.Stat(f.path)
	if err != nil {
		return SizeUnknown
	}
	return fi.Size()
}

func (f *FileBlob) Digest() (string, bool) {
	if f.expected == "" {
		return "", false
	}
	return f.expected.String(), true
}
