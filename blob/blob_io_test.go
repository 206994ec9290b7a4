package blob_test

import (
	"bytes"
	"crypto/rand"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"testing/iotest"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ocm.software/open-component-model/distribution/blob"
)

func TestWriteTo(t *testing.T) {
	r := require.New(t)
	data := []byte("hello world!")
	var buf bytes.Buffer

	desc, err := blob.WriteTo(&buf, bytes.NewReader(data), digest.Canonical)
	r.NoError(err)
	r.Equal(data, buf.Bytes())
	r.Equal(digest.FromBytes(data), desc.Digest)
	r.Equal(int64(len(data)), desc.Size)
}

func TestWriteTo_Empty(t *testing.T) {
	r := require.New(t)
	var buf bytes.Buffer

	desc, err := blob.WriteTo(&buf, bytes.NewReader(nil), digest.Canonical)
	r.NoError(err)
	r.Zero(buf.Len())
	r.Equal(digest.FromBytes(nil), desc.Digest)
	r.Zero(desc.Size)
}

func TestWriteTo_Algorithm(t *testing.T) {
	r := require.New(t)
	data := []byte("sha512 content")

	desc, err := blob.WriteTo(io.Discard, bytes.NewReader(data), digest.SHA512)
	r.NoError(err)
	r.Equal(digest.SHA512.FromBytes(data), desc.Digest)
}

func TestWriteTo_UnavailableAlgorithm(t *testing.T) {
	r := require.New(t)
	src := &countingReader{Reader: bytes.NewReader([]byte("data"))}

	_, err := blob.WriteTo(io.Discard, src, digest.Algorithm("md5"))
	r.Error(err)
	r.Contains(err.Error(), "not available")
	r.Zero(src.reads, "source must not be read when the algorithm is unavailable")
}

func TestWriteTo_ChunkingInvariance(t *testing.T) {
	data := make([]byte, 3*1024*1024+17)
	_, err := rand.Read(data)
	require.NoError(t, err)
	expected := digest.FromBytes(data)

	tests := []struct {
		name string
		src  func() io.Reader
	}{
		{
			name: "single reader",
			src:  func() io.Reader { return bytes.NewReader(data) },
		},
		{
			name: "one byte at a time",
			src:  func() io.Reader { return iotest.OneByteReader(bytes.NewReader(data[:64*1024+3])) },
		},
		{
			name: "half reads",
			src:  func() io.Reader { return iotest.HalfReader(bytes.NewReader(data)) },
		},
		{
			name: "data with EOF",
			src:  func() io.Reader { return iotest.DataErrReader(bytes.NewReader(data)) },
		},
		{
			name: "odd sized chunks",
			src:  func() io.Reader { return &chunkReader{data: data, sizes: []int{1, 7, 4096, 13, 65537, 2}} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := require.New(t)
			var buf bytes.Buffer
			src := tt.src()

			desc, err := blob.WriteTo(&buf, src, digest.Canonical)
			r.NoError(err)
			r.Equal(digest.FromBytes(buf.Bytes()), desc.Digest)
			r.Equal(int64(buf.Len()), desc.Size)
			if buf.Len() == len(data) {
				r.Equal(expected, desc.Digest)
			}
		})
	}
}

func TestWriteTo_ReadError(t *testing.T) {
	r := require.New(t)
	mockErr := errors.New("connection reset")
	src := io.MultiReader(bytes.NewReader([]byte("0123456789")), iotest.ErrReader(mockErr))
	var buf bytes.Buffer

	_, err := blob.WriteTo(&buf, src, digest.Canonical)
	r.Error(err)
	r.ErrorIs(err, blob.ErrRead)
	r.ErrorIs(err, mockErr)
	r.NotErrorIs(err, blob.ErrWrite)
	r.Contains(err.Error(), "after 10 bytes")
	r.Equal("0123456789", buf.String())
}

func TestWriteTo_WriteError(t *testing.T) {
	r := require.New(t)
	mockErr := errors.New("disk full")
	dst := &failingWriter{limit: 5, err: mockErr}

	_, err := blob.WriteTo(dst, bytes.NewReader([]byte("0123456789")), digest.Canonical)
	r.Error(err)
	r.ErrorIs(err, blob.ErrWrite)
	r.ErrorIs(err, mockErr)
	r.NotErrorIs(err, blob.ErrRead)
}

func TestWriteTo_ShortWrite(t *testing.T) {
	r := require.New(t)

	_, err := blob.WriteTo(shortWriter{}, bytes.NewReader([]byte("0123456789")), digest.Canonical)
	r.ErrorIs(err, blob.ErrWrite)
	r.ErrorIs(err, io.ErrShortWrite)
}

func TestCopy_FileBlob(t *testing.T) {
	r := require.New(t)
	data := []byte("hello world!")
	path := filepath.Join(t.TempDir(), "blob")
	r.NoError(os.WriteFile(path, data, 0o600))

	var buf bytes.Buffer
	r.NoError(blob.Copy(&buf, blob.NewFileBlob(path, digest.FromBytes(data))))
	r.Equal(data, buf.Bytes())
}

func TestCopy_FileBlob_Tampered(t *testing.T) {
	r := require.New(t)
	path := filepath.Join(t.TempDir(), "blob")
	r.NoError(os.WriteFile(path, []byte("tampered"), 0o600))

	err := blob.Copy(io.Discard, blob.NewFileBlob(path, digest.FromBytes([]byte("original"))))
	r.Error(err)
	r.Contains(err.Error(), "blob digest verification failed")
}

func TestCopy_FileBlob_Missing(t *testing.T) {
	r := require.New(t)
	b := blob.NewFileBlob(filepath.Join(t.TempDir(), "missing"), digest.FromBytes(nil))

	r.Equal(blob.SizeUnknown, b.Size())
	err := blob.Copy(io.Discard, b)
	r.ErrorIs(err, os.ErrNotExist)
}

// MockReadOnlyBlob is a mock implementation of ReadOnlyBlob
type MockReadOnlyBlob struct {
	mock.Mock
}

func (m *MockReadOnlyBlob) ReadCloser() (io.ReadCloser, error) {
	args := m.Called()
	rc := args.Get(0)
	if rc == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockReadOnlyBlob) Size() int64 {
	args := m.Called()
	return args.Get(0).(int64)
}

func (m *MockReadOnlyBlob) Digest() (string, bool) {
	args := m.Called()
	return args.String(0), args.Bool(1)
}

func TestCopy(t *testing.T) {
	tests := []struct {
		name          string
		mockBlob      func() *MockReadOnlyBlob
		expectedError error
	}{
		{
			name: "successful copy with size aware",
			mockBlob: func() *MockReadOnlyBlob {
				m := new(MockReadOnlyBlob)
				m.On("ReadCloser").Return(io.NopCloser(bytes.NewReader([]byte("test data"))), nil)
				m.On("Size").Return(int64(9))
				m.On("Digest").Return("", false)
				return m
			},
			expectedError: nil,
		},
		{
			name: "successful copy with verified digest",
			mockBlob: func() *MockReadOnlyBlob {
				m := new(MockReadOnlyBlob)
				m.On("ReadCloser").Return(io.NopCloser(bytes.NewReader([]byte("test data"))), nil)
				m.On("Size").Return(blob.SizeUnknown)
				m.On("Digest").Return(digest.FromString("test data").String(), true)
				return m
			},
			expectedError: nil,
		},
		{
			name: "error on read",
			mockBlob: func() *MockReadOnlyBlob {
				m := new(MockReadOnlyBlob)
				m.On("ReadCloser").Return(nil, errors.New("read error"))
				m.On("Size").Return(int64(9))
				m.On("Digest").Return("", false)
				return m
			},
			expectedError: errors.New("read error"),
		},
		{
			name: "digest format error (not a container digest)",
			mockBlob: func() *MockReadOnlyBlob {
				m := new(MockReadOnlyBlob)
				data := []byte("test data")
				m.On("ReadCloser").Return(io.NopCloser(bytes.NewReader(data)), nil)
				m.On("Size").Return(int64(len(data)))
				m.On("Digest").Return("invlaid", true)
				return m
			},
			expectedError: errors.New("invalid checksum digest format"),
		},
		{
			name: "digest verification failure",
			mockBlob: func() *MockReadOnlyBlob {
				m := new(MockReadOnlyBlob)
				data := []byte("test data")
				m.On("ReadCloser").Return(io.NopCloser(bytes.NewReader(data)), nil)
				m.On("Size").Return(int64(len(data)))
				m.On("Digest").Return(digest.FromBytes([]byte("other")).String(), true)
				return m
			},
			expectedError: errors.New("blob digest verification failed"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := new(bytes.Buffer)
			src := tt.mockBlob()

			err := blob.Copy(dst, src)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError.Error())
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "test data", dst.String())
			}
		})
	}
}

type countingReader struct {
	io.Reader
	reads int
}

func (c *countingReader) Read(p []byte) (int, error) {
	c.reads++
	return c.Reader.Read(p)
}

// chunkReader hands out data in the given chunk sizes, cycling through them.
type chunkReader struct {
	data  []byte
	sizes []int
	next  int
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(c.data) == 0 {
		return 0, io.EOF
	}
	size := c.sizes[c.next%len(c.sizes)]
	c.next++
	size = min(size, len(p), len(c.data))
	n := copy(p, c.data[:size])
	c.data = c.data[n:]
	return n, nil
}

type failingWriter struct {
	written int
	limit   int
	err     error
}

func (f *failingWriter) Write(p []byte) (int, error) {
	if f.written+len(p) > f.limit {
		n := f.limit - f.written
		f.written = f.limit
		return n, f.err
	}
	f.written += len(p)
	return len(p), nil
}

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) {
	return len(p) / 2, nil
}
