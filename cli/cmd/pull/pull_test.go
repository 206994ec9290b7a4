package pull

import (
	"io"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocm.software/open-component-model/distribution/registry"
)

func TestCollectDigests(t *testing.T) {
	a, b := digest.FromString("a"), digest.FromString("b")
	tests := []struct {
		name    string
		ref     string
		args    []string
		want    []digest.Digest
		wantErr error
		errMsg  string
	}{
		{name: "reference digest only", ref: a.String(), want: []digest.Digest{a}},
		{name: "arguments only", args: []string{a.String(), b.String()}, want: []digest.Digest{a, b}},
		{name: "duplicates removed in order", ref: b.String(), args: []string{a.String(), b.String()}, want: []digest.Digest{b, a}},
		{name: "tag", ref: "v1.0.0", errMsg: "must not carry a tag"},
		{name: "nothing", errMsg: "no digest given"},
		{name: "invalid", args: []string{"sha256:zz"}, wantErr: registry.ErrInvalidDigest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := collectDigests(tt.ref, tt.args)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errMsg != "":
				assert.ErrorContains(t, err, tt.errMsg)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestFileName(t *testing.T) {
	dgst := digest.FromString("x")
	assert.Equal(t, "sha256-"+dgst.Encoded(), FileName(dgst))
	assert.Equal(t, "sha512-"+digest.SHA512.FromString("x").Encoded(), FileName(digest.SHA512.FromString("x")))
}

func TestEncodeResults(t *testing.T) {
	results := []Result{
		{Digest: digest.FromString("ok"), Status: StatusPulled, Size: 2, Path: "out/sha256-ok", Duration: "1ms"},
		{Digest: digest.FromString("bad"), Status: StatusFailed, Error: "boom", Duration: "2ms"},
	}

	read := func(t *testing.T, format string) string {
		t.Helper()
		r, err := encodeResults(format, results)
		require.NoError(t, err)
		data, err := io.ReadAll(r)
		require.NoError(t, err)
		return string(data)
	}

	t.Run("table", func(t *testing.T) {
		out := read(t, "table")
		assert.Contains(t, out, "DIGEST")
		assert.Contains(t, out, "out/sha256-ok")
		assert.Contains(t, out, "boom", "failed rows show the error instead of a path")
	})

	t.Run("json", func(t *testing.T) {
		out := read(t, "json")
		assert.Equal(t, 2, countLines(out))
		assert.Contains(t, out, `"status":"failed"`)
		assert.Contains(t, out, `"error":"boom"`)
	})

	t.Run("yaml", func(t *testing.T) {
		out := read(t, "yaml")
		assert.Contains(t, out, "- digest: ")
		assert.Contains(t, out, results[0].Digest.String())
		assert.Contains(t, out, "status: pulled")
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := encodeResults("xml", results)
		assert.ErrorContains(t, err, `unknown output format: "xml"`)
	})
}

func countLines(s string) int {
	n := 0
	for _, c := range s {
		if c == '\n' {
			n++
		}
	}
	return n
}
