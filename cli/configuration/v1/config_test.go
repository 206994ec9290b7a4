package v1_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "ocm.software/open-component-model/distribution/cli/configuration/v1"
	"ocm.software/open-component-model/distribution/credentials"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *v1.Config
		wantErr string
	}{
		{
			name: "yaml",
			input: `
type: blobpull.config/v1
registries:
  - hostname: localhost:5000
    plainHTTP: true
    userAgent: blobpull/test
  - hostname: ghcr.io
    dockerConfigFile: ~/.docker/config.json
`,
			want: &v1.Config{
				Type: v1.ConfigType,
				Registries: []v1.Registry{
					{Hostname: "localhost:5000", PlainHTTP: true, UserAgent: "blobpull/test"},
					{Hostname: "ghcr.io", DockerConfig: credentials.DockerConfig{DockerConfigFile: "~/.docker/config.json"}},
				},
			},
		},
		{
			name:  "json",
			input: `{"type":"blobpull.config/v1","registries":[{"hostname":"example.com","dockerConfig":"{}"}]}`,
			want: &v1.Config{
				Type: v1.ConfigType,
				Registries: []v1.Registry{
					{Hostname: "example.com", DockerConfig: credentials.DockerConfig{DockerConfig: "{}"}},
				},
			},
		},
		{
			name: "static credentials",
			input: `
type: blobpull.config/v1
registries:
  - hostname: registry.example.com
    credentials:
      username: user
      password: secret
`,
			want: &v1.Config{
				Type: v1.ConfigType,
				Registries: []v1.Registry{
					{Hostname: "registry.example.com", Credentials: map[string]string{
						credentials.CredentialKeyUsername: "user",
						credentials.CredentialKeyPassword: "secret",
					}},
				},
			},
		},
		{
			name: "unknown credential key",
			input: `
type: blobpull.config/v1
registries:
  - hostname: registry.example.com
    credentials:
      user: someone
`,
			wantErr: "unknown credential key",
		},
		{
			name:  "no registries",
			input: "type: blobpull.config/v1\n",
			want:  &v1.Config{Type: v1.ConfigType},
		},
		{
			name:    "unknown type",
			input:   "type: other/v1\n",
			wantErr: "unsupported configuration type",
		},
		{
			name:    "missing type",
			input:   "registries: []\n",
			wantErr: "unsupported configuration type",
		},
		{
			name:    "unknown field",
			input:   "type: blobpull.config/v1\nmirrors: []\n",
			wantErr: "decoding configuration failed",
		},
		{
			name: "missing hostname",
			input: `
type: blobpull.config/v1
registries:
  - plainHTTP: true
`,
			wantErr: "has no hostname",
		},
		{
			name: "duplicate hostname",
			input: `
type: blobpull.config/v1
registries:
  - hostname: a.io
  - hostname: a.io
`,
			wantErr: `registry "a.io" is configured more than once`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := require.New(t)
			cfg, err := v1.Decode(strings.NewReader(tt.input))
			if tt.wantErr != "" {
				r.ErrorContains(err, tt.wantErr)
				return
			}
			r.NoError(err)
			r.Equal(tt.want, cfg)
		})
	}
}

func TestConfig_Lookup(t *testing.T) {
	cfg := &v1.Config{
		Type: v1.ConfigType,
		Registries: []v1.Registry{
			{Hostname: "localhost:5000", PlainHTTP: true},
			{Hostname: "ghcr.io"},
		},
	}

	entry, ok := cfg.Lookup("localhost:5000")
	assert.True(t, ok)
	assert.True(t, entry.PlainHTTP)

	_, ok = cfg.Lookup("localhost")
	assert.False(t, ok, "lookup must match the port as well")

	var empty *v1.Config
	_, ok = empty.Lookup("ghcr.io")
	assert.False(t, ok)
}

func TestMerge(t *testing.T) {
	first := &v1.Config{Type: v1.ConfigType, Registries: []v1.Registry{
		{Hostname: "a.io", UserAgent: "first"},
		{Hostname: "b.io"},
	}}
	second := &v1.Config{Type: v1.ConfigType, Registries: []v1.Registry{
		{Hostname: "a.io", UserAgent: "second"},
		{Hostname: "c.io", PlainHTTP: true},
	}}

	merged := v1.Merge(first, nil, second)
	require.NoError(t, merged.Validate())
	assert.Equal(t, []v1.Registry{
		{Hostname: "a.io", UserAgent: "second"},
		{Hostname: "b.io"},
		{Hostname: "c.io", PlainHTTP: true},
	}, merged.Registries)

	assert.Equal(t, v1.New(), v1.Merge())
}
