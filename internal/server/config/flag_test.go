package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected    *Config
		initial     *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"cmd",
				"-a", "127.0.0.1:8080", "-r", "127.0.0.1:9090", "-d", "db", "-s", "secret", "-k", "HS384",
				"-t", "5", "-l", "debug", "-u", "user", "-p", "password", "-b", "bucket", "-g", "us-west-1", "-e", "http://endpoint",
			},
			initial: &Config{},
			expected: &Config{
				EndpointAddrHTTP:            "127.0.0.1:8080",
				EndpointAddrGRPC:            "127.0.0.1:9090",
				DBName:                      "db",
				SecretKey:                   "secret",
				Algorithm:                   "HS384",
				AccessTokenValidityDuration: 5 * time.Minute,
				LogLevel:                    "debug",
				S3RootUser:                  "user",
				S3RootPassword:              "password",
				S3Bucket:                    "bucket",
				S3Region:                    "us-west-1",
				S3BaseEndpoint:              "http://endpoint",
			},
		},
		{
			name:     "no -t keeps sub-minute lifetime",
			args:     []string{"cmd", "-s", "k", "-test.v"},
			initial:  &Config{AccessTokenValidityDuration: 90 * time.Second},
			expected: &Config{SecretKey: "k", AccessTokenValidityDuration: 90 * time.Second},
		},
		{
			name:        "bad integer",
			args:        []string{"cmd", "-t", "soon"},
			initial:     &Config{},
			expectPanic: true,
		},
	}

	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := tt.initial

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
