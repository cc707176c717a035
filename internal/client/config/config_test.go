package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults() *Config {
	c := &Config{}
	c.LoadDefaults()
	return c
}

func TestLoadDefaults(t *testing.T) {
	want := &Config{
		ServerURL:           "http://127.0.0.1:8000",
		RequestTimeout:      10 * time.Second,
		SessionDB:           "accounts-cli.db",
		OnlineCheckInterval: 3 * time.Second,
	}
	assert.Empty(t, cmp.Diff(want, defaults()))
	assert.NoError(t, defaults().Validate())
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"cli"}

	cfg := LoadConfig()
	require.NotNil(t, cfg)
	assert.Empty(t, cmp.Diff(defaults(), cfg))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "empty url", mutate: func(c *Config) { c.ServerURL = "" }},
		{name: "empty session db", mutate: func(c *Config) { c.SessionDB = "" }},
		{name: "zero timeout", mutate: func(c *Config) { c.RequestTimeout = 0 }},
		{name: "negative interval", mutate: func(c *Config) { c.OnlineCheckInterval = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := defaults()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected *Config
		wantErr  bool
	}{
		{
			name: "all flags",
			args: []string{"-a", "http://api:8080", "-t", "5", "-s", "/tmp/s.db", "-i", "10"},
			expected: &Config{
				ServerURL:           "http://api:8080",
				RequestTimeout:      5 * time.Second,
				SessionDB:           "/tmp/s.db",
				OnlineCheckInterval: 10 * time.Second,
			},
		},
		{
			name: "unknown flags ignored",
			args: []string{"-config", "x.json", "-a", "http://api:8080"},
			expected: func() *Config {
				c := defaults()
				c.ServerURL = "http://api:8080"
				return c
			}(),
		},
		{name: "bad interval", args: []string{"-i", "abc"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			err := parseArgs(cfg, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected, cfg))
		})
	}
}

func TestParseFlags_PanicsOnBadValue(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"cli", "-t", "soon"}

	require.Panics(t, func() { parseFlags(defaults()) })
}
