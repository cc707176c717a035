// Package config handles configuration for the accounts server: defaults,
// environment variables, an optional JSON file and command-line flags,
// applied in that order.
package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"
)

// Config holds runtime settings for the accounts server.
//
// Fields:
//   - EndpointAddrHTTP: bind address of the public HTTP API.
//   - EndpointAddrGRPC: bind address of the gRPC health endpoint; empty disables it.
//   - DB*: PostgreSQL connection settings; DBTestName is used by integration runs.
//   - AllowedHost1 / AllowedHost2: CORS origins allowed to call the API.
//   - SecretKey / Algorithm: HMAC key and JWT signing algorithm.
//   - AccessTokenValidityDuration: lifetime of issued tokens.
//   - S3*: object storage for profile images.
type Config struct {
	EndpointAddrHTTP            string
	EndpointAddrGRPC            string
	DBHost                      string
	DBPort                      int
	DBUser                      string
	DBPassword                  string
	DBName                      string
	DBTestName                  string
	AllowedHost1                string
	AllowedHost2                string
	SecretKey                   string
	Algorithm                   string
	AccessTokenValidityDuration time.Duration
	BcryptCost                  int
	LogLevel                    string
	S3RootUser                  string
	S3RootPassword              string
	S3Bucket                    string
	S3Region                    string
	S3BaseEndpoint              string
}

// LoadDefaults populates Config with development defaults.
// SecretKey is left empty; the server generates an ephemeral one at start
// when nothing overrides it.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8000"
	c.EndpointAddrGRPC = ":50051"
	c.DBHost = "localhost"
	c.DBPort = 5432
	c.DBUser = "postgres"
	c.DBPassword = "postgres"
	c.DBName = "accounts"
	c.DBTestName = "accounts_test"
	c.AllowedHost1 = "http://localhost:3000"
	c.AllowedHost2 = ""
	c.SecretKey = ""
	c.Algorithm = "HS256"
	c.AccessTokenValidityDuration = 30 * time.Minute
	c.BcryptCost = 10
	c.LogLevel = "info"
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "avatars"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
}

// DatabaseDSN returns the pgx connection string for DBName.
func (c *Config) DatabaseDSN() string {
	return c.dsn(c.DBName)
}

// TestDatabaseDSN returns the pgx connection string for DBTestName on the
// same server.
func (c *Config) TestDatabaseDSN() string {
	return c.dsn(c.DBTestName)
}

func (c *Config) dsn(name string) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort)),
		Path:     "/" + name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// AllowedOrigins returns the configured CORS origins, skipping empty slots.
func (c *Config) AllowedOrigins() []string {
	origins := make([]string, 0, 2)
	for _, o := range []string{c.AllowedHost1, c.AllowedHost2} {
		if o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	if c.EndpointAddrHTTP == "" {
		return fmt.Errorf("http address is empty")
	}
	if c.AccessTokenValidityDuration <= 0 {
		return fmt.Errorf("access token lifetime must be positive, got %s", c.AccessTokenValidityDuration)
	}
	if c.DBPort <= 0 || c.DBPort > 65535 {
		return fmt.Errorf("invalid database port %d", c.DBPort)
	}
	return nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from the environment, an optional JSON file and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg, nil)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
