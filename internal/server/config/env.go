package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvConfig mirrors the environment variables the server understands.
// Variables that are not set leave the current value untouched.
type EnvConfig struct {
	EndpointAddrHTTP         string `env:"HTTP_ADDR"`
	EndpointAddrGRPC         string `env:"GRPC_ADDR"`
	DBHost                   string `env:"SQL_HOST"`
	DBPort                   int    `env:"SQL_PORT"`
	DBUser                   string `env:"SQL_USER"`
	DBPassword               string `env:"SQL_PASS"`
	DBName                   string `env:"SQL_DB"`
	DBTestName               string `env:"SQL_TEST_DB"`
	AllowedHost1             string `env:"ALLOWED_HOST_1"`
	AllowedHost2             string `env:"ALLOWED_HOST_2"`
	SecretKey                string `env:"SECRET_KEY"`
	Algorithm                string `env:"ALGORITHM"`
	AccessTokenExpireMinutes int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES"`
	BcryptCost               int    `env:"BCRYPT_COST"`
	LogLevel                 string `env:"LOG_LEVEL"`
	S3RootUser               string `env:"S3_ROOT_USER"`
	S3RootPassword           string `env:"S3_ROOT_PASSWORD"`
	S3Bucket                 string `env:"S3_BUCKET"`
	S3Region                 string `env:"S3_REGION"`
	S3BaseEndpoint           string `env:"S3_BASE_ENDPOINT"`
}

// parseEnv overlays config with environment variables. A nil environ
// means the process environment. Malformed values (e.g. a non-numeric
// SQL_PORT) panic, like the other loaders.
func parseEnv(config *Config, environ map[string]string) {
	e := EnvConfig{
		EndpointAddrHTTP:         config.EndpointAddrHTTP,
		EndpointAddrGRPC:         config.EndpointAddrGRPC,
		DBHost:                   config.DBHost,
		DBPort:                   config.DBPort,
		DBUser:                   config.DBUser,
		DBPassword:               config.DBPassword,
		DBName:                   config.DBName,
		DBTestName:               config.DBTestName,
		AllowedHost1:             config.AllowedHost1,
		AllowedHost2:             config.AllowedHost2,
		SecretKey:                config.SecretKey,
		Algorithm:                config.Algorithm,
		AccessTokenExpireMinutes: int(config.AccessTokenValidityDuration.Minutes()),
		BcryptCost:               config.BcryptCost,
		LogLevel:                 config.LogLevel,
		S3RootUser:               config.S3RootUser,
		S3RootPassword:           config.S3RootPassword,
		S3Bucket:                 config.S3Bucket,
		S3Region:                 config.S3Region,
		S3BaseEndpoint:           config.S3BaseEndpoint,
	}

	if err := env.ParseWithOptions(&e, env.Options{Environment: environ}); err != nil {
		panic(err)
	}

	config.EndpointAddrHTTP = e.EndpointAddrHTTP
	config.EndpointAddrGRPC = e.EndpointAddrGRPC
	config.DBHost = e.DBHost
	config.DBPort = e.DBPort
	config.DBUser = e.DBUser
	config.DBPassword = e.DBPassword
	config.DBName = e.DBName
	config.DBTestName = e.DBTestName
	config.AllowedHost1 = e.AllowedHost1
	config.AllowedHost2 = e.AllowedHost2
	config.SecretKey = e.SecretKey
	config.Algorithm = e.Algorithm
	config.AccessTokenValidityDuration = time.Duration(e.AccessTokenExpireMinutes) * time.Minute
	config.BcryptCost = e.BcryptCost
	config.LogLevel = e.LogLevel
	config.S3RootUser = e.S3RootUser
	config.S3RootPassword = e.S3RootPassword
	config.S3Bucket = e.S3Bucket
	config.S3Region = e.S3Region
	config.S3BaseEndpoint = e.S3BaseEndpoint
}
