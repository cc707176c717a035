// Package common contains shared constants and sentinel errors used across
// the accounts server and CLI.
package common

// TokenHeaderName is the HTTP header that carries the access token on
// requests to protected endpoints. The value is the raw token, no scheme.
const TokenHeaderName = "token"
