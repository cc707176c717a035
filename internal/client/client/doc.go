// Package client contains client-side building blocks for the accounts CLI.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface) covering
//     register, login, profile lookup, update, delete, image upload slots
//     and a liveness probe.
//  2. A concrete HTTP/JSON implementation (see HTTPClient) that sends the
//     access token in the "token" header and maps error responses to
//     APIError values.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) for the
//     SQLite session store, using embedded goose migrations.
//
// # Error Handling
//
// APIError unwraps to a sentinel by status so callers can use errors.Is:
// ErrUnauthorized (401), ErrForbidden (403), ErrNotFound (404) and
// ErrUnavailable (5xx and transport failures).
package client
