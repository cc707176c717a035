// Package cli provides the interactive accounts command-line client.
//
// It wires configuration, the local session store and the HTTP API client
// into a REPL. A session saved by an earlier run is picked up at start, and
// a background watcher keeps the online/offline indicator current.
//
// Commands:
//   - register, login, logout, whoami
//   - show [username], update, avatar <file>, delete
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
package cli
