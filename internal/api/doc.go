// Package api defines the transport DTOs shared by the daemon's HTTP
// handlers and the CLI, plus thin read-only services over the session
// registry and job store.
package api
