// Package daemon runs the lineup background process: the session registry,
// the generation job manager, and the local HTTP API, with a file lock
// enforcing one instance per data directory.
package daemon
