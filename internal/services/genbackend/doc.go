// Package genbackend wraps the external AI generation backend's HTTP API:
// job submission and status polls with retry and backoff. The backend is a
// black box; this client never interprets results beyond the job status
// contract.
package genbackend
