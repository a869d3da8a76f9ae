// Package services provides the shared error taxonomy and context helpers
// used across the staging pipeline. Errors are tagged with sentinel markers
// so callers can classify a failure (validation, transient IO, commit, job
// failure) without inspecting message text.
package services
