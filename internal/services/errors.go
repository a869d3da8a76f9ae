package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks per-field content problems. Recoverable and local:
	// it never blocks navigation, only the final commit.
	ErrValidation = errors.New("validation error")
	// ErrJobFailure marks a generation job that the backend reported failed.
	// The retry path submits a new job rather than resurrecting the old one.
	ErrJobFailure = errors.New("generation job failed")
	// ErrTransient marks IO failures that are retried on the next cycle
	// (draft saves, poll requests) without touching domain state.
	ErrTransient = errors.New("transient failure")
	// ErrCommit marks a failed publish hand-off. The staged set stays
	// selectable for retry.
	ErrCommit = errors.New("commit failure")
	// ErrNotFound marks lookups of unknown jobs, sessions, or drafts.
	ErrNotFound = errors.New("not found")
	// ErrConfiguration marks setup problems such as an unknown platform
	// identifier reaching validation. These fail fast.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsRetryable reports whether an error should be silently retried on the
// next cycle rather than surfaced to the user.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}

// BlocksCommit reports whether an error must prevent the publish hand-off.
// Validation and configuration problems block; transient IO does not.
func BlocksCommit(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrConfiguration)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
