// Package genjob tracks AI-generation work as asynchronous, pollable jobs:
// idempotent submission, crash-safe resumption, and a cancellable polling
// loop over an external backend.
package genjob
