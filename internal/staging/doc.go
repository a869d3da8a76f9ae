// Package staging drives the fixed Select → Prepare → Schedule → Review
// pipeline for one project at a time. A session owns the authoritative
// in-memory working set, autosaves a recoverable draft on a debounce, and
// composes the validator, scheduling assistant, generation job manager, and
// publish committer.
package staging
