// Package draft provides crash-resilient recovery of in-progress staging
// sessions: one versioned draft record per project, a pure migration chain
// across record versions, and a debounced autosaver.
package draft
