// Package content defines the staged content item model: artifact kinds,
// their platform fan-out, and per-platform publishable field sets.
package content
