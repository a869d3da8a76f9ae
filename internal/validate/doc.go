// Package validate enforces per-platform content constraints before staged
// items can be scheduled: character limits, required fields, and truncation
// previews.
package validate
