// Package platform defines the known publishing platforms, their content
// constraints, and per-platform character counting.
package platform
