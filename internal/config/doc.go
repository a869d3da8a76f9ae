// Package config loads, normalizes, and validates lineup's TOML
// configuration.
package config
