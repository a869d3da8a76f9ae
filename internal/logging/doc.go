// Package logging builds the slog loggers used across lineup and defines
// the standardized structured field names.
package logging
