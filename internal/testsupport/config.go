package testsupport

import (
	"path/filepath"
	"testing"

	"lineup/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithStrictPrepare enables hard-blocking advancement on validation errors.
func WithStrictPrepare() ConfigOption {
	return func(c *config.Config) {
		c.Workflow.StrictPrepare = true
	}
}

// WithGenerationBackend points the generation client at a test server.
func WithGenerationBackend(baseURL string) ConfigOption {
	return func(c *config.Config) {
		c.Generation.BaseURL = baseURL
	}
}

// WithPublishSink points the publish client at a test server.
func WithPublishSink(baseURL string) ConfigOption {
	return func(c *config.Config) {
		c.Publish.SinkURL = baseURL
	}
}
