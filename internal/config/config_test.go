package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lineup/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be reported missing")
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.Workflow.AutosaveDebounce != 3 {
		t.Fatalf("expected default autosave debounce, got %d", cfg.Workflow.AutosaveDebounce)
	}
	if cfg.Scheduling.GranularityMinutes != 30 {
		t.Fatalf("expected default granularity, got %d", cfg.Scheduling.GranularityMinutes)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		"[paths]",
		`data_dir = "` + filepath.Join(dir, "data") + `"`,
		`log_dir = "` + filepath.Join(dir, "logs") + `"`,
		"[workflow]",
		"strict_prepare = true",
		"[scheduling]",
		"granularity_minutes = 15",
		"[platforms.twitter]",
		"character_limit = 280",
		"preview_length = 280",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if !cfg.Workflow.StrictPrepare {
		t.Fatal("expected strict_prepare override")
	}
	if cfg.Scheduling.GranularityMinutes != 15 {
		t.Fatalf("granularity = %d, want 15", cfg.Scheduling.GranularityMinutes)
	}
	if cfg.Platforms["twitter"].CharacterLimit != 280 {
		t.Fatalf("unexpected platform override: %#v", cfg.Platforms["twitter"])
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero debounce", func(c *config.Config) { c.Workflow.AutosaveDebounce = 0 }},
		{"poll timeout below interval", func(c *config.Config) {
			c.Generation.PollInterval = 10
			c.Generation.PollTimeout = 5
		}},
		{"inverted window", func(c *config.Config) {
			c.Scheduling.WindowStartHour = 20
			c.Scheduling.WindowEndHour = 8
		}},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }},
		{"negative platform limit", func(c *config.Config) {
			c.Platforms = map[string]config.PlatformOverride{"instagram": {CharacterLimit: -1}}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestSampleConfigNotEmpty(t *testing.T) {
	if !strings.Contains(config.SampleConfig(), "[workflow]") {
		t.Fatal("sample config should document the workflow section")
	}
}
