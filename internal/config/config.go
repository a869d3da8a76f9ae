package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Workflow contains staging session timing and policy settings.
type Workflow struct {
	// AutosaveDebounce is the seconds of inactivity before a dirty session
	// is persisted to the draft store.
	AutosaveDebounce int `toml:"autosave_debounce"`
	// StrictPrepare hard-blocks advancing out of Prepare while any staged
	// item still fails validation. When false, invalid items carry their
	// errors forward and are blocked at commit instead.
	StrictPrepare bool `toml:"strict_prepare"`
	// SessionIdleTimeout is the seconds of inactivity before the daemon
	// flushes and evicts an open session.
	SessionIdleTimeout int `toml:"session_idle_timeout"`
}

// Generation contains configuration for the external AI generation backend.
type Generation struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	RequestTimeout int    `toml:"request_timeout"`
	// PollInterval is the seconds between job status polls.
	PollInterval int `toml:"poll_interval"`
	// PollTimeout bounds a single poll loop in seconds. On expiry polling
	// stops; the backend job itself is not cancelled.
	PollTimeout   int `toml:"poll_timeout"`
	RetryAttempts int `toml:"retry_attempts"`
}

// Scheduling contains slot assignment settings.
type Scheduling struct {
	GranularityMinutes int `toml:"granularity_minutes"`
	HorizonDays        int `toml:"horizon_days"`
	WindowStartHour    int `toml:"window_start_hour"`
	WindowEndHour      int `toml:"window_end_hour"`
}

// Publish contains configuration for the external calendar/publish sink.
type Publish struct {
	SinkURL        string `toml:"sink_url"`
	Token          string `toml:"token"`
	RequestTimeout int    `toml:"request_timeout"`
}

// PlatformOverride adjusts the built-in rule table for one platform.
type PlatformOverride struct {
	CharacterLimit int `toml:"character_limit"`
	PreviewLength  int `toml:"preview_length"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for lineup.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories and API bind address
//   - Workflow: autosave debounce and prepare-step policy
//   - Generation: external AI generation backend and polling
//   - Scheduling: slot granularity, horizon, and posting window
//   - Publish: external publish sink
//   - Platforms: per-platform rule overrides
//   - Logging: log format and level
type Config struct {
	Paths      Paths                       `toml:"paths"`
	Workflow   Workflow                    `toml:"workflow"`
	Generation Generation                  `toml:"generation"`
	Scheduling Scheduling                  `toml:"scheduling"`
	Publish    Publish                     `toml:"publish"`
	Platforms  map[string]PlatformOverride `toml:"platforms"`
	Logging    Logging                     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/lineup/config.toml")
}

// SampleConfig returns the embedded sample configuration file contents.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes the embedded sample configuration to the given path.
func CreateSample(path string) error {
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("lineup.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
