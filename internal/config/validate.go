package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateGeneration(); err != nil {
		return err
	}
	if err := c.validateScheduling(); err != nil {
		return err
	}
	if err := c.validatePublish(); err != nil {
		return err
	}
	if err := c.validatePlatforms(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.AutosaveDebounce <= 0 {
		return errors.New("workflow.autosave_debounce must be positive (seconds)")
	}
	if c.Workflow.SessionIdleTimeout <= 0 {
		return errors.New("workflow.session_idle_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateGeneration() error {
	if strings.TrimSpace(c.Generation.BaseURL) == "" {
		return errors.New("generation.base_url must be set")
	}
	if err := ensurePositiveMap(map[string]int{
		"generation.request_timeout": c.Generation.RequestTimeout,
		"generation.poll_interval":   c.Generation.PollInterval,
		"generation.poll_timeout":    c.Generation.PollTimeout,
		"generation.retry_attempts":  c.Generation.RetryAttempts,
	}); err != nil {
		return err
	}
	if c.Generation.PollTimeout <= c.Generation.PollInterval {
		return errors.New("generation.poll_timeout must be greater than generation.poll_interval")
	}
	return nil
}

func (c *Config) validateScheduling() error {
	if err := ensurePositiveMap(map[string]int{
		"scheduling.granularity_minutes": c.Scheduling.GranularityMinutes,
		"scheduling.horizon_days":        c.Scheduling.HorizonDays,
	}); err != nil {
		return err
	}
	if c.Scheduling.WindowStartHour < 0 || c.Scheduling.WindowStartHour > 23 {
		return errors.New("scheduling.window_start_hour must be between 0 and 23")
	}
	if c.Scheduling.WindowEndHour < 1 || c.Scheduling.WindowEndHour > 24 {
		return errors.New("scheduling.window_end_hour must be between 1 and 24")
	}
	if c.Scheduling.WindowEndHour <= c.Scheduling.WindowStartHour {
		return errors.New("scheduling.window_end_hour must be greater than scheduling.window_start_hour")
	}
	return nil
}

func (c *Config) validatePublish() error {
	if c.Publish.RequestTimeout <= 0 {
		return errors.New("publish.request_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validatePlatforms() error {
	for name, override := range c.Platforms {
		if override.CharacterLimit < 0 {
			return fmt.Errorf("platforms.%s.character_limit must be >= 0", name)
		}
		if override.PreviewLength < 0 {
			return fmt.Errorf("platforms.%s.preview_length must be >= 0", name)
		}
		if override.PreviewLength > 0 && override.CharacterLimit > 0 && override.PreviewLength > override.CharacterLimit {
			return fmt.Errorf("platforms.%s.preview_length must not exceed character_limit", name)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
