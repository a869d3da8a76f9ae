package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeGeneration()
	c.normalizePublish()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeGeneration() {
	if c.Generation.APIKey == "" {
		if value, ok := os.LookupEnv("LINEUP_GENERATION_API_KEY"); ok {
			c.Generation.APIKey = value
		}
	}
	c.Generation.BaseURL = strings.TrimSpace(c.Generation.BaseURL)
	if c.Generation.BaseURL == "" {
		c.Generation.BaseURL = defaultGenerationBaseURL
	}
}

func (c *Config) normalizePublish() {
	if c.Publish.Token == "" {
		if value, ok := os.LookupEnv("LINEUP_PUBLISH_TOKEN"); ok {
			c.Publish.Token = value
		}
	}
	c.Publish.SinkURL = strings.TrimSpace(c.Publish.SinkURL)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
