package main

import (
	"strings"
	"sync"

	"lineup/internal/api"
	"lineup/internal/config"
)

type commandContext struct {
	addressFlag *string
	configFlag  *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(addressFlag, configFlag *string) *commandContext {
	return &commandContext{
		addressFlag: addressFlag,
		configFlag:  configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// apiClient builds a client for the daemon API. The --address flag wins over
// the configured bind address.
func (c *commandContext) apiClient() (*api.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	address := ""
	token := ""
	if cfg != nil {
		address = cfg.Paths.APIBind
		token = cfg.Paths.APIToken
	}
	if c.addressFlag != nil && strings.TrimSpace(*c.addressFlag) != "" {
		address = strings.TrimSpace(*c.addressFlag)
	}
	return api.NewClient(address, token), nil
}
