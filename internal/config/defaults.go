package config

const (
	defaultDataDir            = "~/.local/share/lineup/data"
	defaultLogDir             = "~/.local/share/lineup/logs"
	defaultAPIBind            = "127.0.0.1:7519"
	defaultAutosaveDebounce   = 3
	defaultSessionIdleTimeout = 1800
	defaultGenerationBaseURL  = "http://127.0.0.1:8420"
	defaultRequestTimeout     = 30
	defaultPollInterval       = 3
	defaultPollTimeout        = 600
	defaultRetryAttempts      = 5
	defaultGranularityMinutes = 30
	defaultHorizonDays        = 7
	defaultWindowStartHour    = 9
	defaultWindowEndHour      = 21
	defaultPublishTimeout     = 30
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Workflow: Workflow{
			AutosaveDebounce:   defaultAutosaveDebounce,
			SessionIdleTimeout: defaultSessionIdleTimeout,
		},
		Generation: Generation{
			BaseURL:        defaultGenerationBaseURL,
			RequestTimeout: defaultRequestTimeout,
			PollInterval:   defaultPollInterval,
			PollTimeout:    defaultPollTimeout,
			RetryAttempts:  defaultRetryAttempts,
		},
		Scheduling: Scheduling{
			GranularityMinutes: defaultGranularityMinutes,
			HorizonDays:        defaultHorizonDays,
			WindowStartHour:    defaultWindowStartHour,
			WindowEndHour:      defaultWindowEndHour,
		},
		Publish: Publish{
			RequestTimeout: defaultPublishTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
