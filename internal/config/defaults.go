package config

// GetDefault returns the default configuration
func GetDefault() *Config {
	return &Config{
		LogLevel:             "info",
		RecentWindowHours:    24,
		LargeFileThresholdMB: 500,
		ProgressIntervalMS:   200,
		DryRun:               false,
		Verbose:              false,
	}
}
