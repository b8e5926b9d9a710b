package config

import "strings"

// Default read-policy values.
const (
	DefaultBufferSize = 64 * 1024
	DefaultExtraReads = 0
)

// ApplyDefaults fills unset fields with working values. Explicitly set
// values are preserved; only zero values are replaced.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyReadDefaults(&cfg.Read)
	applyMetricsDefaults(&cfg.Metrics)
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	cfg.Level = strings.ToLower(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "human"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyReadDefaults(cfg *ReadConfig) {
	if cfg.BufferSize == 0 {
		cfg.BufferSize = DefaultBufferSize
	}
	if cfg.ExtraReads == 0 {
		cfg.ExtraReads = DefaultExtraReads
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Listen == "" {
		cfg.Listen = "127.0.0.1:9464"
	}
}
