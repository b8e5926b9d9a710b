// Package config loads and validates the toolkit configuration.
//
// Sources, in order of precedence: CLI flags (bound by the cmd layer),
// environment variables (USNJRNL_*), a YAML config file, defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config is the complete toolkit configuration.
type Config struct {
	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging"`

	// Session configures the journal session.
	Session SessionConfig `mapstructure:"session"`

	// Read is the default read policy, overridable per volume.
	Read ReadConfig `mapstructure:"read"`

	// Metrics controls the optional Prometheus endpoint.
	Metrics MetricsConfig `mapstructure:"metrics"`

	// Volumes holds per-volume read policy overrides, keyed by the hex
	// volume serial (as printed by the volumes command). Only the keys
	// present in an override section replace the defaults.
	Volumes map[string]map[string]any `mapstructure:"volumes"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is the minimum level: debug, info, warn, error.
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`

	// Format is "human" or "json".
	Format string `mapstructure:"format" validate:"required,oneof=human json"`

	// Output is stdout, stderr, or a file path.
	Output string `mapstructure:"output" validate:"required"`
}

// SessionConfig fixes the session-level choices that must stay constant
// across every operation of one journal session.
type SessionConfig struct {
	// Privileged selects device-path addressing and the privileged read
	// control code. Requires administrative rights.
	Privileged bool `mapstructure:"privileged"`
}

// ReadConfig is the read-loop policy.
type ReadConfig struct {
	// BufferSize is the physical read buffer in bytes. Large enough for
	// several hundred records per kernel call.
	BufferSize int `mapstructure:"buffer_size" validate:"gte=4096,lte=16777216"`

	// TimeLimit is the soft wall-clock budget for one paged read; zero
	// disables it. Checked between physical reads only.
	TimeLimit time.Duration `mapstructure:"time_limit" validate:"gte=0"`

	// ExtraReads is the over-read allowance consumed after the cursor
	// passes an explicit end cursor.
	ExtraReads int `mapstructure:"extra_reads" validate:"gte=0"`

	// ReasonMask filters records by reason bits; zero means all.
	ReasonMask uint32 `mapstructure:"reason_mask"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Listen is the address the /metrics listener binds when enabled.
	Listen string `mapstructure:"listen" validate:"omitempty,hostname_port"`
}

// Load reads, defaults and validates the configuration. An empty
// configPath searches the default location; a missing file is fine and
// yields pure defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// ReadConfigFor resolves the effective read policy for a volume serial:
// the global defaults overlaid with the volume's override section, if
// any. Override sections are partial; absent keys keep the default.
func (c *Config) ReadConfigFor(serial uint64) (ReadConfig, error) {
	effective := c.Read
	section, ok := c.Volumes[fmt.Sprintf("%x", serial)]
	if !ok {
		return effective, nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     &effective,
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return ReadConfig{}, fmt.Errorf("volume %x override: %w", serial, err)
	}
	if err := dec.Decode(section); err != nil {
		return ReadConfig{}, fmt.Errorf("volume %x override: %w", serial, err)
	}
	if err := Validate(&Config{Logging: c.Logging, Read: effective, Metrics: c.Metrics}); err != nil {
		return ReadConfig{}, fmt.Errorf("volume %x override: %w", serial, err)
	}
	return effective, nil
}

func setupViper(v *viper.Viper, configPath string) {
	// USNJRNL_LOGGING_LEVEL=debug style environment overrides.
	v.SetEnvPrefix("USNJRNL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		// An explicitly named file that is missing should also not be
		// fatal; it just means pure defaults.
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	return nil
}

func getConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "usnjrnl")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "usnjrnl")
}
