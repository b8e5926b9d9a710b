// Package logger holds the process-wide structured logger. It wraps a
// zap SugaredLogger so library packages can emit keyed fields without
// carrying a logger through every call.
//
// Before Init the package logs through a no-op logger, so importing
// packages are usable from tests without any setup.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log = zap.NewNop().Sugar()

// Config controls the global logger.
type Config struct {
	// Level is debug, info, warn or error.
	Level string

	// Format is "human" (console, colored levels) or "json".
	Format string

	// Output is "stdout", "stderr" or a file path.
	Output string
}

// Init builds and installs the global logger. Call once at process
// start; later calls replace the logger, which is only useful in tests.
func Init(cfg Config) error {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", cfg.Level, err)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	if cfg.Output != "" {
		zapCfg.OutputPaths = []string{cfg.Output}
	}

	built, err := zapCfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	log = built.Sugar()
	return nil
}

// Sync flushes buffered log output; call on shutdown.
func Sync() {
	_ = log.Sync()
}

func Debug(msg string, kv ...any) { log.Debugw(msg, kv...) }
func Info(msg string, kv ...any)  { log.Infow(msg, kv...) }
func Warn(msg string, kv ...any)  { log.Warnw(msg, kv...) }
func Error(msg string, kv ...any) { log.Errorw(msg, kv...) }
