// Package observability builds the structured logger shared by every gunfeed
// component.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/gunfeed/internal/config"
)

// NewLogger creates a structured logger from the given logging configuration.
//
// Precondition: cfg.Level must be one of "debug", "info", "warn", "error".
// Precondition: cfg.Format must be "json" or "console".
// Postcondition: Returns a configured zap.Logger or a non-nil error.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	var zapCfg zap.Config
	switch cfg.Format {
	case "json":
		zapCfg = zap.NewProductionConfig()
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

// ConfigFields summarises cfg for the startup log line.
func ConfigFields(cfg config.Config) []zap.Field {
	return []zap.Field{
		zap.Duration("tick_interval", cfg.Simulation.TickInterval),
		zap.Bool("seeded", cfg.Simulation.Seed != 0),
		zap.Int("command_buffer", cfg.Simulation.CommandBuffer),
		zap.String("compression", cfg.Replication.Compression),
		zap.Int("max_payload_bytes", cfg.Replication.MaxPayloadBytes),
		zap.String("feed", cfg.Feed.URL()),
		zap.String("firearms_dir", cfg.Content.FirearmsDir),
	}
}
