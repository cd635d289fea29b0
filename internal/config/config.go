// Package config provides Viper-based configuration loading for the firearm
// simulation server and its viewers.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// SimulationConfig holds tick loop settings.
type SimulationConfig struct {
	// TickInterval is the period between simulation ticks.
	TickInterval time.Duration `mapstructure:"tick_interval"`
	// Seed seeds cylinder spins. Zero selects the crypto source.
	Seed int64 `mapstructure:"seed"`
	// CommandBuffer is the number of commands queued between ticks.
	CommandBuffer int `mapstructure:"command_buffer"`
}

// ReplicationConfig holds snapshot payload settings.
type ReplicationConfig struct {
	// Compression is the payload compression: "none", "snappy" or "zstd".
	Compression string `mapstructure:"compression"`
	// MaxPayloadBytes caps a decompressed payload.
	MaxPayloadBytes int `mapstructure:"max_payload_bytes"`
}

// FeedConfig holds websocket feed settings.
type FeedConfig struct {
	// Host is the bind address for the feed listener, and the address
	// viewers dial.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the feed listener.
	Port int `mapstructure:"port"`
	// Path is the HTTP path serving the websocket upgrade.
	Path string `mapstructure:"path"`
	// WriteTimeout is the per-message write deadline. Zero disables it.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// RetryInitial is the first delay before a viewer resubscribes.
	RetryInitial time.Duration `mapstructure:"retry_initial"`
	// RetryMax caps the delay between resubscription attempts.
	RetryMax time.Duration `mapstructure:"retry_max"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (f FeedConfig) Addr() string {
	return fmt.Sprintf("%s:%d", f.Host, f.Port)
}

// URL returns the websocket URL viewers dial.
func (f FeedConfig) URL() string {
	return fmt.Sprintf("ws://%s%s", f.Addr(), f.Path)
}

// ContentConfig holds content directory settings.
type ContentConfig struct {
	// FirearmsDir holds one YAML FirearmDef per file.
	FirearmsDir string `mapstructure:"firearms_dir"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging     LoggingConfig     `mapstructure:"logging"`
	Simulation  SimulationConfig  `mapstructure:"simulation"`
	Replication ReplicationConfig `mapstructure:"replication"`
	Feed        FeedConfig        `mapstructure:"feed"`
	Content     ContentConfig     `mapstructure:"content"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateSimulation(c.Simulation); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateReplication(c.Replication); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateFeed(c.Feed); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Content.FirearmsDir == "" {
		errs = append(errs, "content.firearms_dir must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateSimulation(s SimulationConfig) error {
	var errs []string
	if s.TickInterval <= 0 {
		errs = append(errs, fmt.Sprintf("simulation.tick_interval must be > 0, got %s", s.TickInterval))
	}
	if s.CommandBuffer < 1 {
		errs = append(errs, fmt.Sprintf("simulation.command_buffer must be >= 1, got %d", s.CommandBuffer))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateReplication(r ReplicationConfig) error {
	var errs []string
	validCompression := map[string]bool{"none": true, "snappy": true, "zstd": true}
	if !validCompression[r.Compression] {
		errs = append(errs, fmt.Sprintf("replication.compression must be one of [none, snappy, zstd], got %q", r.Compression))
	}
	if r.MaxPayloadBytes < 64 {
		errs = append(errs, fmt.Sprintf("replication.max_payload_bytes must be >= 64, got %d", r.MaxPayloadBytes))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateFeed(f FeedConfig) error {
	var errs []string
	if f.Host == "" {
		errs = append(errs, "feed.host must not be empty")
	}
	if f.Port < 1 || f.Port > 65535 {
		errs = append(errs, fmt.Sprintf("feed.port must be 1-65535, got %d", f.Port))
	}
	if !strings.HasPrefix(f.Path, "/") {
		errs = append(errs, fmt.Sprintf("feed.path must start with /, got %q", f.Path))
	}
	if f.WriteTimeout < 0 {
		errs = append(errs, "feed.write_timeout must not be negative")
	}
	if f.RetryInitial <= 0 {
		errs = append(errs, fmt.Sprintf("feed.retry_initial must be > 0, got %s", f.RetryInitial))
	}
	if f.RetryMax < f.RetryInitial {
		errs = append(errs, fmt.Sprintf("feed.retry_max %s must be >= feed.retry_initial %s", f.RetryMax, f.RetryInitial))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with GUNFEED_ prefix
	v.SetEnvPrefix("GUNFEED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("simulation.tick_interval", "50ms")
	v.SetDefault("simulation.seed", 0)
	v.SetDefault("simulation.command_buffer", 256)

	v.SetDefault("replication.compression", "snappy")
	v.SetDefault("replication.max_payload_bytes", 4096)

	v.SetDefault("feed.host", "127.0.0.1")
	v.SetDefault("feed.port", 7400)
	v.SetDefault("feed.path", "/feed")
	v.SetDefault("feed.write_timeout", "5s")
	v.SetDefault("feed.retry_initial", "250ms")
	v.SetDefault("feed.retry_max", "10s")

	v.SetDefault("content.firearms_dir", "content/firearms")
}
