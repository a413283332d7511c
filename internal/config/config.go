// Package config provides application configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	// DBPath is the SQLite file. Empty means the XDG data directory.
	DBPath     string         `yaml:"db_path"`
	HTTPAddr   string         `yaml:"http_addr"`
	OutlineDir string         `yaml:"outline_dir"`
	Log        LogConfig      `yaml:"log"`
	Tutor      TutorConfig    `yaml:"tutor"`
	Registry   RegistryConfig `yaml:"registry"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// TutorConfig tunes session behavior.
type TutorConfig struct {
	BreakThresholdMinutes float64 `yaml:"break_threshold_minutes"`
	Assessment            bool    `yaml:"assessment"`
	MaxDrainSteps         int     `yaml:"max_drain_steps"`
}

// RegistryConfig bounds the live session registry.
type RegistryConfig struct {
	MaxSessions   int           `yaml:"max_sessions"`
	IdleTTL       time.Duration `yaml:"idle_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HTTPAddr:   ":8080",
		OutlineDir: "outlines",
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Tutor: TutorConfig{
			BreakThresholdMinutes: 25,
			Assessment:            true,
			MaxDrainSteps:         50,
		},
		Registry: RegistryConfig{
			MaxSessions:   1000,
			IdleTTL:       30 * time.Minute,
			SweepInterval: time.Minute,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path
// (skipped when path is empty), then TUTORLY_* environment variables. A
// .env file in the working directory is loaded into the environment
// first when present.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.DBPath = getEnv("TUTORLY_DB", c.DBPath)
	c.HTTPAddr = getEnv("TUTORLY_HTTP_ADDR", c.HTTPAddr)
	c.OutlineDir = getEnv("TUTORLY_OUTLINE_DIR", c.OutlineDir)
	c.Log.Level = getEnv("TUTORLY_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("TUTORLY_LOG_FORMAT", c.Log.Format)
	c.Log.File = getEnv("TUTORLY_LOG_FILE", c.Log.File)
	c.Tutor.BreakThresholdMinutes = getEnvFloat("TUTORLY_BREAK_THRESHOLD_MINUTES", c.Tutor.BreakThresholdMinutes)
	c.Tutor.Assessment = getEnvBool("TUTORLY_ASSESSMENT", c.Tutor.Assessment)
	c.Tutor.MaxDrainSteps = getEnvInt("TUTORLY_MAX_DRAIN_STEPS", c.Tutor.MaxDrainSteps)
	c.Registry.MaxSessions = getEnvInt("TUTORLY_MAX_SESSIONS", c.Registry.MaxSessions)
	c.Registry.IdleTTL = getEnvDuration("TUTORLY_IDLE_TTL", c.Registry.IdleTTL)
	c.Registry.SweepInterval = getEnvDuration("TUTORLY_SWEEP_INTERVAL", c.Registry.SweepInterval)
}

// Validate checks that every setting is usable.
func (c Config) Validate() error {
	if c.HTTPAddr == "" {
		return fmt.Errorf("http_addr cannot be empty")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	if c.Tutor.BreakThresholdMinutes <= 0 {
		return fmt.Errorf("tutor.break_threshold_minutes must be > 0")
	}
	if c.Tutor.MaxDrainSteps <= 0 {
		return fmt.Errorf("tutor.max_drain_steps must be > 0")
	}
	if c.Registry.MaxSessions <= 0 {
		return fmt.Errorf("registry.max_sessions must be > 0")
	}
	if c.Registry.IdleTTL < 0 {
		return fmt.Errorf("registry.idle_ttl cannot be negative")
	}
	if c.Registry.SweepInterval <= 0 {
		return fmt.Errorf("registry.sweep_interval must be > 0")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
