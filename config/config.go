package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/caarlos0/env/v11"
	log "github.com/sirupsen/logrus"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string `env:"DATABASE_URL"`
	DatabaseName string `env:"DATABASE_NAME"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"` // "text" or "json"

	// NATS configuration, event forwarding is disabled when empty
	NATSServers       string `env:"NATS_SERVERS"`
	NATSSubjectPrefix string `env:"NATS_SUBJECT_PREFIX" envDefault:"kickwager"`

	// Leaderboard configuration
	LeaderboardBatchSize int `env:"LEADERBOARD_BATCH_SIZE" envDefault:"10"` // member ids per bet query

	// Group configuration
	InviteCodeLength   int `env:"INVITE_CODE_LENGTH" envDefault:"8"`
	InviteCodeAttempts int `env:"INVITE_CODE_ATTEMPTS" envDefault:"5"`
	GroupNameMinLength int `env:"GROUP_NAME_MIN_LENGTH" envDefault:"2"`

	// Environment
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// SetForTesting replaces the global configuration instance
func SetForTesting(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = cfg
}

// NewTestConfig returns a configuration with defaults suitable for tests
func NewTestConfig() *Config {
	return &Config{
		LogLevel:             "debug",
		LogFormat:            "text",
		NATSSubjectPrefix:    "kickwager",
		LeaderboardBatchSize: 10,
		InviteCodeLength:     8,
		InviteCodeAttempts:   5,
		GroupNameMinLength:   2,
		Environment:          "test",
	}
}

// load loads configuration from environment variables
func load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required settings and numeric bounds
func (c *Config) Validate() error {
	if c.Environment != "test" && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.LeaderboardBatchSize < 1 {
		return fmt.Errorf("LEADERBOARD_BATCH_SIZE must be positive, got %d", c.LeaderboardBatchSize)
	}
	if c.InviteCodeLength < 4 {
		return fmt.Errorf("INVITE_CODE_LENGTH must be at least 4, got %d", c.InviteCodeLength)
	}
	if c.InviteCodeAttempts < 1 {
		return fmt.Errorf("INVITE_CODE_ATTEMPTS must be positive, got %d", c.InviteCodeAttempts)
	}
	if c.GroupNameMinLength < 1 {
		return fmt.Errorf("GROUP_NAME_MIN_LENGTH must be positive, got %d", c.GroupNameMinLength)
	}
	return nil
}

// NATSEnabled reports whether committed events should be forwarded to NATS
func (c *Config) NATSEnabled() bool {
	return strings.TrimSpace(c.NATSServers) != ""
}

// ConfigureLogging applies the log level and format to the global logrus logger
func (c *Config) ConfigureLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.WithField("level", c.LogLevel).Warn("Unknown log level, falling back to info")
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if c.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
