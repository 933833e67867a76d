package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// Scheduler configuration
	SchedulerPollInterval time.Duration

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from the environment, reading a local .env file
// first when one exists.
func load() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		SchedulerPollInterval: time.Minute,

		Environment: os.Getenv("ENVIRONMENT"),
	}

	if interval := os.Getenv("SCHEDULER_POLL_INTERVAL_SECONDS"); interval != "" {
		if seconds, err := strconv.Atoi(interval); err == nil && seconds > 0 {
			config.SchedulerPollInterval = time.Duration(seconds) * time.Second
		}
	}

	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}
