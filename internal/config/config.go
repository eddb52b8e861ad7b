// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port              int
	LogLevel          string
	DevMode           bool
	DefaultPeriod     string        // Period requested from the data source when the caller omits one
	FallbackPeriod    string        // Broadest period used for the single fallback fetch attempt
	PriceCacheTTL     time.Duration // How long fetched price series stay in the in-memory cache
	RiskFreeRate      float64       // Annual risk-free rate used by the Sharpe ratio when none is supplied
	SimulationWorkers int           // Monte Carlo worker goroutines; 0 means one per CPU
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnvAsInt("QUANTDESK_PORT", 8000),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		DevMode:           getEnvAsBool("DEV_MODE", false),
		DefaultPeriod:     getEnv("DEFAULT_PERIOD", "2y"),
		FallbackPeriod:    getEnv("FALLBACK_PERIOD", "max"),
		PriceCacheTTL:     time.Duration(getEnvAsInt("PRICE_CACHE_TTL_MINUTES", 15)) * time.Minute,
		RiskFreeRate:      getEnvAsFloat("RISK_FREE_RATE", 0.0),
		SimulationWorkers: getEnvAsInt("SIMULATION_WORKERS", 0),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.PriceCacheTTL < 0 {
		return fmt.Errorf("price cache TTL must not be negative")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
