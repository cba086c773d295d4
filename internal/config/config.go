package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DatabasePath      string
	ProductsCSV       string
	ReplacementsCSV   string
	TariffsCSV        string
	RecommenderURL    string
	RefreshSchedule   string
	LogLevel          string
	Port              int
	DevMode           bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnvAsInt("PORT", 8000),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		DatabasePath:    getEnv("DATABASE_PATH", "./data/decisions.db"),
		ProductsCSV:     getEnv("PRODUCTS_CSV", "./data/products.csv"),
		ReplacementsCSV: getEnv("REPLACEMENTS_CSV", "./data/replacements.csv"),
		TariffsCSV:      getEnv("TARIFFS_CSV", "./data/tariff.csv"),
		RecommenderURL:  getEnv("RECOMMENDER_URL", "http://localhost:9000"),
		RefreshSchedule: getEnv("REFRESH_SCHEDULE", "@every 6h"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.ProductsCSV == "" || c.ReplacementsCSV == "" {
		return fmt.Errorf("PRODUCTS_CSV and REPLACEMENTS_CSV are required")
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
