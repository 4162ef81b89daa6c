package config

import (
	"fmt"
	"os"
)

// Config holds application configuration
type Config struct {
	Port            string
	DBConn          string
	LogLevel        string
	APIToken        string
	MaintenanceCron string
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	dbConn := os.Getenv("DB_CONN_STR")
	if dbConn == "" {
		// Build it from individual vars (Docker friendly)
		dbConn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			getEnv("DB_HOST", "localhost"),
			getEnv("DB_PORT", "5432"),
			getEnv("DB_USER", "postgres"),
			getEnv("DB_PASSWORD", "postgres"),
			getEnv("DB_NAME", "finsight"),
		)
	}

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		DBConn:          dbConn,
		LogLevel:        getEnv("LOG_LEVEL", "INFO"),
		APIToken:        getEnv("API_TOKEN", "dev-token"),
		MaintenanceCron: getEnv("MAINTENANCE_CRON", "0 6 * * *"),
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN_STR is required")
	}
	if cfg.APIToken == "" {
		return nil, fmt.Errorf("API_TOKEN is required")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
