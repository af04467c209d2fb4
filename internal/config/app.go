package config

import (
	"os"
	"strconv"
)

// AppConfig holds process-level settings sourced from the environment.
type AppConfig struct {
	ListenAddr      string
	FleetConfigPath string
	LogLevel        string
	CORSOrigins     []string
}

// LoadAppConfig reads process settings with defaults suitable for local
// development.
func LoadAppConfig() *AppConfig {
	return &AppConfig{
		ListenAddr:      getEnvAsString("LISTEN_ADDR", "127.0.0.1:8080"),
		FleetConfigPath: getEnvAsString("FLEET_CONFIG", "config.json"),
		LogLevel:        getEnvAsString("LOG_LEVEL", "info"),
		CORSOrigins:     []string{getEnvAsString("CORS_ORIGIN", "http://localhost:3000")},
	}
}

func getEnvAsString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
