package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the shipping service
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Shiprocket ShiprocketConfig
	RedisURL   string
	NATSURL    string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// ShiprocketConfig holds the ShipRocket account credentials
type ShiprocketConfig struct {
	Email    string
	Password string
	BaseURL  string
	Timeout  time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8088"),
			Env:  getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "shipping"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Shiprocket: ShiprocketConfig{
			Email:    getEnv("SHIPROCKET_EMAIL", ""),
			Password: getEnv("SHIPROCKET_PASSWORD", ""),
			BaseURL:  getEnv("SHIPROCKET_BASE_URL", "https://apiv2.shiprocket.in/v1/external"),
			Timeout:  time.Duration(getEnvAsInt("SHIPROCKET_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		// Redis and NATS are optional; empty disables them.
		RedisURL: getEnv("REDIS_URL", ""),
		NATSURL:  getEnv("NATS_URL", ""),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Shiprocket.Email == "" || c.Shiprocket.Password == "" {
		return fmt.Errorf("SHIPROCKET_EMAIL and SHIPROCKET_PASSWORD are required")
	}
	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt gets an integer environment variable or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
