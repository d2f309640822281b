// Package config reads server configuration from the environment.
package config

import (
	"fmt"
	"os"
)

// Config holds everything the server needs from the environment.
type Config struct {
	Environment string
	Port        string

	DatabaseURL string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	JWTSecret []byte

	LogLevel string
	LogFile  string

	AWSRegion  string
	S3Bucket   string
	CDNBaseURL string

	AllowedOrigins []string
}

// Load builds a Config from environment variables. JWT_SECRET is the only
// hard requirement; everything else has a development default or disables
// the optional dependency when empty.
func Load() (*Config, error) {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	cfg := &Config{
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),
		Port:        getEnvOrDefault("PORT", "8787"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		JWTSecret: []byte(jwtSecret),

		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:  getEnvOrDefault("LOG_FILE", "server.log"),

		AWSRegion:  os.Getenv("AWS_REGION"),
		S3Bucket:   os.Getenv("AWS_BUCKET"),
		CDNBaseURL: os.Getenv("CDN_BASE_URL"),

		AllowedOrigins: []string{getEnvOrDefault("CLIENT_ORIGIN", "http://localhost:5173")},
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
