package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/joho/godotenv"
)

// Config holds all environment configuration
type Config struct {
	// Database
	DatabaseHost     string
	DatabasePort     string
	PostgresUser     string
	PostgresPassword string
	DatabaseName     string

	// Authentication
	JWTSecret string

	// Competition platform API
	PlatformBaseURL      string
	PlatformTokenURL     string
	PlatformClientID     string
	PlatformClientSecret string
	PlatformUserAgent    string

	// Sync
	SyncIntervalSeconds   int
	StatusIntervalSeconds int

	// Other
	KafkaBroker string
}

var (
	appConfig *Config
	onceEnv   sync.Once
)

// loadConfig loads and validates all environment variables
func loadConfig() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	config := &Config{
		// Database - required
		DatabaseHost:     getEnvWithDefault("DATABASE_HOST", "localhost"),
		DatabasePort:     getEnvWithDefault("DATABASE_PORT", "5432"),
		PostgresUser:     getEnvWithDefault("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnvWithDefault("POSTGRES_PASSWORD", "postgres"),
		DatabaseName:     getEnvWithDefault("DATABASE_NAME", "postgres"),

		// JWT - required
		JWTSecret: getEnvWithDefault("JWT_SECRET", "dummyjwt"),

		// Competition platform - required for sync functionality
		PlatformBaseURL:      getEnvWithDefault("PLATFORM_BASE_URL", "https://www.kaggle.com/api/v1"),
		PlatformTokenURL:     getEnv("PLATFORM_TOKEN_URL"),
		PlatformClientID:     getEnv("PLATFORM_CLIENT_ID"),
		PlatformClientSecret: getEnv("PLATFORM_CLIENT_SECRET"),
		PlatformUserAgent:    getEnvWithDefault("PLATFORM_USER_AGENT", "mlboard-sync"),

		// Sync
		SyncIntervalSeconds:   getEnvAsInt("SYNC_INTERVAL_SECONDS", 300),
		StatusIntervalSeconds: getEnvAsInt("STATUS_INTERVAL_SECONDS", 60),

		// Other
		KafkaBroker: getEnvWithDefault("KAFKA_BROKER", "localhost:9092"),
	}

	appConfig = config
	return config
}

func Env() *Config {
	onceEnv.Do(func() {
		appConfig = loadConfig()
	})
	return appConfig
}

// Helper functions
func getEnv(key string) string {
	value := os.Getenv(key)
	if value == "" && IsProduction() {
		panic(fmt.Sprintf("Required environment variable %s is not set", key))
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var value int
	_, err := fmt.Sscanf(valueStr, "%d", &value)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// IsProduction returns true if running in production
func IsProduction() bool {
	return getEnvWithDefault("ENVIRONMENT", "development") == "production"
}

// IsDevelopment returns true if running in development
func IsDevelopment() bool {
	return !IsProduction()
}
