package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName string
	Debug   bool
	Port    string

	// Logging
	LogLevel string
	LogJSON  bool

	// Database
	// DatabaseType selects the storage dialect once at startup:
	// "postgres" (logical dump/restore via pg_dump/psql) or
	// "sqlite" (single-file store copy).
	DatabaseType string
	DatabaseHost string
	DatabasePort int
	DatabaseUser string
	DatabasePass string
	DatabaseName string
	DatabasePath string // sqlite only

	// Authentication
	JWTSecret string

	// File storage
	MediaRoot      string
	LocalBackupDir string // empty disables local backup

	// Upload size limits in bytes, by item type
	MaxTextSize  int64
	MaxImageSize int64
	MaxVideoSize int64
	MaxFileSize  int64
}

var AppConfig *Config

// Load loads configuration from environment
func Load() *Config {
	// Load .env file if exists
	_ = godotenv.Load()

	config := &Config{
		AppName:  getEnv("APP_NAME", "Keepr"),
		Debug:    getEnvBool("DEBUG", true),
		Port:     getEnv("PORT", "8000"),
		LogLevel: getEnv("LOG_LEVEL", "INFO"),
		LogJSON:  getEnvBool("LOG_JSON", false),

		DatabaseType: getEnv("DATABASE_TYPE", "sqlite"),
		DatabaseHost: getEnv("DATABASE_HOST", "localhost"),
		DatabasePort: getEnvInt("DATABASE_PORT", 5432),
		DatabaseUser: getEnv("DATABASE_USER", "keepr"),
		DatabasePass: getEnv("DATABASE_PASSWORD", ""),
		DatabaseName: getEnv("DATABASE_NAME", "keepr"),
		DatabasePath: getEnv("DATABASE_PATH", "./keepr.db"),

		JWTSecret: getEnv("JWT_SECRET", "change-me-in-production-please-use-a-random-string"),

		MediaRoot:      getEnv("MEDIA_ROOT", "./media"),
		LocalBackupDir: getEnv("LOCAL_BACKUP_DIR", ""),

		MaxTextSize:  getEnvInt64("MAX_TEXT_SIZE", 1<<20),    // 1 MiB
		MaxImageSize: getEnvInt64("MAX_IMAGE_SIZE", 20<<20),  // 20 MiB
		MaxVideoSize: getEnvInt64("MAX_VIDEO_SIZE", 500<<20), // 500 MiB
		MaxFileSize:  getEnvInt64("MAX_FILE_SIZE", 100<<20),  // 100 MiB
	}

	AppConfig = config
	return config
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Warning: invalid boolean value for %s: %s, using default", key, value)
		return defaultValue
	}
	return boolValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: invalid integer value for %s: %s, using default", key, value)
		return defaultValue
	}
	return intValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		log.Printf("Warning: invalid integer value for %s: %s, using default", key, value)
		return defaultValue
	}
	return intValue
}
