// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir    string // Base directory for the databases (always absolute)
	PolicyPath string // Optional external scoring policy JSON; empty means built-in defaults
	SchemaDir  string // Optional directory of extra validation schemas
	LogLevel   string
	Port       int
	DevMode    bool
	RecalcCron string // Cron spec for the automatic recalculation sweep
	Backup     *BackupConfig
}

// BackupConfig holds the history backup settings. Backups go to any
// S3-compatible object store.
type BackupConfig struct {
	Enabled   bool
	Bucket    string
	Endpoint  string // Custom endpoint for S3-compatible stores; empty for AWS
	Region    string
	AccessKey string
	SecretKey string
	Prefix    string // Object key prefix inside the bucket
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Data directory: CRIVO_DATA_DIR, resolved absolute, created on demand
	dataDir := getEnv("CRIVO_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:    absDataDir,
		PolicyPath: getEnv("CRIVO_POLICY_PATH", ""),
		SchemaDir:  getEnv("CRIVO_SCHEMA_DIR", ""),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		Port:       getEnvAsInt("CRIVO_PORT", 8001),
		DevMode:    getEnvAsBool("DEV_MODE", false),
		RecalcCron: getEnv("CRIVO_RECALC_CRON", "*/15 * * * *"),
		Backup:     loadBackupConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Backup != nil && c.Backup.Enabled && c.Backup.Bucket == "" {
		return fmt.Errorf("backup enabled but CRIVO_BACKUP_BUCKET is empty")
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

func loadBackupConfig() *BackupConfig {
	return &BackupConfig{
		Enabled:   getEnvAsBool("CRIVO_BACKUP_ENABLED", false),
		Bucket:    getEnv("CRIVO_BACKUP_BUCKET", ""),
		Endpoint:  getEnv("CRIVO_BACKUP_ENDPOINT", ""),
		Region:    getEnv("CRIVO_BACKUP_REGION", "auto"),
		AccessKey: getEnv("CRIVO_BACKUP_ACCESS_KEY", ""),
		SecretKey: getEnv("CRIVO_BACKUP_SECRET_KEY", ""),
		Prefix:    getEnv("CRIVO_BACKUP_PREFIX", "crivo-backups"),
	}
}
