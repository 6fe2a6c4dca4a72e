package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// MB is bytes per megabyte
const MB = 1024 * 1024

type Config struct {
	Port        string
	Environment string
	DatabaseURL string // empty = in-memory store
	TablePrefix string
	AutoMigrate bool
	CORSOrigins string
	// Identity
	AuthJWKSURL string // empty in dev = every request acts as DevOwnerID
	DevOwnerID  string
	// Blob storage
	BlobDir               string
	PublicBaseURL         string
	BlobDeleteConcurrency int
	MaxUploadBytes        int64
	// Logging
	LogDir      string
	LogMaxFiles int
}

// ConfigOverride uses pointer fields to distinguish between unset and zero
// values when loading a partial YAML file.
type ConfigOverride struct {
	Port                  *string `yaml:"port,omitempty"`
	DatabaseURL           *string `yaml:"database_url,omitempty"`
	TablePrefix           *string `yaml:"table_prefix,omitempty"`
	AutoMigrate           *bool   `yaml:"auto_migrate,omitempty"`
	CORSOrigins           *string `yaml:"cors_origins,omitempty"`
	AuthJWKSURL           *string `yaml:"auth_jwks_url,omitempty"`
	DevOwnerID            *string `yaml:"dev_owner_id,omitempty"`
	BlobDir               *string `yaml:"blob_dir,omitempty"`
	PublicBaseURL         *string `yaml:"public_base_url,omitempty"`
	BlobDeleteConcurrency *int    `yaml:"blob_delete_concurrency,omitempty"`
	MaxUploadBytes        *int64  `yaml:"max_upload_bytes,omitempty"`
	LogDir                *string `yaml:"log_dir,omitempty"`
	LogMaxFiles           *int    `yaml:"log_max_files,omitempty"`
}

// Load reads the configuration from the environment and applies the YAML
// file named by ALBUM_CONFIG on top when set.
func Load() (*Config, error) {
	env := getEnv("ENVIRONMENT", "dev")
	port := getEnv("PORT", "8080")

	cfg := &Config{
		Port:                  port,
		Environment:           env,
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		TablePrefix:           getTablePrefix(env),
		AutoMigrate:           getEnv("AUTO_MIGRATE", getDefaultAutoMigrate(env)) == "true",
		CORSOrigins:           getEnv("CORS_ORIGINS", "http://localhost:3000"),
		AuthJWKSURL:           getEnv("AUTH_JWKS_URL", ""),
		DevOwnerID:            getEnv("DEV_OWNER_ID", "dev-owner"),
		BlobDir:               getEnv("BLOB_DIR", "./uploads"),
		PublicBaseURL:         getEnv("PUBLIC_BASE_URL", "http://localhost:"+port),
		BlobDeleteConcurrency: getEnvInt("BLOB_DELETE_CONCURRENCY", DefaultBlobDeleteConcurrency),
		MaxUploadBytes:        int64(getEnvInt("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes)),
		LogDir:                getEnv("LOG_DIR", ""),
		LogMaxFiles:           getEnvInt("LOG_MAX_FILES", 10),
	}

	if path := os.Getenv("ALBUM_CONFIG"); path != "" {
		override, err := LoadOverrideFile(path)
		if err != nil {
			return nil, err
		}
		cfg.Merge(override)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Merge applies non-nil values from override onto this Config
func (c *Config) Merge(override *ConfigOverride) {
	if override == nil {
		return
	}
	mergeValue(&c.Port, override.Port)
	mergeValue(&c.DatabaseURL, override.DatabaseURL)
	mergeValue(&c.TablePrefix, override.TablePrefix)
	mergeValue(&c.AutoMigrate, override.AutoMigrate)
	mergeValue(&c.CORSOrigins, override.CORSOrigins)
	mergeValue(&c.AuthJWKSURL, override.AuthJWKSURL)
	mergeValue(&c.DevOwnerID, override.DevOwnerID)
	mergeValue(&c.BlobDir, override.BlobDir)
	mergeValue(&c.PublicBaseURL, override.PublicBaseURL)
	mergeValue(&c.BlobDeleteConcurrency, override.BlobDeleteConcurrency)
	mergeValue(&c.MaxUploadBytes, override.MaxUploadBytes)
	mergeValue(&c.LogDir, override.LogDir)
	mergeValue(&c.LogMaxFiles, override.LogMaxFiles)
}

func mergeValue[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Validate rejects settings the server cannot run with
func (c *Config) Validate() error {
	if c.BlobDeleteConcurrency < 1 {
		return fmt.Errorf("BLOB_DELETE_CONCURRENCY must be at least 1, got %d", c.BlobDeleteConcurrency)
	}
	if c.MaxUploadBytes < 1 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}
	if c.Environment == "prod" && c.AuthJWKSURL == "" {
		return fmt.Errorf("AUTH_JWKS_URL is required when ENVIRONMENT=prod")
	}
	return nil
}

// UseMemoryStore reports whether no database is configured
func (c *Config) UseMemoryStore() bool {
	return c.DatabaseURL == ""
}

// LoadOverrideFile reads a YAML override file without merging it
func LoadOverrideFile(path string) (*ConfigOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var override ConfigOverride
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("unmarshal config file %s: %w", path, err)
	}
	return &override, nil
}

// getDefaultAutoMigrate creates tables on startup outside production
func getDefaultAutoMigrate(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: ignoring non-numeric %s=%q\n", key, raw)
		return defaultValue
	}
	return n
}
