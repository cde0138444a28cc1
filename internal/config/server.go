// Package config provides configuration management for Plinth.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment represents the deployment environment.
type Environment string

const (
	// EnvDevelopment is the default local development environment.
	EnvDevelopment Environment = "development"
	// EnvStaging is the staging/pre-production environment.
	EnvStaging Environment = "staging"
	// EnvProduction is the production environment.
	EnvProduction Environment = "production"
)

// Server defaults.
const (
	DefaultListenAddr         = ":8080"
	DefaultRateLimitRequests  = 300
	DefaultRateLimitPeriod    = "1m"
	DefaultStylesheetCacheTTL = time.Hour
	DefaultEventRetentionDays = 90
	DefaultMaxBodyBytes       = 1 << 20
)

// AssetsConfig configures S3-compatible storage for uploaded brand assets.
// Uploads are disabled when Bucket is empty.
type AssetsConfig struct {
	Bucket        string
	Region        string
	Endpoint      string // custom endpoint for MinIO/Wasabi/B2
	PublicBaseURL string // base URL objects are served from; derived from the bucket when empty

	// Static credentials; the default AWS credential chain is used when empty.
	AccessKeyID     string
	SecretAccessKey string
}

// Enabled reports whether asset uploads are configured.
func (a AssetsConfig) Enabled() bool {
	return a.Bucket != ""
}

// ServerConfig holds server-level configuration loaded from environment variables.
type ServerConfig struct {
	Environment        Environment
	ListenAddr         string
	DatabaseURL        string
	RedisURL           string
	CORSOrigins        []string
	RateLimitRequests  int64
	RateLimitPeriod    string
	AdminAPIKeys       []string
	StylesheetCacheTTL time.Duration
	EventRetentionDays int // 0 disables the retention job
	MaxBodyBytes       int64
	LogLevel           string
	MetricsEnabled     bool
	Assets             AssetsConfig
}

// LoadServerConfig reads server configuration from environment variables.
func LoadServerConfig() ServerConfig {
	env := Environment(os.Getenv("ENV"))
	switch env {
	case EnvDevelopment, EnvStaging, EnvProduction:
		// valid
	default:
		env = EnvDevelopment
	}

	listenAddr := getEnv("LISTEN_ADDR", DefaultListenAddr)
	if port := os.Getenv("PORT"); port != "" && os.Getenv("LISTEN_ADDR") == "" {
		listenAddr = ":" + port
	}

	rateLimit := getEnvInt("RATE_LIMIT_REQUESTS", DefaultRateLimitRequests)
	if rateLimit <= 0 {
		rateLimit = DefaultRateLimitRequests
	}

	retention := getEnvInt("EVENT_RETENTION_DAYS", DefaultEventRetentionDays)
	if retention < 0 {
		retention = DefaultEventRetentionDays
	}

	maxBody := getEnvInt("MAX_BODY_BYTES", DefaultMaxBodyBytes)
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	return ServerConfig{
		Environment:        env,
		ListenAddr:         listenAddr,
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		CORSOrigins:        getEnvList("CORS_ORIGINS"),
		RateLimitRequests:  int64(rateLimit),
		RateLimitPeriod:    getEnv("RATE_LIMIT_PERIOD", DefaultRateLimitPeriod),
		AdminAPIKeys:       getEnvList("ADMIN_API_KEYS"),
		StylesheetCacheTTL: getEnvDuration("STYLESHEET_CACHE_TTL", DefaultStylesheetCacheTTL),
		EventRetentionDays: retention,
		MaxBodyBytes:       int64(maxBody),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		MetricsEnabled:     getEnvBool("METRICS_ENABLED", true),
		Assets: AssetsConfig{
			Bucket:        os.Getenv("ASSETS_S3_BUCKET"),
			Region:        getEnv("ASSETS_S3_REGION", "us-east-1"),
			Endpoint:      os.Getenv("ASSETS_S3_ENDPOINT"),
			PublicBaseURL: strings.TrimSuffix(os.Getenv("ASSETS_PUBLIC_BASE_URL"), "/"),

			AccessKeyID:     os.Getenv("ASSETS_S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("ASSETS_S3_SECRET_ACCESS_KEY"),
		},
	}
}

// Validate checks the settings the server cannot start without.
func (c ServerConfig) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.Environment == EnvProduction {
		if len(c.CORSOrigins) == 0 {
			return errors.New("CORS_ORIGINS must be set in production")
		}
		if len(c.AdminAPIKeys) == 0 {
			return errors.New("ADMIN_API_KEYS must be set in production")
		}
	}
	if _, err := time.ParseDuration(c.RateLimitPeriod); err != nil {
		return errors.New("RATE_LIMIT_PERIOD must be a duration such as 1m")
	}
	return nil
}

// IsProduction reports whether the server runs in production.
func (c ServerConfig) IsProduction() bool {
	return c.Environment == EnvProduction
}

func getEnv(key, defaultVal string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return defaultVal
}

// getEnvBool reads a boolean from an environment variable, returning the default if unset or invalid.
func getEnvBool(key string, defaultVal bool) bool {
	val := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch val {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return defaultVal
	}
}

// getEnvInt reads an integer from an environment variable, returning the default if unset or invalid.
func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// getEnvDuration accepts Go durations ("90m") or a bare number of seconds.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil && d >= 0 {
		return d
	}
	if secs, err := strconv.Atoi(val); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultVal
}

// getEnvList splits a comma-separated variable, dropping blank entries.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
