// Package config loads server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers.
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP    HTTPConfig
	Storage StorageConfig
	Auth    AuthConfig
	Logging LoggingConfig
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MetricsEnabled  bool
	StaticPath      string
}

// StorageConfig selects and locates the durable backend.
type StorageConfig struct {
	Driver     string // json|sqlite
	DataPath   string
	SQLitePath string
}

// AuthConfig configures token issuance.
type AuthConfig struct {
	JWTSecret    string
	JWTExpiresIn time.Duration
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level  string
	Format string // text|json
}

const (
	defaultPort            = 8080
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 15 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultDataPath        = "./data.json"
	defaultSQLitePath      = "./data/expenses.db"
	defaultStaticPath      = "./public"
	defaultJWTExpiresIn    = 7 * 24 * time.Hour
	defaultLoggingLevel    = "info"
	defaultLoggingFormat   = "text"

	// DevelopmentSecret signs tokens when JWT_SECRET is unset.
	DevelopmentSecret = "development-secret-key-12345"
)

// LoadDotEnv loads variables from the given .env files (default ".env")
// without overriding variables already set. A missing file is not an error.
func LoadDotEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load reads configuration from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		HTTP: HTTPConfig{
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
			MetricsEnabled:  parseBoolWithDefault("METRICS_ENABLED", true),
			StaticPath:      valueOrDefault("STATIC_PATH", defaultStaticPath),
		},
		Storage: StorageConfig{
			Driver:     strings.ToLower(valueOrDefault("STORAGE_DRIVER", DriverJSON)),
			DataPath:   valueOrDefault("DATA_PATH", defaultDataPath),
			SQLitePath: valueOrDefault("SQLITE_PATH", defaultSQLitePath),
		},
		Auth: AuthConfig{
			JWTSecret:    valueOrDefault("JWT_SECRET", DevelopmentSecret),
			JWTExpiresIn: defaultJWTExpiresIn,
		},
		Logging: LoggingConfig{
			Level:  valueOrDefault("LOG_LEVEL", defaultLoggingLevel),
			Format: valueOrDefault("LOG_FORMAT", defaultLoggingFormat),
		},
	}

	port, err := parsePort("PORT", defaultPort)
	if err != nil {
		return Config{}, err
	}
	cfg.HTTP.Port = port

	switch cfg.Storage.Driver {
	case DriverJSON, DriverSQLite:
	default:
		return Config{}, fmt.Errorf("invalid STORAGE_DRIVER %q: want %s or %s", cfg.Storage.Driver, DriverJSON, DriverSQLite)
	}

	if v := os.Getenv("JWT_EXPIRES_IN"); v != "" {
		d, err := parseExpiry(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid JWT_EXPIRES_IN: %w", err)
		}
		cfg.Auth.JWTExpiresIn = d
	}

	if v := os.Getenv("SERVER_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.ShutdownTimeout = d
		} else {
			return Config{}, fmt.Errorf("invalid SERVER_SHUTDOWN_TIMEOUT: %w", err)
		}
	}

	return cfg, nil
}

// parseExpiry accepts Go durations ("168h") and whole days ("7d").
func parseExpiry(v string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(v, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("bad day count %q", v)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", d)
	}
	return d, nil
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parsePort(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if port <= 0 || port > 65535 {
			return 0, fmt.Errorf("port %d is out of range", port)
		}
		return port, nil
	}
	return fallback, nil
}
