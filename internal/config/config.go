package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds application configuration values.
type Config struct {
	HTTPPort    string
	DBDriver    string
	DatabaseDSN string
	LogLevel    string

	JWTSigningKey       string
	AccessTokenTTL      time.Duration
	RefreshTokenTTL     time.Duration
	RotateRefreshTokens bool

	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	CORSAllowMethods     []string
	CORSAllowHeaders     []string

	TokenFlushSchedule string
	SeedFile           string
}

// Load reads configuration from environment variables with reasonable defaults.
func Load() (Config, error) {
	var errs []error

	cfg := Config{
		HTTPPort:             getEnv("HTTP_PORT", "8000"),
		DBDriver:             strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
		DatabaseDSN:          os.Getenv("DATABASE_DSN"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		JWTSigningKey:        getEnv("JWT_SIGNING_KEY", "dev_secret"),
		CORSAllowedOrigins:   getList("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		CORSAllowMethods:     getList("CORS_ALLOW_METHODS", "GET,POST,PUT,PATCH,DELETE,OPTIONS"),
		CORSAllowHeaders:     getList("CORS_ALLOW_HEADERS", "content-type,authorization,x-requested-with"),
		TokenFlushSchedule:   getEnv("TOKEN_FLUSH_SCHEDULE", "@hourly"),
		SeedFile:             os.Getenv("SEED_FILE"),
		CORSAllowCredentials: true,
	}

	if _, err := strconv.Atoi(cfg.HTTPPort); err != nil {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT value %q", cfg.HTTPPort))
	}

	switch cfg.DBDriver {
	case DriverSQLite:
		if cfg.DatabaseDSN == "" {
			cfg.DatabaseDSN = "library.db"
		}
	case DriverPostgres:
		if cfg.DatabaseDSN == "" {
			cfg.DatabaseDSN = postgresDSN()
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver))
	}

	if cfg.JWTSigningKey == "" {
		errs = append(errs, errors.New("JWT_SIGNING_KEY is required"))
	}

	accessMinutes, err := getInt("ACCESS_TOKEN_LIFETIME", 60)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.AccessTokenTTL = time.Duration(accessMinutes) * time.Minute

	refreshDays, err := getInt("REFRESH_TOKEN_LIFETIME", 1)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.RefreshTokenTTL = time.Duration(refreshDays) * 24 * time.Hour

	if cfg.RotateRefreshTokens, err = getBool("ROTATE_REFRESH_TOKENS", false); err != nil {
		errs = append(errs, err)
	}
	if cfg.CORSAllowCredentials, err = getBool("CORS_ALLOW_CREDENTIALS", true); err != nil {
		errs = append(errs, err)
	}

	return cfg, errors.Join(errs...)
}

func postgresDSN() string {
	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "postgres")
	name := getEnv("DB_NAME", "library")
	password := os.Getenv("DB_PASSWORD")

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getInt(key string, defaultVal int) (int, error) {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultVal, fmt.Errorf("invalid %s value %q: must be a positive integer", key, raw)
	}
	return n, nil
}

func getBool(key string, defaultVal bool) (bool, error) {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return defaultVal, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return b, nil
}

func getList(key, defaultVal string) []string {
	var out []string
	for _, item := range strings.Split(getEnv(key, defaultVal), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
