package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port          string
	AppEnv        string
	LogLevel      string
	StorageDriver string
	DatabaseURL   string
	RedisURL      string
	CacheTTL      time.Duration

	JWTSecret    string
	JWTIssuer    string
	JWTTTL       time.Duration
	CookieName   string
	CookieDomain string
	CookieSecure bool
	CORSOrigins  []string

	Location         *time.Location
	DefaultPageLimit int
	OverdueDays      int

	Bootstrap BootstrapAdmin
}

// BootstrapAdmin is the superadmin seeded into an empty installation.
type BootstrapAdmin struct {
	Name     string
	Username string
	Email    string
	Password string
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Port:          fallback(os.Getenv("PORT"), "8080"),
		AppEnv:        strings.ToLower(fallback(os.Getenv("APP_ENV"), "development")),
		LogLevel:      strings.ToLower(fallback(os.Getenv("LOG_LEVEL"), "info")),
		StorageDriver: strings.ToLower(fallback(os.Getenv("STORAGE_DRIVER"), DriverPostgres)),
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RedisURL:      strings.TrimSpace(os.Getenv("REDIS_URL")),
		CacheTTL:      time.Duration(positiveInt(os.Getenv("CACHE_TTL_SECONDS"), 60)) * time.Second,
		JWTSecret:     strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:     fallback(os.Getenv("JWT_ISSUER"), "pw-ledger"),
		JWTTTL:        time.Duration(positiveInt(os.Getenv("JWT_TTL_MINUTES"), 24*60)) * time.Minute,
		CookieName:    fallback(os.Getenv("COOKIE_NAME"), "pw_token"),
		CookieDomain:  strings.TrimSpace(os.Getenv("COOKIE_DOMAIN")),
		CookieSecure:  parseBool(os.Getenv("COOKIE_SECURE"), true),
		CORSOrigins:   parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),

		DefaultPageLimit: positiveInt(os.Getenv("DEFAULT_PAGE_LIMIT"), 7),
		OverdueDays:      positiveInt(os.Getenv("OVERDUE_DAYS"), 30),

		Bootstrap: BootstrapAdmin{
			Name:     strings.TrimSpace(os.Getenv("BOOTSTRAP_SUPERADMIN_NAME")),
			Username: strings.TrimSpace(os.Getenv("BOOTSTRAP_SUPERADMIN_USERNAME")),
			Email:    strings.TrimSpace(os.Getenv("BOOTSTRAP_SUPERADMIN_EMAIL")),
			Password: os.Getenv("BOOTSTRAP_SUPERADMIN_PASSWORD"),
		},
	}

	loc, err := time.LoadLocation(fallback(os.Getenv("APP_TIMEZONE"), "Asia/Jakarta"))
	if err != nil {
		return Config{}, fmt.Errorf("APP_TIMEZONE: %w", err)
	}
	cfg.Location = loc

	switch cfg.StorageDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required")
		}
	case DriverMemory:
	default:
		return Config{}, fmt.Errorf("STORAGE_DRIVER must be %q or %q", DriverPostgres, DriverMemory)
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// IsProduction reports whether APP_ENV selects production behaviour.
func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func positiveInt(value string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && n > 0 {
		return n
	}
	return def
}

func parseBool(value string, def bool) bool {
	if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
		return b
	}
	return def
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
