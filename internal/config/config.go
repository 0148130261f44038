// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Frontend modes.
const (
	FrontendNone        = "none"
	FrontendProxy       = "proxy"
	FrontendObjectStore = "objectstore"
)

// DevSessionSecret is the default signing secret. It is rejected in production.
const DevSessionSecret = "dev-only-session-secret-please-change-me"

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv     string `env:"APP_ENV" envDefault:"development"`
	AppPort    int    `env:"APP_PORT" envDefault:"8080"`
	SourceRepo string `env:"SOURCE_REPO" envDefault:"https://github.com/ucsb-cs156-s23/team02-s23-7pm-1"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`
	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"false"`

	// Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Public URL of this service, used for OAuth redirects
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Rate limiting
	RateLimitAPIEnabled   bool `env:"RATE_LIMIT_API_ENABLED" envDefault:"true"`
	RateLimitLoginEnabled bool `env:"RATE_LIMIT_LOGIN_ENABLED" envDefault:"true"`
	RateLimitLoginRPS     int  `env:"RATE_LIMIT_LOGIN_RPS" envDefault:"5"`
	RateLimitLoginBurst   int  `env:"RATE_LIMIT_LOGIN_BURST" envDefault:"10"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`

	// Google login. Empty client id disables the OAuth routes.
	GoogleClientID     string   `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string   `env:"GOOGLE_CLIENT_SECRET"`
	OIDCIssuerURL      string   `env:"OIDC_ISSUER_URL" envDefault:"https://accounts.google.com"`
	AdminEmails        []string `env:"ADMIN_EMAILS" envSeparator:","`

	// Sessions
	SessionSecret       string        `env:"SESSION_SECRET" envDefault:"dev-only-session-secret-please-change-me"`
	SessionTTL          time.Duration `env:"SESSION_TTL" envDefault:"12h"`
	SessionCookieName   string        `env:"SESSION_COOKIE_NAME" envDefault:"ucsb_session"`
	SessionCookieSecure bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`

	// Frontend
	FrontendMode        string `env:"FRONTEND_MODE" envDefault:"none"`
	FrontendProxyURL    string `env:"FRONTEND_PROXY_URL" envDefault:"http://localhost:3000"`
	FrontendS3Endpoint  string `env:"FRONTEND_S3_ENDPOINT"`
	FrontendS3AccessKey string `env:"FRONTEND_S3_ACCESS_KEY"`
	FrontendS3SecretKey string `env:"FRONTEND_S3_SECRET_KEY"`
	FrontendS3Bucket    string `env:"FRONTEND_S3_BUCKET" envDefault:"frontend"`
	FrontendS3UseSSL    bool   `env:"FRONTEND_S3_USE_SSL" envDefault:"true"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// OAuthEnabled reports whether Google login is configured.
func (c *Config) OAuthEnabled() bool {
	return c.GoogleClientID != ""
}

// IsAdminEmail reports whether email is listed in ADMIN_EMAILS.
func (c *Config) IsAdminEmail(email string) bool {
	return slices.ContainsFunc(c.AdminEmails, func(admin string) bool {
		return strings.EqualFold(strings.TrimSpace(admin), email)
	})
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Validate checks settings that struct tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	if c.StoreDriver != StoreDriverPostgres && c.StoreDriver != StoreDriverMemory {
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMemory, c.StoreDriver))
	}

	switch c.FrontendMode {
	case FrontendNone:
	case FrontendProxy:
		if c.FrontendProxyURL == "" {
			errs = append(errs, errors.New("FRONTEND_PROXY_URL is required when FRONTEND_MODE=proxy"))
		}
	case FrontendObjectStore:
		if c.FrontendS3Endpoint == "" || c.FrontendS3Bucket == "" {
			errs = append(errs, errors.New("FRONTEND_S3_ENDPOINT and FRONTEND_S3_BUCKET are required when FRONTEND_MODE=objectstore"))
		}
	default:
		errs = append(errs, fmt.Errorf("FRONTEND_MODE must be none, proxy or objectstore, got %q", c.FrontendMode))
	}

	if c.OAuthEnabled() && c.GoogleClientSecret == "" {
		errs = append(errs, errors.New("GOOGLE_CLIENT_SECRET is required when GOOGLE_CLIENT_ID is set"))
	}

	if len(c.SessionSecret) < 32 {
		errs = append(errs, errors.New("SESSION_SECRET must be at least 32 bytes"))
	}
	if c.IsProduction() && c.SessionSecret == DevSessionSecret {
		errs = append(errs, errors.New("SESSION_SECRET must be set in production"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}

	return errors.Join(errs...)
}

// Load parses environment variables and returns a validated Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
