package config

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/jub0bs/cors"
)

// Config holds the settings shared by the api client, the cli and the frontend server.
type Config struct {
	Environment    string        `env:"ENVIRONMENT,default=dev"`
	LogLevel       string        `env:"LOG_LEVEL,default=debug"`
	APIBaseURL     string        `env:"API_BASE_URL,default=http://localhost:8000/api/v1"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT,default=10s"`
	TokenFile      string        `env:"TOKEN_FILE"` // defaults to <user config dir>/webclient/tokens.json
	LoginPath      string        `env:"LOGIN_PATH,default=/login"`

	// frontend server
	Host           string        `env:"HOST,default=0.0.0.0"`
	Port           int           `env:"PORT,default=3000"`
	ReadTimeout    time.Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout   time.Duration `env:"WRITE_TIMEOUT,default=15s"`
	IdleTimeout    time.Duration `env:"IDLE_TIMEOUT,default=60s"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS,separator=|"`
	RateLimitRPS   int32         `env:"RATE_LIMIT_RPS,default=100"`
	RateLimitBurst int32         `env:"RATE_LIMIT_BURST,default=20"`
	MaxRequestSize int64         `env:"MAX_REQUEST_SIZE,default=1048576"` // 1MB
}

const (
	// Operational timeouts
	ServerShutdownTimeout = 10 * time.Second
	HandlerTimeout        = 60 * time.Second

	// CORS settings
	CORSMaxAgeInSeconds = 86400 // 24 hours
)

var validEnvs = map[string]bool{
	"dev":     true,
	"test":    true,
	"perf":    true,
	"prod":    true,
	"staging": true,
}

// NewConfig loads the configuration from the environment and validates it.
func NewConfig() (*Config, error) {
	var cfg Config

	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}

	if cfg.TokenFile == "" {
		cfg.TokenFile, err = defaultTokenFile()
		if err != nil {
			return nil, err
		}
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// IsSecure reports whether cookies should be marked Secure.
func (c *Config) IsSecure() bool {
	return c.Environment == "prod" || c.Environment == "staging"
}

func defaultTokenFile() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config dir (set TOKEN_FILE): %w", err)
	}
	return filepath.Join(dir, "webclient", "tokens.json"), nil
}

func validateConfig(cfg *Config) error {
	if !validEnvs[cfg.Environment] {
		return fmt.Errorf("invalid environment '%s'. Valid environments: dev, test, perf, staging, prod", cfg.Environment)
	}

	if cfg.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL cannot be empty")
	}

	u, err := url.ParseRequestURI(cfg.APIBaseURL)
	if err != nil {
		return fmt.Errorf("API_BASE_URL is not a valid URL: %s", cfg.APIBaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("API_BASE_URL does not include a valid scheme (http or https): %s", cfg.APIBaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("API_BASE_URL does not include a host: %s", cfg.APIBaseURL)
	}
	if cfg.Environment == "prod" && u.Scheme != "https" {
		return fmt.Errorf("API_BASE_URL must use https in production: %s", cfg.APIBaseURL)
	}

	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %v", cfg.RequestTimeout)
	}

	if !strings.HasPrefix(cfg.LoginPath, "/") {
		return fmt.Errorf("LOGIN_PATH must start with '/', got %q", cfg.LoginPath)
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port)
	}

	if cfg.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive, got %v", cfg.ReadTimeout)
	}
	if cfg.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive, got %v", cfg.WriteTimeout)
	}
	if cfg.IdleTimeout <= 0 {
		return fmt.Errorf("idle timeout must be positive, got %v", cfg.IdleTimeout)
	}

	if cfg.MaxRequestSize <= 0 {
		return fmt.Errorf("MAX_REQUEST_SIZE must be positive, got %d", cfg.MaxRequestSize)
	}

	if cfg.Environment == "prod" || cfg.Environment == "staging" {
		if len(cfg.AllowedOrigins) == 0 {
			return fmt.Errorf("ALLOWED_ORIGINS must be set in %v", cfg.Environment)
		}
		if cfg.AllowedOrigins[0] == "*" {
			return fmt.Errorf("ALLOWED_ORIGINS must not be set to '*' in %v", cfg.Environment)
		}
	}

	// default to all origins when not in prod/staging
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	return nil
}

// NewCORSMiddleware builds the CORS middleware for the frontend server's api routes
func NewCORSMiddleware(cfg *Config) (*cors.Middleware, error) {
	origins := make([]string, len(cfg.AllowedOrigins))
	for i, origin := range cfg.AllowedOrigins {
		origins[i] = strings.TrimSpace(origin)
	}

	corsConfig := cors.Config{
		Origins: origins,
		Methods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		RequestHeaders: []string{
			"Content-Type",
			"Authorization",
			"X-Requested-With",
			"HX-Request",
		},
		MaxAgeInSeconds: CORSMaxAgeInSeconds,
	}

	middleware, err := cors.NewMiddleware(corsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create CORS middleware: %w", err)
	}

	return middleware, nil
}
