// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the configuration for the HTTP API and the Athena backend.
type Config struct {
	ListenAddr string // HTTP listen address (default ":8080")
	LogLevel   string // log level: debug, info, warn, error (default "info")
	Env        string // environment: "development" (default) or "production"

	// Athena backend
	AthenaRegion    string // AWS region the Athena workgroup lives in
	AthenaDatabase  string // Glue/Athena database holding the telemetry table
	AthenaWorkgroup string // optional workgroup; Athena's default when empty
	OutputLocation  string // s3:// URI where Athena writes result objects

	// Optional static AWS credentials. When unset the default chain is used.
	AWSKeyID  *string
	AWSSecret *string

	// Query proxy
	QueryMaxWait      time.Duration // wait budget per query (default 30s)
	QueryPollInterval time.Duration // status poll interval (default 1s)
	TemplatesFile     string        // optional YAML file overriding canned SQL

	// Demo mode controls the synthetic danger record on /latest.
	DemoMode bool

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 10)
	RateLimitBurst int     // burst capacity (default 20)

	// CORS
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// HasStaticCredentials returns true when explicit AWS credentials are set.
func (c *Config) HasStaticCredentials() bool {
	return c.AWSKeyID != nil && c.AWSSecret != nil
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		ListenAddr:      os.Getenv("LISTEN_ADDR"),
		LogLevel:        os.Getenv("LOG_LEVEL"),
		Env:             os.Getenv("ENV"),
		AthenaRegion:    os.Getenv("ATHENA_REGION"),
		AthenaDatabase:  os.Getenv("ATHENA_DATABASE"),
		AthenaWorkgroup: os.Getenv("ATHENA_WORKGROUP"),
		OutputLocation:  os.Getenv("ATHENA_OUTPUT_LOCATION"),
		TemplatesFile:   os.Getenv("QUERY_TEMPLATES_FILE"),
		DemoMode:        parseBoolEnvDefault("DEMO_MODE", true),
	}

	// Static credentials are optional — only set if present
	if v := os.Getenv("AWS_KEY_ID"); v != "" {
		cfg.AWSKeyID = &v
	}
	if v := os.Getenv("AWS_SECRET"); v != "" {
		cfg.AWSSecret = &v
	}

	// Query proxy timings
	if v := os.Getenv("QUERY_MAX_WAIT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("QUERY_MAX_WAIT: %w", err)
		}
		cfg.QueryMaxWait = d
	}
	if v := os.Getenv("QUERY_POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("QUERY_POLL_INTERVAL: %w", err)
		}
		cfg.QueryPollInterval = d
	}

	// Rate limiting
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}

	// CORS
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = origins
	}

	// Defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.AthenaRegion == "" {
		cfg.AthenaRegion = "ap-south-1"
	}
	if cfg.AthenaDatabase == "" {
		cfg.AthenaDatabase = "iot_processed_db"
	}
	if cfg.QueryMaxWait == 0 {
		cfg.QueryMaxWait = 30 * time.Second
	}
	if cfg.QueryPollInterval == 0 {
		cfg.QueryPollInterval = time.Second
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 10
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 20
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	if cfg.OutputLocation == "" {
		return nil, fmt.Errorf("ATHENA_OUTPUT_LOCATION is required")
	}
	if !strings.HasPrefix(cfg.OutputLocation, "s3://") {
		return nil, fmt.Errorf("ATHENA_OUTPUT_LOCATION must be an s3:// URI, got %q", cfg.OutputLocation)
	}
	if (cfg.AWSKeyID == nil) != (cfg.AWSSecret == nil) {
		return nil, fmt.Errorf("AWS_KEY_ID and AWS_SECRET must be set together")
	}

	if !cfg.HasStaticCredentials() {
		cfg.Warnings = append(cfg.Warnings, "no static AWS credentials set — using the default credential chain")
	}
	if cfg.DemoMode {
		cfg.Warnings = append(cfg.Warnings, "DEMO_MODE is on — /latest injects a synthetic danger reading")
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
	}

	return cfg, nil
}

func parseBoolEnvDefault(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = stripQuotes(value)
		// Only set if not already in the environment (env vars take precedence)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
