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

// AccessConfig holds the decision-engine settings.
type AccessConfig struct {
	AuthorsAccessToOwnContent bool     // authors keep access to their own posts
	LockRecursive             bool     // restrictions inherit down the hierarchies
	FullAccessCapability      string   // capability that bypasses every check (default "manage_user_groups")
	HiddenPostTypes           []string // post types excluded from front-end listings when restricted
}

// Config holds the configuration for the HTTP API and the stores behind it.
type Config struct {
	DBPath         string // path to the SQLite file (default "uam.sqlite")
	DBReadMaxOpen  int    // read pool size (default 4)
	ListenAddr     string // HTTP listen address (default ":8080")
	LogLevel       string // log level: debug, info, warn, error (default "info")
	Env            string // environment: "development" (default) or "production"
	JWTSecret      string // HS256 shared secret for viewer tokens

	// Cache provider: "memory" (default) or "redis".
	CacheProvider   string
	CacheTTL        time.Duration // entry lifetime, 0 means no expiry (default 0)
	CacheMaxEntries int           // in-memory provider capacity (default 1024)
	RedisURL        string        // redis:// URL, required for the redis provider
	RedisKeyPrefix  string        // key namespace (default "uam")

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 100)
	RateLimitBurst int     // burst capacity (default 200)

	// CORS
	CORSAllowedOrigins []string // allowed origins (default: ["*"])

	// Access holds the decision-engine settings.
	Access AccessConfig

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

// HiddenPostTypeSet returns the hidden post types as a lookup set.
func (c *Config) HiddenPostTypeSet() map[string]bool {
	set := make(map[string]bool, len(c.Access.HiddenPostTypes))
	for _, t := range c.Access.HiddenPostTypes {
		set[t] = true
	}
	return set
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		DBPath:         os.Getenv("DB_PATH"),
		ListenAddr:     os.Getenv("LISTEN_ADDR"),
		LogLevel:       os.Getenv("LOG_LEVEL"),
		Env:            os.Getenv("ENV"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		CacheProvider:  os.Getenv("CACHE_PROVIDER"),
		RedisURL:       os.Getenv("REDIS_URL"),
		RedisKeyPrefix: os.Getenv("REDIS_KEY_PREFIX"),
	}

	if v := os.Getenv("DB_READ_MAX_OPEN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DBReadMaxOpen = n
		}
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.CacheTTL = d
		}
	}
	if v := os.Getenv("CACHE_MAX_ENTRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.CacheMaxEntries = n
		}
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
		cfg.CORSAllowedOrigins = splitCSV(v)
	}

	// Access settings
	cfg.Access = AccessConfig{
		AuthorsAccessToOwnContent: parseBoolEnvDefault("ACCESS_AUTHORS_OWN_CONTENT", false),
		LockRecursive:             parseBoolEnvDefault("ACCESS_LOCK_RECURSIVE", true),
		FullAccessCapability:      os.Getenv("ACCESS_FULL_CAPABILITY"),
	}
	if v := os.Getenv("ACCESS_HIDDEN_POST_TYPES"); v != "" {
		cfg.Access.HiddenPostTypes = splitCSV(v)
	}

	// Defaults
	if cfg.DBPath == "" {
		cfg.DBPath = "uam.sqlite"
	}
	if cfg.DBReadMaxOpen <= 0 {
		cfg.DBReadMaxOpen = 4
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 100
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 200
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}
	if cfg.CacheProvider == "" {
		cfg.CacheProvider = "memory"
	}
	if cfg.CacheMaxEntries <= 0 {
		cfg.CacheMaxEntries = 1024
	}
	if cfg.RedisKeyPrefix == "" {
		cfg.RedisKeyPrefix = "uam"
	}

	switch cfg.CacheProvider {
	case "memory":
	case "redis":
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is required when CACHE_PROVIDER=redis")
		}
	default:
		return nil, fmt.Errorf("unknown CACHE_PROVIDER %q: must be \"memory\" or \"redis\"", cfg.CacheProvider)
	}

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "insecure-dev-secret"
		cfg.Warnings = append(cfg.Warnings, "JWT_SECRET not set, using insecure default. Set JWT_SECRET in production!")
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		if cfg.JWTSecret == "insecure-dev-secret" {
			return nil, fmt.Errorf("JWT_SECRET must be set in production (ENV=production)")
		}
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
	}

	return cfg, nil
}

func parseBoolEnvDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return defaultVal
	}
	if v == "0" || v == "false" || v == "no" || v == "off" {
		return false
	}
	if v == "1" || v == "true" || v == "yes" || v == "on" {
		return true
	}
	return defaultVal
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadDotEnv reads a .env file and sets any variables not already in the
// environment. Lines must be KEY=VALUE; comments (#) and blanks are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil
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
		value = stripQuotes(strings.TrimSpace(value))
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
