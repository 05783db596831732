// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// CRMConfig provides settings for the remote CRM backend client.
type CRMConfig interface {
	GetCRMBaseURL() string
	GetCRMAPIToken() string
	GetCRMTimeout() time.Duration
	GetCRMRequestsPerSecond() float64
}

// BoardConfig provides settings for the lead board engine.
type BoardConfig interface {
	GetPollInterval() time.Duration
	GetSearchDebounce() time.Duration
	GetPageSize() int
	GetRemoteSearch() bool
}

// CacheConfig provides settings for the snapshot cache.
type CacheConfig interface {
	GetRedisURL() string
	GetSnapshotCacheTTL() time.Duration
}

// Config holds all application configuration.
type Config struct {
	Env             string
	HTTPAddr        string
	CORSAllowAll    bool
	CORSOrigins     []string
	CORSAllowCreds  bool
	JWTAccessSecret string

	CRMBaseURL           string
	CRMAPIToken          string
	CRMTimeout           time.Duration
	CRMRequestsPerSecond float64

	PollInterval   time.Duration
	SearchDebounce time.Duration
	PageSize       int
	RemoteSearch   bool

	RedisURL         string
	SnapshotCacheTTL time.Duration
}

// Load reads configuration from the environment (and .env when present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:             getEnv("APP_ENV", "development"),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		CORSAllowAll:    corsAllowAll,
		CORSOrigins:     corsOrigins,
		CORSAllowCreds:  strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		JWTAccessSecret: getEnv("JWT_ACCESS_SECRET", ""),

		CRMBaseURL:           strings.TrimRight(getEnv("CRM_BASE_URL", ""), "/"),
		CRMAPIToken:          getEnv("CRM_API_TOKEN", ""),
		CRMTimeout:           mustDuration(getEnv("CRM_TIMEOUT", "15s")),
		CRMRequestsPerSecond: mustFloat(getEnv("CRM_REQUESTS_PER_SECOND", "10")),

		PollInterval:   mustDuration(getEnv("BOARD_POLL_INTERVAL", "30s")),
		SearchDebounce: mustDuration(getEnv("BOARD_SEARCH_DEBOUNCE", "500ms")),
		PageSize:       mustInt(getEnv("BOARD_PAGE_SIZE", "200")),
		RemoteSearch:   strings.EqualFold(getEnv("BOARD_REMOTE_SEARCH", "true"), "true"),

		RedisURL:         getEnv("REDIS_URL", ""),
		SnapshotCacheTTL: mustDuration(getEnv("SNAPSHOT_CACHE_TTL", "24h")),
	}

	if cfg.CRMBaseURL == "" {
		return nil, fmt.Errorf("CRM_BASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("BOARD_POLL_INTERVAL must be positive")
	}
	if cfg.SearchDebounce <= 0 {
		return nil, fmt.Errorf("BOARD_SEARCH_DEBOUNCE must be positive")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

// Interface implementations.

func (c *Config) GetHTTPAddr() string                 { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool               { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string            { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool             { return c.CORSAllowCreds }
func (c *Config) GetJWTAccessSecret() string          { return c.JWTAccessSecret }
func (c *Config) GetCRMBaseURL() string               { return c.CRMBaseURL }
func (c *Config) GetCRMAPIToken() string              { return c.CRMAPIToken }
func (c *Config) GetCRMTimeout() time.Duration        { return c.CRMTimeout }
func (c *Config) GetCRMRequestsPerSecond() float64    { return c.CRMRequestsPerSecond }
func (c *Config) GetPollInterval() time.Duration      { return c.PollInterval }
func (c *Config) GetSearchDebounce() time.Duration    { return c.SearchDebounce }
func (c *Config) GetPageSize() int                    { return c.PageSize }
func (c *Config) GetRemoteSearch() bool               { return c.RemoteSearch }
func (c *Config) GetRedisURL() string                 { return c.RedisURL }
func (c *Config) GetSnapshotCacheTTL() time.Duration  { return c.SnapshotCacheTTL }

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}

func mustFloat(value string) float64 {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return f
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
