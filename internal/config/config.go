// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config holds all application configuration.
type Config struct {
	Port           string
	DBPath         string
	SeedDemo       bool
	CORSOrigins    []string
	MaxRequestBody int64
	StoreTimeout   time.Duration
	MaxInteraction int
	HistoryLimit   int
	Cache          CacheConfig
	Backend        BackendConfig
}

// CacheConfig selects and tunes the lookup cache.
type CacheConfig struct {
	Backend         string
	TTL             time.Duration
	JanitorInterval time.Duration
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
}

// BackendConfig selects the generative backend.
type BackendConfig struct {
	Kind     string
	URL      string
	Model    string
	APIKey   string
	GRPCAddr string
	Timeout  time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		DBPath:         getEnv("DB_PATH", "./data/chatengine.db"),
		SeedDemo:       getEnvBool("SEED_DEMO", false),
		CORSOrigins:    getEnvList("CORS_ORIGINS", []string{"*"}),
		MaxRequestBody: int64(getEnvInt("MAX_REQUEST_BODY", 64<<10)),
		StoreTimeout:   getEnvDuration("STORE_TIMEOUT", 5*time.Second),
		MaxInteraction: getEnvInt("MAX_INTERACTION", 20),
		HistoryLimit:   getEnvInt("HISTORY_LIMIT", 10),
		Cache: CacheConfig{
			Backend:         strings.ToLower(getEnv("CACHE_BACKEND", CacheMemory)),
			TTL:             getEnvDuration("CACHE_TTL", 15*time.Minute),
			JanitorInterval: getEnvDuration("CACHE_JANITOR_INTERVAL", time.Minute),
			RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword:   getEnv("REDIS_PASSWORD", ""),
			RedisDB:         getEnvInt("REDIS_DB", 0),
		},
		Backend: BackendConfig{
			Kind:     strings.ToLower(getEnv("BACKEND", "fake")),
			URL:      getEnv("BACKEND_URL", "https://api.openai.com/v1"),
			Model:    getEnv("BACKEND_MODEL", "gpt-4o-mini"),
			APIKey:   getEnv("BACKEND_API_KEY", ""),
			GRPCAddr: getEnv("BACKEND_GRPC_ADDR", ""),
			Timeout:  getEnvDuration("BACKEND_TIMEOUT", 20*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.MaxRequestBody <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY must be > 0")
	}
	if c.StoreTimeout <= 0 || c.Backend.Timeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT and BACKEND_TIMEOUT must be > 0")
	}
	if c.MaxInteraction <= 0 {
		return fmt.Errorf("MAX_INTERACTION must be > 0")
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("HISTORY_LIMIT must be > 0")
	}
	switch c.Cache.Backend {
	case CacheMemory:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR cannot be empty when CACHE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.Cache.Backend)
	}
	switch c.Backend.Kind {
	case "fake":
	case "openai":
		if c.Backend.APIKey == "" {
			return fmt.Errorf("BACKEND_API_KEY cannot be empty when BACKEND=openai")
		}
	case "grpc":
		if c.Backend.GRPCAddr == "" {
			return fmt.Errorf("BACKEND_GRPC_ADDR cannot be empty when BACKEND=grpc")
		}
	default:
		return fmt.Errorf("unknown BACKEND %q", c.Backend.Kind)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
