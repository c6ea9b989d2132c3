package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadFallsBackOnUnparsableValues(t *testing.T) {
	t.Setenv("BACKEND", "fake")
	t.Setenv("CACHE_BACKEND", "memory")
	t.Setenv("CORS_ORIGINS", " , ")
	t.Setenv("CACHE_TTL", "bogus")
	t.Setenv("MAX_INTERACTION", "nope")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Cache.TTL != 15*time.Minute {
		t.Errorf("unparsable CACHE_TTL should fall back, got %v", cfg.Cache.TTL)
	}
	if cfg.MaxInteraction != 20 {
		t.Errorf("unparsable MAX_INTERACTION should fall back, got %d", cfg.MaxInteraction)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BACKEND", "OpenAI")
	t.Setenv("BACKEND_API_KEY", "sk-test")
	t.Setenv("BACKEND_TIMEOUT", "3s")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("SEED_DEMO", "yes")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend.Kind != "openai" || cfg.Backend.Timeout != 3*time.Second {
		t.Errorf("backend = %+v", cfg.Backend)
	}
	if cfg.Cache.Backend != CacheRedis || cfg.Cache.RedisAddr != "cache:6379" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example.com" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if !cfg.SeedDemo {
		t.Error("SEED_DEMO not applied")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port: "8080", DBPath: "x.db", MaxRequestBody: 1, StoreTimeout: time.Second,
			MaxInteraction: 1, HistoryLimit: 1,
			Cache:   CacheConfig{Backend: CacheMemory},
			Backend: BackendConfig{Kind: "fake", Timeout: time.Second},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty port", func(c *Config) { c.Port = "" }, "PORT"},
		{"openai without key", func(c *Config) { c.Backend.Kind = "openai" }, "BACKEND_API_KEY"},
		{"grpc without addr", func(c *Config) { c.Backend.Kind = "grpc" }, "BACKEND_GRPC_ADDR"},
		{"unknown backend", func(c *Config) { c.Backend.Kind = "llama" }, "unknown BACKEND"},
		{"unknown cache", func(c *Config) { c.Cache.Backend = "memcached" }, "unknown CACHE_BACKEND"},
		{"zero history", func(c *Config) { c.HistoryLimit = 0 }, "HISTORY_LIMIT"},
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	for _, tt := range tests {
		c := valid()
		tt.mutate(c)
		err := c.Validate()
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: Validate() = %v, want mention of %s", tt.name, err, tt.want)
		}
	}
}
