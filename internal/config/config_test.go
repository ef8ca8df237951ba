package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load err: %v", err)
	}
	if cfg.AppEnv != "dev" {
		t.Fatalf("expected default app env dev, got %q", cfg.AppEnv)
	}
	if cfg.RedisHost != "localhost" || cfg.RedisPort != 6379 {
		t.Fatalf("unexpected redis defaults: %+v", cfg)
	}
	if cfg.MinWorkers != 2 || cfg.MaxWorkers != 10 {
		t.Fatalf("unexpected scaling bounds: min=%d max=%d", cfg.MinWorkers, cfg.MaxWorkers)
	}
	if cfg.QueueHighThreshold <= cfg.QueueLowThreshold {
		t.Fatalf("expected high threshold above low threshold: %d vs %d", cfg.QueueHighThreshold, cfg.QueueLowThreshold)
	}
}

func TestRedisAddr(t *testing.T) {
	cfg := Config{RedisHost: "redis.internal", RedisPort: 6380}
	if got := cfg.RedisAddr(); got != "redis.internal:6380" {
		t.Fatalf("expected redis.internal:6380, got %q", got)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("REDIS_HOST", "redis-prod")
	t.Setenv("MIN_WORKERS", "2")
	t.Setenv("MAX_WORKERS", "20")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load err: %v", err)
	}
	if !cfg.IsProd() || cfg.IsDev() {
		t.Fatalf("expected prod env, got %q", cfg.AppEnv)
	}
	if cfg.RedisHost != "redis-prod" {
		t.Fatalf("expected redis-prod, got %q", cfg.RedisHost)
	}
	if cfg.MinWorkers != 2 || cfg.MaxWorkers != 20 {
		t.Fatalf("expected overridden worker bounds, got min=%d max=%d", cfg.MinWorkers, cfg.MaxWorkers)
	}
}

func TestGetBackoffConfigTestMode(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load err: %v", err)
	}
	maxElapsed, initial, maxInterval, mult := cfg.GetBackoffConfig()
	if maxElapsed != 2*time.Second {
		t.Fatalf("expected short test backoff, got %v", maxElapsed)
	}
	if initial != 50*time.Millisecond || maxInterval != 500*time.Millisecond || mult != 2.0 {
		t.Fatalf("unexpected test backoff tuning: %v %v %v", initial, maxInterval, mult)
	}
}
