package config

import (
    "testing"
    "time"
)

func TestLoadDraftConfig(t *testing.T) {
    t.Setenv("DRAFT_TTL", "90m")
    t.Setenv("DRAFT_KEY_PREFIX", "")
    cfg := LoadDraftConfig()
    if cfg.TTL != 90*time.Minute {
        t.Errorf("TTL = %s, want 90m", cfg.TTL)
    }
    if cfg.KeyPrefix != "rental" {
        t.Errorf("KeyPrefix = %q, want default", cfg.KeyPrefix)
    }
}

func TestLoadBrokerConfigFallsBackToAMQPURL(t *testing.T) {
    t.Setenv("RABBITMQ_URL", "")
    t.Setenv("AMQP_URL", "amqp://u:p@broker:5672/")
    if got := LoadBrokerConfig().URL; got != "amqp://u:p@broker:5672/" {
        t.Errorf("URL = %q", got)
    }
}

func TestLoadClientConfig(t *testing.T) {
    t.Setenv("RENTAL_API_URL", "https://rent.example.com")
    t.Setenv("RENTAL_STATE_DIR", "/tmp/rentctl-test")
    t.Setenv("RENTAL_TIMEOUT", "bogus")
    cfg := LoadClientConfig()
    if cfg.APIURL != "https://rent.example.com" || cfg.StateDir != "/tmp/rentctl-test" {
        t.Errorf("cfg = %+v", cfg)
    }
    if cfg.Timeout != 10*time.Second {
        t.Errorf("Timeout = %s, want default on parse error", cfg.Timeout)
    }
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
    t.Setenv("RATE_LIMIT_CAPACITY", "0")
    t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
    t.Setenv("RATE_LIMIT_TTL", "1s")
    cfg := LoadRateLimitConfig()
    if cfg.Capacity != 1 {
        t.Errorf("Capacity = %d, want 1", cfg.Capacity)
    }
    if cfg.TTL != 10*time.Second {
        t.Errorf("TTL = %s, want 5 refill intervals", cfg.TTL)
    }
}

func TestEnvBool(t *testing.T) {
    t.Setenv("X_FLAG", "off")
    if envBool("X_FLAG", true) {
        t.Error("off parsed as true")
    }
    t.Setenv("X_FLAG", "maybe")
    if !envBool("X_FLAG", true) {
        t.Error("unknown value did not keep default")
    }
}

func TestLoadRedisConfigHostPort(t *testing.T) {
    t.Setenv("REDIS_ADDR", "ignored:1")
    t.Setenv("REDIS_HOST", "cache.internal")
    t.Setenv("REDIS_PORT", "6380")
    t.Setenv("REDIS_TLS", "true")
    cfg := LoadRedisConfig()
    if cfg.Addr != "cache.internal:6380" {
        t.Errorf("Addr = %q", cfg.Addr)
    }
    opts := cfg.Options(3)
    if opts.DB != 3 || opts.TLSConfig == nil || opts.TLSConfig.ServerName != "cache.internal" {
        t.Errorf("options = %+v", opts)
    }
    if opts.TLSConfig.InsecureSkipVerify {
        t.Error("certificate checks skipped without REDIS_TLS_INSECURE")
    }
}

func TestDraftConfigSeparateDB(t *testing.T) {
    t.Setenv("DRAFT_REDIS_DB", "")
    if LoadDraftConfig().SeparateDB(0) {
        t.Error("drafts split off without DRAFT_REDIS_DB")
    }
    t.Setenv("DRAFT_REDIS_DB", "2")
    cfg := LoadDraftConfig()
    if !cfg.SeparateDB(0) || cfg.SeparateDB(2) {
        t.Errorf("SeparateDB wrong for RedisDB=%d", cfg.RedisDB)
    }
}

func TestCacheConfigSearchTTL(t *testing.T) {
    t.Setenv("CACHE_TTL", "2m")
    t.Setenv("CACHE_SEARCH_TTL", "10m")
    cfg := LoadCacheConfig()
    if got := cfg.TTLFor("/v1/search/vehicles"); got != 2*time.Minute {
        t.Errorf("search TTL = %s, want capped at 2m", got)
    }
    t.Setenv("CACHE_SEARCH_TTL", "15s")
    cfg = LoadCacheConfig()
    if got := cfg.TTLFor("/v1/search/vehicles"); got != 15*time.Second {
        t.Errorf("search TTL = %s, want 15s", got)
    }
    if got := cfg.TTLFor("/v1/vehicles"); got != 2*time.Minute {
        t.Errorf("listing TTL = %s, want 2m", got)
    }
}

func TestRateLimitExemptRoles(t *testing.T) {
    t.Setenv("RATE_LIMIT_EXEMPT_ROLES", "admin, support")
    cfg := LoadRateLimitConfig()
    if !cfg.Exempt("ADMIN") || !cfg.Exempt("SUPPORT") || cfg.Exempt("CUSTOMER") || cfg.Exempt("") {
        t.Errorf("ExemptRoles = %v", cfg.ExemptRoles)
    }
}
