package config

import (
    "strings"
    "time"
)

// CacheConfig drives the response cache in front of the public catalog.
// Admin writes purge the Prefix namespace, so TTL only bounds staleness
// after out-of-band edits.  Vehicle search results follow SearchTTL,
// which is shorter because the filters are open-ended and rarely repeat.
type CacheConfig struct {
    Enabled      bool
    Methods      map[string]bool
    TTL          time.Duration
    SearchTTL    time.Duration
    KeyStrategy  string
    Prefix       string
    MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* variables.
func LoadCacheConfig() CacheConfig {
    cfg := CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", true),
        Methods:      envSet("CACHE_METHODS", "GET"),
        TTL:          envDur("CACHE_TTL", 5*time.Minute),
        SearchTTL:    envDur("CACHE_SEARCH_TTL", 30*time.Second),
        KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
        Prefix:       envStr("CACHE_PREFIX", "rental:catalog"),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
    }
    if cfg.TTL <= 0 {
        cfg.TTL = 5 * time.Minute
    }
    if cfg.SearchTTL <= 0 || cfg.SearchTTL > cfg.TTL {
        cfg.SearchTTL = cfg.TTL
    }
    return cfg
}

// TTLFor returns the lifetime of a cached response for route.
func (c CacheConfig) TTLFor(route string) time.Duration {
    if strings.HasPrefix(route, "/v1/search/") {
        return c.SearchTTL
    }
    return c.TTL
}
