package config

import (
    "context"
    "crypto/tls"
    "net"
    "time"

    "github.com/redis/go-redis/v9"
)

// RedisConfig locates the Redis server behind the catalog cache, the
// coupon rate limit and the hosted drafts.
type RedisConfig struct {
    Addr        string // REDIS_ADDR, or REDIS_HOST + REDIS_PORT
    Password    string
    DB          int
    TLS         bool
    TLSInsecure bool // REDIS_TLS_INSECURE skips certificate checks
    DialTimeout time.Duration
}

func LoadRedisConfig() RedisConfig {
    addr := envStr("REDIS_ADDR", "localhost:6379")
    if host, port := envStr("REDIS_HOST", ""), envStr("REDIS_PORT", ""); host != "" && port != "" {
        addr = net.JoinHostPort(host, port)
    }
    return RedisConfig{
        Addr:        addr,
        Password:    envStr("REDIS_PASSWORD", ""),
        DB:          envInt("REDIS_DB", 0),
        TLS:         envBool("REDIS_TLS", false),
        TLSInsecure: envBool("REDIS_TLS_INSECURE", false),
        DialTimeout: envDur("REDIS_DIAL_TIMEOUT", 2*time.Second),
    }
}

// Options builds client options for database db.
func (c RedisConfig) Options(db int) *redis.Options {
    opts := &redis.Options{
        Addr:        c.Addr,
        Password:    c.Password,
        DB:          db,
        DialTimeout: c.DialTimeout,
    }
    if c.TLS {
        host, _, _ := net.SplitHostPort(c.Addr)
        opts.TLSConfig = &tls.Config{ServerName: host, InsecureSkipVerify: c.TLSInsecure}
    }
    return opts
}

// NewRedisClient connects to database db and pings it.  The client is
// closed and an error returned when the ping fails.
func NewRedisClient(cfg RedisConfig, db int) (*redis.Client, error) {
    client := redis.NewClient(cfg.Options(db))
    ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        _ = client.Close()
        return nil, err
    }
    return client, nil
}
