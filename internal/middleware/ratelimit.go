package middleware

import (
    "math"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"

    "github.com/iliyamo/car-rental-reservation/internal/config"
)

// takeToken refills the bucket by whole intervals, then takes one token.
// KEYS[1] bucket hash; ARGV now_ms, capacity, refill, interval_ms, ttl_s.
// Returns {allowed, remaining, retry_after_ms}.
var takeToken = redis.NewScript(`
local b = redis.call('HMGET', KEYS[1], 'tokens', 'last_refill_ms')
local now, cap, refill, every, ttl =
    tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])
local tokens, last = tonumber(b[1]), tonumber(b[2])
if tokens == nil or last == nil then
    tokens, last = cap, now
end
if every > 0 and refill > 0 then
    local n = math.floor(math.max(0, now - last) / every)
    if n > 0 then
        tokens = math.min(cap, tokens + n * refill)
        last = last + n * every
    end
end
local ok, wait = 0, 0
if tokens > 0 then
    ok, tokens = 1, tokens - 1
else
    wait = math.max(0, every - (now - last))
end
redis.call('HSET', KEYS[1], 'tokens', tokens, 'last_refill_ms', last)
redis.call('EXPIRE', KEYS[1], ttl)
return {ok, tokens, wait}
`)

// bucketState is one decoded reply of takeToken.
type bucketState struct {
    allowed   bool
    remaining int64
    retry     time.Duration
}

func decodeBucket(v interface{}) (bucketState, bool) {
    arr, ok := v.([]interface{})
    if !ok || len(arr) != 3 {
        return bucketState{}, false
    }
    return bucketState{
        allowed:   asInt64(arr[0]) == 1,
        remaining: asInt64(arr[1]),
        retry:     time.Duration(asInt64(arr[2])) * time.Millisecond,
    }, true
}

// NewTokenBucket limits requests per key with a token bucket kept in a
// Redis hash.  Exempt roles and Redis failures let the request through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, logger *zap.Logger) echo.MiddlewareFunc {
    if logger == nil {
        logger = zap.NewNop()
    }
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    limit := strconv.Itoa(cfg.Capacity)
    ttl := int64(cfg.TTL / time.Second)

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if role, _ := c.Get("role").(string); cfg.Exempt(role) {
                return next(c)
            }
            key := rateKey(cfg, c)
            res, err := takeToken.Run(c.Request().Context(), rdb, []string{key},
                time.Now().UnixMilli(), cfg.Capacity, cfg.RefillTokens, cfg.RefillInterval.Milliseconds(), ttl).Result()
            if err != nil {
                logger.Warn("ratelimit: script failed, allowing request", zap.String("key", key), zap.Error(err))
                return next(c)
            }
            st, ok := decodeBucket(res)
            if !ok {
                logger.Warn("ratelimit: unexpected script result", zap.String("key", key), zap.Any("result", res))
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", limit)
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(st.remaining, 10))
            if cfg.Debug {
                h.Set("X-RateLimit-Key", key)
            }
            if st.allowed {
                return next(c)
            }

            secs := int(math.Ceil(st.retry.Seconds()))
            h.Set("Retry-After", strconv.Itoa(secs))
            logger.Debug("ratelimit: blocked", zap.String("key", key), zap.Duration("retry", st.retry))
            return c.JSON(http.StatusTooManyRequests, echo.Map{
                "error":       "rate limit exceeded",
                "code":        "RATE_LIMITED",
                "retry_after": secs,
            })
        }
    }
}

func asInt64(v interface{}) int64 {
    switch t := v.(type) {
    case int64:
        return t
    case int:
        return int64(t)
    case float64:
        return int64(t)
    case string:
        n, _ := strconv.ParseInt(t, 10, 64)
        return n
    }
    return 0
}

// rateKeyParts maps a strategy name to the identity segments it keys on.
var rateKeyParts = map[string][]string{
    "ip":         {"ip"},
    "user":       {"user"},
    "route":      {"route"},
    "ip_user":    {"ip", "user"},
    "ip_route":   {"ip", "route"},
    "user_route": {"user", "route"},
}

// rateKey joins cfg.Prefix with the segments named by cfg.KeyStrategy.
// Unknown strategies key on ip, user and route together.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
    names, ok := rateKeyParts[strings.ToLower(cfg.KeyStrategy)]
    if !ok {
        names = []string{"ip", "user", "route"}
    }
    parts := []string{cfg.Prefix}
    for _, n := range names {
        var v string
        switch n {
        case "ip":
            if v = c.RealIP(); v == "" {
                v = "unknown"
            }
        case "user":
            v = userID(c)
        case "route":
            v = c.Request().Method + " " + c.Path()
        }
        parts = append(parts, n, v)
    }
    return strings.Join(parts, ":")
}
