package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/hex"
    "encoding/json"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/car-rental-reservation/internal/config"
)

// cachedResponse is what a catalog hit replays.
type cachedResponse struct {
    Status int         `json:"s"`
    Header http.Header `json:"h"`
    Body   []byte      `json:"b"`
}

// bodyTee copies what the handler writes into buf until limit is passed,
// after which the response is marked oversize and no longer buffered.
type bodyTee struct {
    http.ResponseWriter
    status   int
    buf      bytes.Buffer
    limit    int
    oversize bool
}

func (t *bodyTee) WriteHeader(code int) {
    t.status = code
    t.ResponseWriter.WriteHeader(code)
}

func (t *bodyTee) Write(b []byte) (int, error) {
    if !t.oversize {
        if t.limit > 0 && t.buf.Len()+len(b) > t.limit {
            t.oversize = true
            t.buf.Reset()
        } else {
            t.buf.Write(b)
        }
    }
    return t.ResponseWriter.Write(b)
}

// cacheKeyFrom hashes the parts selected by cfg.KeyStrategy under cfg.Prefix.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context) string {
    r := c.Request()
    var tail string
    switch strings.ToLower(cfg.KeyStrategy) {
    case "route":
        tail = "route:" + c.Path()
    case "method_route":
        tail = "method:" + r.Method + ":route:" + c.Path()
    case "method_route_query":
        tail = "method:" + r.Method + ":route:" + c.Path() + ":q:" + r.URL.RawQuery
    default:
        tail = "route:" + c.Path() + ":q:" + r.URL.RawQuery
    }
    sum := sha1.Sum([]byte(tail))
    return cfg.Prefix + ":" + hex.EncodeToString(sum[:])
}

func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
    return json.Marshal(cachedResponse{Status: status, Header: header, Body: body})
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
    var cr cachedResponse
    if err := json.Unmarshal(bs, &cr); err != nil || cr.Status == 0 {
        return 0, nil, nil, false
    }
    if cr.Header == nil {
        cr.Header = make(http.Header)
    }
    return cr.Status, cr.Header, cr.Body, true
}

// replay writes a cached response, dropping headers the hit must not echo.
func replay(c echo.Context, status int, hdr http.Header, body []byte) {
    out := c.Response().Header()
    for k, vals := range hdr {
        switch http.CanonicalHeaderKey(k) {
        case "Content-Length", "X-Cache":
            continue
        }
        for _, v := range vals {
            out.Add(k, v)
        }
    }
    out.Set("X-Cache", "HIT")
    c.Response().WriteHeader(status)
    if len(body) > 0 {
        _, _ = c.Response().Write(body)
    }
}

func ttlFor(cfg config.CacheConfig, route string) time.Duration {
    if ttl := cfg.TTLFor(route); ttl > 0 {
        return ttl
    }
    return 5 * time.Minute
}

// NewRedisCache caches 200 responses of the configured methods in Redis,
// headers included, under cfg.Prefix.  Hits are marked X-Cache: HIT.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
                return next(c)
            }
            key := cacheKeyFrom(cfg, c)
            if bs, err := rdb.Get(c.Request().Context(), key).Bytes(); err == nil {
                if status, hdr, body, ok := decodePayload(bs); ok {
                    replay(c, status, hdr, body)
                    return nil
                }
            }

            tee := &bodyTee{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
            c.Response().Writer = tee
            c.Response().Header().Set("X-Cache", "MISS")
            if err := next(c); err != nil {
                return err
            }
            if tee.status != http.StatusOK || tee.oversize {
                return nil
            }
            if payload, err := encodePayload(tee.status, c.Response().Header().Clone(), tee.buf.Bytes()); err == nil {
                _ = rdb.SetEx(context.Background(), key, payload, ttlFor(cfg, c.Path())).Err()
            }
            return nil
        }
    }
}

// PurgeCache deletes every key under cfg.Prefix.  Catalog writes call it
// so cached listings never outlive the change.
func PurgeCache(ctx context.Context, cfg config.CacheConfig, rdb *redis.Client) (int, error) {
    if rdb == nil {
        return 0, nil
    }
    deleted := 0
    iter := rdb.Scan(ctx, 0, cfg.Prefix+":*", 200).Iterator()
    batch := make([]string, 0, 200)
    flush := func() error {
        if len(batch) == 0 {
            return nil
        }
        n, err := rdb.Del(ctx, batch...).Result()
        deleted += int(n)
        batch = batch[:0]
        return err
    }
    for iter.Next(ctx) {
        batch = append(batch, iter.Val())
        if len(batch) == cap(batch) {
            if err := flush(); err != nil {
                return deleted, err
            }
        }
    }
    if err := iter.Err(); err != nil {
        return deleted, err
    }
    return deleted, flush()
}
