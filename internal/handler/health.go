package handler

import (
    "context"
    "database/sql"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
)

// HealthHandler reports the reachability of the service's dependencies.
// Redis is optional: a nil client is reported as "disabled".
type HealthHandler struct {
    DB    *sql.DB
    Redis *redis.Client
}

func NewHealthHandler(db *sql.DB, rdb *redis.Client) *HealthHandler {
    return &HealthHandler{DB: db, Redis: rdb}
}

// Health answers 200 when MySQL responds and 503 otherwise.
func (h *HealthHandler) Health(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
    defer cancel()

    body := echo.Map{"status": "ok", "db": "ok", "redis": "disabled"}
    status := http.StatusOK
    if h.DB == nil || h.DB.PingContext(ctx) != nil {
        body["status"], body["db"] = "degraded", "down"
        status = http.StatusServiceUnavailable
    }
    if h.Redis != nil {
        body["redis"] = "ok"
        if err := h.Redis.Ping(ctx).Err(); err != nil {
            body["redis"] = "down"
        }
    }
    return c.JSON(status, body)
}
