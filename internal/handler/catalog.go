package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/car-rental-reservation/internal/repository"
)

// CatalogHandler serves the public fleet, branches and extras.  Responses
// are cached by the Redis cache middleware.
type CatalogHandler struct {
    Vehicles  *repository.VehicleRepo
    Locations *repository.LocationRepo
    Extras    *repository.ExtraRepo
    Log       *zap.Logger
}

func NewCatalogHandler(v *repository.VehicleRepo, l *repository.LocationRepo, x *repository.ExtraRepo, logger *zap.Logger) *CatalogHandler {
    if v == nil || l == nil || x == nil {
        panic("nil repository passed to NewCatalogHandler")
    }
    return &CatalogHandler{Vehicles: v, Locations: l, Extras: x, Log: nopIfNil(logger)}
}

// ListVehicles handles GET /v1/vehicles.
func (h *CatalogHandler) ListVehicles(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    items, err := h.Vehicles.List(ctx, true)
    if err != nil {
        return repoError(c, h.Log, "list vehicles", err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetVehicle handles GET /v1/vehicles/:id.  Deactivated vehicles are
// reported as missing.
func (h *CatalogHandler) GetVehicle(c echo.Context) error {
    id, ok := paramUint(c, "id")
    if !ok {
        return badRequest(c, "invalid vehicle id")
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    v, err := h.Vehicles.GetByID(ctx, id)
    if err == nil && !v.IsActive {
        err = repository.ErrNotFound
    }
    if err != nil {
        return repoError(c, h.Log, "get vehicle", err)
    }
    return c.JSON(http.StatusOK, v)
}

// ListLocations handles GET /v1/locations.
func (h *CatalogHandler) ListLocations(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    items, err := h.Locations.List(ctx)
    if err != nil {
        return repoError(c, h.Log, "list locations", err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetLocation handles GET /v1/locations/:id.
func (h *CatalogHandler) GetLocation(c echo.Context) error {
    id, ok := paramUint(c, "id")
    if !ok {
        return badRequest(c, "invalid location id")
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    l, err := h.Locations.GetByID(ctx, id)
    if err != nil {
        return repoError(c, h.Log, "get location", err)
    }
    return c.JSON(http.StatusOK, l)
}

// ListExtras handles GET /v1/extras.
func (h *CatalogHandler) ListExtras(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    items, err := h.Extras.ListActive(ctx)
    if err != nil {
        return repoError(c, h.Log, "list extras", err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}
