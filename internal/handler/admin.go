package handler

import (
    "context"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/shopspring/decimal"
    "go.uber.org/zap"

    "github.com/iliyamo/car-rental-reservation/internal/model"
    "github.com/iliyamo/car-rental-reservation/internal/repository"
)

// AdminHandler manages the catalog and coupons and lists all bookings.
// Every catalog write calls Purge so cached catalog responses are dropped.
type AdminHandler struct {
    Vehicles  *repository.VehicleRepo
    Locations *repository.LocationRepo
    Extras    *repository.ExtraRepo
    Coupons   *repository.CouponRepo
    Bookings  *repository.BookingRepo
    Purge     func(ctx context.Context)
    Log       *zap.Logger
}

func (h *AdminHandler) purge(ctx context.Context) {
    if h.Purge != nil {
        h.Purge(ctx)
    }
}

type vehicleReq struct {
    Brand       string          `json:"brand"`
    Model       string          `json:"model"`
    Category    string          `json:"category"`
    Seats       uint8           `json:"seats"`
    PricePerDay decimal.Decimal `json:"pricePerDay"`
    IsActive    *bool           `json:"isActive"`
}

func (r vehicleReq) validate() string {
    switch {
    case strings.TrimSpace(r.Brand) == "" || strings.TrimSpace(r.Model) == "":
        return "brand and model are required"
    case !r.PricePerDay.IsPositive():
        return "pricePerDay must be positive"
    }
    return ""
}

func (r vehicleReq) toModel() model.CatalogVehicle {
    v := model.CatalogVehicle{
        Vehicle: model.Vehicle{
            Brand:       strings.TrimSpace(r.Brand),
            Model:       strings.TrimSpace(r.Model),
            PricePerDay: r.PricePerDay.Round(2),
        },
        Category: strings.ToLower(strings.TrimSpace(r.Category)),
        Seats:    r.Seats,
        IsActive: true,
    }
    if v.Category == "" {
        v.Category = "economy"
    }
    if v.Seats == 0 {
        v.Seats = 5
    }
    if r.IsActive != nil {
        v.IsActive = *r.IsActive
    }
    return v
}

// CreateVehicle handles POST /v1/admin/vehicles.
func (h *AdminHandler) CreateVehicle(c echo.Context) error {
    var req vehicleReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    if msg := req.validate(); msg != "" {
        return badRequest(c, msg)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    v := req.toModel()
    if err := h.Vehicles.Create(ctx, &v); err != nil {
        return repoError(c, h.Log, "create vehicle", err)
    }
    h.purge(ctx)
    return c.JSON(http.StatusCreated, v)
}

// UpdateVehicle handles PUT /v1/admin/vehicles/:id.
func (h *AdminHandler) UpdateVehicle(c echo.Context) error {
    id, ok := paramUint(c, "id")
    if !ok {
        return badRequest(c, "invalid vehicle id")
    }
    var req vehicleReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    if msg := req.validate(); msg != "" {
        return badRequest(c, msg)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    v := req.toModel()
    v.ID = id
    if err := h.Vehicles.Update(ctx, &v); err != nil {
        return repoError(c, h.Log, "update vehicle", err)
    }
    h.purge(ctx)
    return c.JSON(http.StatusOK, v)
}

// DeleteVehicle handles DELETE /v1/admin/vehicles/:id by deactivating it.
func (h *AdminHandler) DeleteVehicle(c echo.Context) error {
    id, ok := paramUint(c, "id")
    if !ok {
        return badRequest(c, "invalid vehicle id")
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    if err := h.Vehicles.Deactivate(ctx, id); err != nil {
        return repoError(c, h.Log, "delete vehicle", err)
    }
    h.purge(ctx)
    return c.NoContent(http.StatusNoContent)
}

// CreateLocation handles POST /v1/admin/locations.
func (h *AdminHandler) CreateLocation(c echo.Context) error {
    var l model.Location
    if err := c.Bind(&l); err != nil {
        return badRequest(c, "invalid body")
    }
    l.Name, l.City = strings.TrimSpace(l.Name), strings.TrimSpace(l.City)
    if l.Name == "" || l.City == "" {
        return badRequest(c, "name and city are required")
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    l.ID = 0
    if err := h.Locations.Create(ctx, &l); err != nil {
        return repoError(c, h.Log, "create location", err)
    }
    h.purge(ctx)
    return c.JSON(http.StatusCreated, l)
}

// UpsertExtra handles POST /v1/admin/extras.
func (h *AdminHandler) UpsertExtra(c echo.Context) error {
    var e model.ExtraService
    if err := c.Bind(&e); err != nil {
        return badRequest(c, "invalid body")
    }
    e.ID = strings.ToLower(strings.TrimSpace(e.ID))
    if e.ID == "" || strings.TrimSpace(e.Name) == "" {
        return badRequest(c, "id and name are required")
    }
    if e.Price.IsNegative() {
        return badRequest(c, "price must not be negative")
    }
    e.Selected = false
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    if err := h.Extras.Upsert(ctx, e); err != nil {
        return repoError(c, h.Log, "save extra", err)
    }
    h.purge(ctx)
    return c.JSON(http.StatusCreated, e)
}

type couponReq struct {
    Code           string          `json:"code"`
    Amount         decimal.Decimal `json:"amount"`
    MinOrderAmount decimal.Decimal `json:"minOrderAmount"`
    ExpiresAt      time.Time       `json:"expiresAt"`
    UsageLimit     uint32          `json:"usageLimit"`
}

// CreateCoupon handles POST /v1/admin/discountCoupons.
func (h *AdminHandler) CreateCoupon(c echo.Context) error {
    var req couponReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    switch {
    case repository.NormalizeCode(req.Code) == "":
        return badRequest(c, "code is required")
    case !req.Amount.IsPositive():
        return badRequest(c, "amount must be positive")
    case req.MinOrderAmount.IsNegative():
        return badRequest(c, "minOrderAmount must not be negative")
    case !req.ExpiresAt.After(time.Now()):
        return badRequest(c, "expiresAt must be in the future")
    }
    cp := model.Coupon{
        Code:           req.Code,
        Amount:         req.Amount.Round(2),
        MinOrderAmount: req.MinOrderAmount.Round(2),
        ExpiresAt:      req.ExpiresAt.UTC(),
        UsageLimit:     req.UsageLimit,
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    if err := h.Coupons.Create(ctx, &cp); err != nil {
        return repoError(c, h.Log, "create coupon", err)
    }
    h.Log.Info("coupon created", zap.String("code", cp.Code), zap.Uint64("id", cp.ID))
    return c.JSON(http.StatusCreated, cp)
}

// ListBookings handles GET /v1/admin/bookings?status=&limit=&offset=.
func (h *AdminHandler) ListBookings(c echo.Context) error {
    var status model.Status
    if s := c.QueryParam("status"); s != "" {
        st, ok := model.ParseStatus(s)
        if !ok || st == model.StatusSaved {
            return badRequest(c, "unknown status")
        }
        status = st
    }
    limit, _ := strconv.Atoi(c.QueryParam("limit"))
    if limit <= 0 || limit > 200 {
        limit = 50
    }
    offset, _ := strconv.Atoi(c.QueryParam("offset"))
    if offset < 0 {
        offset = 0
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    items, err := h.Bookings.ListAll(ctx, status, limit, offset)
    if err != nil {
        return repoError(c, h.Log, "list bookings", err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items, "limit": limit, "offset": offset})
}
