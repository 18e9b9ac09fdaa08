package handler

import (
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/shopspring/decimal"

    "github.com/iliyamo/car-rental-reservation/internal/repository"
)

// SearchVehicles handles GET /v1/search/vehicles.
// Filters: q (brand or model), category, seats (minimum), max_price.
func (h *CatalogHandler) SearchVehicles(c echo.Context) error {
    q := repository.VehicleSearchQuery{
        Text:     strings.TrimSpace(c.QueryParam("q")),
        Category: strings.TrimSpace(c.QueryParam("category")),
    }
    if s := c.QueryParam("seats"); s != "" {
        n, err := strconv.ParseUint(s, 10, 8)
        if err != nil {
            return badRequest(c, "seats must be a small positive number")
        }
        q.MinSeats = uint8(n)
    }
    if s := c.QueryParam("max_price"); s != "" {
        p, err := decimal.NewFromString(s)
        if err != nil || p.IsNegative() {
            return badRequest(c, "max_price must be a non-negative number")
        }
        q.MaxPrice = p
    }

    page, _ := strconv.Atoi(c.QueryParam("page"))
    if page < 1 {
        page = 1
    }
    ps, _ := strconv.Atoi(c.QueryParam("page_size"))
    if ps < 1 {
        ps = 20
    }
    if ps > 100 {
        ps = 100
    }
    q.Page, q.PageSize = page, ps

    items, total, err := h.Vehicles.Search(c.Request().Context(), q)
    if err != nil {
        return repoError(c, h.Log, "search vehicles", err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "items":     items,
        "total":     total,
        "page":      page,
        "page_size": ps,
    })
}
