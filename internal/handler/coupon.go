package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/car-rental-reservation/internal/repository"
)

// CouponHandler validates coupons and records their usage.
type CouponHandler struct {
	Coupons *repository.CouponRepo
	Log     *zap.Logger
	now     func() time.Time
}

func NewCouponHandler(c *repository.CouponRepo, logger *zap.Logger) *CouponHandler {
	return &CouponHandler{Coupons: c, Log: nopIfNil(logger), now: time.Now}
}

// Validate handles GET /v1/discountCoupons/validate/:code?orderAmount=.
// Unknown codes answer 404 INVALID_COUPON.
func (h *CouponHandler) Validate(c echo.Context) error {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		return badRequest(c, "coupon code is required")
	}
	amount := decimal.Zero
	if raw := strings.TrimSpace(c.QueryParam("orderAmount")); raw != "" {
		v, err := decimal.NewFromString(raw)
		if err != nil || v.IsNegative() {
			return badRequest(c, "orderAmount must be a non-negative number")
		}
		amount = v
	}
	coupon, err := h.Coupons.Validate(c.Request().Context(), code, amount, h.now().UTC())
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, CodeInvalidCoupon, "coupon not found")
	}
	if err != nil {
		return repoError(c, h.Log, "validate coupon", err)
	}
	return c.JSON(http.StatusOK, coupon)
}

// Apply handles PUT /v1/discountCoupons/:id/apply.
func (h *CouponHandler) Apply(c echo.Context) error {
	id, ok := paramUint(c, "id")
	if !ok {
		return badRequest(c, "invalid coupon id")
	}
	coupon, err := h.Coupons.IncrementUsage(c.Request().Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, CodeInvalidCoupon, "coupon not found")
	}
	if err != nil {
		return repoError(c, h.Log, "apply coupon", err)
	}
	h.Log.Info("coupon applied", zap.String("code", coupon.Code), zap.Uint32("usage_count", coupon.UsageCount))
	return c.JSON(http.StatusOK, coupon)
}
