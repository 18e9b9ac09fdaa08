package handler

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/car-rental-reservation/internal/draft"
	"github.com/iliyamo/car-rental-reservation/internal/model"
	"github.com/iliyamo/car-rental-reservation/internal/pricing"
	"github.com/iliyamo/car-rental-reservation/internal/repository"
	"github.com/iliyamo/car-rental-reservation/internal/wizard"
)

type couponValidator interface {
	Validate(ctx context.Context, code string, orderAmount decimal.Decimal, now time.Time) (model.Coupon, error)
	IncrementUsage(ctx context.Context, id uint64) (model.Coupon, error)
}

// DraftHandler hosts the wizard draft of a signed-in user on the server.
// Each request opens a draft.Store over the user's slot, so the stored
// total is always recomputed from catalog prices.
type DraftHandler struct {
	Slots    func(userID uint64) draft.Slot
	Resolver *Resolver
	Coupons  couponValidator
	Log      *zap.Logger
}

func NewDraftHandler(slots func(userID uint64) draft.Slot, res *Resolver, coupons couponValidator, logger *zap.Logger) *DraftHandler {
	return &DraftHandler{Slots: slots, Resolver: res, Coupons: coupons, Log: nopIfNil(logger)}
}

func (h *DraftHandler) open(c echo.Context) (*draft.Store, error) {
	uid, err := getUserID(c)
	if err != nil {
		return nil, err
	}
	return draft.NewStore(h.Slots(uid), h.Log.With(zap.Uint64("user_id", uid))), nil
}

// withStore runs fn against the caller's draft and answers with the
// resulting draft.
func (h *DraftHandler) withStore(c echo.Context, fn func(s *draft.Store) error) error {
	s, err := h.open(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, CodeUnauthenticated, "unauthorized")
	}
	if err := fn(s); err != nil {
		if ok, resp := rejected(c, err); ok {
			return resp
		}
		return repoError(c, h.Log, "update draft", err)
	}
	return c.JSON(http.StatusOK, s.Current())
}

// Get handles GET /v1/draft.
func (h *DraftHandler) Get(c echo.Context) error {
	return h.withStore(c, func(*draft.Store) error { return nil })
}

// SelectCar handles PUT /v1/draft/car.
func (h *DraftHandler) SelectCar(c echo.Context) error {
	var req struct {
		VehicleID uint64 `json:"vehicleId"`
	}
	if err := c.Bind(&req); err != nil || req.VehicleID == 0 {
		return badRequest(c, "vehicleId is required")
	}
	return h.withStore(c, func(s *draft.Store) error {
		v, err := h.Resolver.Vehicles.GetByID(c.Request().Context(), req.VehicleID)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && !v.IsActive) {
			return reject(CodeValidation, "vehicle %d is not available", req.VehicleID)
		}
		if err != nil {
			return err
		}
		s.SelectCar(v.Vehicle)
		return nil
	})
}

// SetLocations handles PUT /v1/draft/locations.  A missing return
// location means the car goes back where it was picked up.
func (h *DraftHandler) SetLocations(c echo.Context) error {
	var req struct {
		PickupLocationID uint64 `json:"pickupLocationId"`
		ReturnLocationID uint64 `json:"returnLocationId"`
	}
	if err := c.Bind(&req); err != nil || req.PickupLocationID == 0 {
		return badRequest(c, "pickupLocationId is required")
	}
	if req.ReturnLocationID == 0 {
		req.ReturnLocationID = req.PickupLocationID
	}
	return h.withStore(c, func(s *draft.Store) error {
		ctx := c.Request().Context()
		var locs [2]model.Location
		for i, id := range []uint64{req.PickupLocationID, req.ReturnLocationID} {
			l, err := h.Resolver.Locations.GetByID(ctx, id)
			if errors.Is(err, repository.ErrNotFound) {
				return reject(CodeValidation, "location %d does not exist", id)
			}
			if err != nil {
				return err
			}
			locs[i] = l
		}
		s.SetLocations(locs[0], locs[1])
		return nil
	})
}

// SetDates handles PUT /v1/draft/dates.
func (h *DraftHandler) SetDates(c echo.Context) error {
	var req struct {
		PickupDate time.Time `json:"pickupDate"`
		ReturnDate time.Time `json:"returnDate"`
	}
	if err := c.Bind(&req); err != nil || req.PickupDate.IsZero() || req.ReturnDate.IsZero() {
		return badRequest(c, "pickupDate and returnDate are required (RFC 3339)")
	}
	return h.withStore(c, func(s *draft.Store) error {
		s.SetDates(req.PickupDate, req.ReturnDate)
		return nil
	})
}

// AddExtra handles POST /v1/draft/extras.
func (h *DraftHandler) AddExtra(c echo.Context) error {
	var req struct {
		ID string `json:"id"`
	}
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.ID) == "" {
		return badRequest(c, "id is required")
	}
	code := strings.TrimSpace(req.ID)
	return h.withStore(c, func(s *draft.Store) error {
		found, err := h.Resolver.Extras.ByCodes(c.Request().Context(), []string{code})
		if err != nil {
			return err
		}
		x, ok := found[code]
		if !ok {
			return reject(CodeValidation, "extra service %q does not exist", code)
		}
		x.Selected = true
		s.AddExtraService(x)
		return nil
	})
}

// RemoveExtra handles DELETE /v1/draft/extras/:id.
func (h *DraftHandler) RemoveExtra(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	return h.withStore(c, func(s *draft.Store) error {
		s.RemoveExtraService(id)
		return nil
	})
}

// SetCustomer handles PUT /v1/draft/customer.
func (h *DraftHandler) SetCustomer(c echo.Context) error {
	var req model.CustomerDetails
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Name == "" {
		return badRequest(c, "name is required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return badRequest(c, "a valid email is required")
	}
	if req.Age <= 0 {
		return badRequest(c, "age must be positive")
	}
	return h.withStore(c, func(s *draft.Store) error {
		s.SetCustomerDetails(req)
		return nil
	})
}

// ApplyDiscount handles PUT /v1/draft/discount.  The coupon is checked
// against the subtotal before discount and one use is recorded.  Applying
// the coupon already on the draft only re-checks it.
func (h *DraftHandler) ApplyDiscount(c echo.Context) error {
	var req struct {
		Code string `json:"code"`
	}
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Code) == "" {
		return badRequest(c, "code is required")
	}
	return h.withStore(c, func(s *draft.Store) error {
		ctx := c.Request().Context()
		cur := s.Current()
		subtotal := pricing.Subtotal(cur)
		if cur.AppliedDiscount != nil && cur.AppliedDiscount.Code == repository.NormalizeCode(req.Code) {
			coupon, err := h.Resolver.Coupons.GetByCode(ctx, cur.AppliedDiscount.Code)
			if errors.Is(err, repository.ErrNotFound) {
				return reject(CodeInvalidCoupon, "coupon %q does not exist", req.Code)
			}
			if err != nil {
				return err
			}
			if err := checkAttached(coupon, subtotal, time.Now().UTC()); err != nil {
				return err
			}
			s.ApplyDiscount(model.Discount{Code: coupon.Code, Amount: coupon.Amount})
			return nil
		}

		coupon, err := h.Coupons.Validate(ctx, req.Code, subtotal, time.Now().UTC())
		if errors.Is(err, repository.ErrNotFound) {
			return reject(CodeInvalidCoupon, "coupon %q does not exist", req.Code)
		}
		if err != nil {
			return err
		}
		if coupon, err = h.Coupons.IncrementUsage(ctx, coupon.ID); err != nil {
			return err
		}
		h.Log.Info("coupon usage recorded", zap.String("code", coupon.Code), zap.Uint32("usage_count", coupon.UsageCount))
		s.ApplyDiscount(model.Discount{Code: coupon.Code, Amount: coupon.Amount})
		return nil
	})
}

// RemoveDiscount handles DELETE /v1/draft/discount.
func (h *DraftHandler) RemoveDiscount(c echo.Context) error {
	return h.withStore(c, func(s *draft.Store) error {
		s.RemoveDiscount()
		return nil
	})
}

// Reset handles DELETE /v1/draft.
func (h *DraftHandler) Reset(c echo.Context) error {
	s, err := h.open(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, CodeUnauthenticated, "unauthorized")
	}
	s.Reset()
	return c.NoContent(http.StatusNoContent)
}

// Step handles GET /v1/draft/steps/:step and tells the wizard whether the
// step may be entered or where to go instead.
func (h *DraftHandler) Step(c echo.Context) error {
	target, err := wizard.ParseStep(c.Param("step"))
	if err != nil {
		return fail(c, http.StatusNotFound, CodeNotFound, "unknown step")
	}
	s, err := h.open(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, CodeUnauthenticated, "unauthorized")
	}
	p := wizard.NewPolicy(s)
	step, ok := p.CanEnter(target)
	resp := echo.Map{"step": target, "allowed": ok, "completed": p.Progress()}
	if !ok {
		resp["redirect"] = step
	}
	return c.JSON(http.StatusOK, resp)
}
