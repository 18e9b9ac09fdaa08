package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/car-rental-reservation/internal/model"
	"github.com/iliyamo/car-rental-reservation/internal/pricing"
	"github.com/iliyamo/car-rental-reservation/internal/repository"
	"github.com/iliyamo/car-rental-reservation/internal/wizard"
)

type vehicleFinder interface {
	GetByID(ctx context.Context, id uint64) (model.CatalogVehicle, error)
}

type locationFinder interface {
	GetByID(ctx context.Context, id uint64) (model.Location, error)
}

type extraFinder interface {
	ByCodes(ctx context.Context, codes []string) (map[string]model.ExtraService, error)
}

type couponFinder interface {
	GetByCode(ctx context.Context, code string) (model.Coupon, error)
}

// Resolver re-reads every catalog reference of a submitted draft so that
// stored bookings carry server prices, never client ones.
type Resolver struct {
	Vehicles  vehicleFinder
	Locations locationFinder
	Extras    extraFinder
	Coupons   couponFinder
	Now       func() time.Time
}

func (r *Resolver) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

// rejection is a client mistake in a submitted draft.
type rejection struct {
	code string
	msg  string
}

func (r *rejection) Error() string { return r.msg }

func reject(code, format string, args ...any) error {
	return &rejection{code: code, msg: fmt.Sprintf(format, args...)}
}

// Resolve returns d with the vehicle, locations, extras and coupon
// replaced by their catalog versions and the total recomputed.  Selected
// flags of the extras are kept as submitted.  Extra IDs must be unique,
// and an attached coupon must be unexpired and met by the subtotal.
func (r *Resolver) Resolve(ctx context.Context, d model.ReservationDraft) (model.ReservationDraft, error) {
	out := d.Clone()

	if d.Car != nil {
		v, err := r.Vehicles.GetByID(ctx, d.Car.ID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return out, reject(CodeValidation, "vehicle %d does not exist", d.Car.ID)
		case err != nil:
			return out, err
		case !v.IsActive:
			return out, reject(CodeValidation, "vehicle %d is not available", d.Car.ID)
		}
		car := v.Vehicle
		out.Car = &car
	}

	for _, loc := range []**model.Location{&out.PickupLocation, &out.ReturnLocation} {
		if *loc == nil {
			continue
		}
		l, err := r.Locations.GetByID(ctx, (*loc).ID)
		if errors.Is(err, repository.ErrNotFound) {
			return out, reject(CodeValidation, "location %d does not exist", (*loc).ID)
		}
		if err != nil {
			return out, err
		}
		*loc = &l
	}

	if len(d.ExtraServices) > 0 {
		codes := make([]string, 0, len(d.ExtraServices))
		seen := make(map[string]bool, len(d.ExtraServices))
		for _, x := range d.ExtraServices {
			if seen[x.ID] {
				return out, reject(CodeValidation, "extra service %q is listed more than once", x.ID)
			}
			seen[x.ID] = true
			codes = append(codes, x.ID)
		}
		found, err := r.Extras.ByCodes(ctx, codes)
		if err != nil {
			return out, err
		}
		for i, x := range out.ExtraServices {
			cat, ok := found[x.ID]
			if !ok {
				return out, reject(CodeValidation, "extra service %q does not exist", x.ID)
			}
			cat.Selected = x.Selected
			out.ExtraServices[i] = cat
		}
	}

	if d.AppliedDiscount != nil {
		c, err := r.Coupons.GetByCode(ctx, d.AppliedDiscount.Code)
		if errors.Is(err, repository.ErrNotFound) {
			return out, reject(CodeInvalidCoupon, "coupon %q does not exist", d.AppliedDiscount.Code)
		}
		if err != nil {
			return out, err
		}
		if err := checkAttached(c, pricing.Subtotal(out), r.now()); err != nil {
			return out, err
		}
		out.AppliedDiscount = &model.Discount{Code: c.Code, Amount: c.Amount}
	}

	out.TotalPrice = pricing.ComputeTotal(out)
	return out, nil
}

// checkAttached applies the coupon rules that still hold once a coupon is
// on a draft.  The usage limit is left out: applying already counted
// this draft's use.
func checkAttached(c model.Coupon, subtotal decimal.Decimal, now time.Time) error {
	c.UsageLimit = 0
	switch err := repository.CheckCoupon(c, subtotal, now); {
	case errors.Is(err, repository.ErrCouponExpired):
		return reject(CodeCouponExpired, "coupon %q has expired", c.Code)
	case errors.Is(err, repository.ErrMinimumOrderNotMet):
		return reject(CodeMinimumOrder, "coupon %q needs an order of at least %s", c.Code, c.MinOrderAmount.StringFixed(2))
	default:
		return err
	}
}

// checkComplete rejects drafts whose target status needs steps that are
// still missing.
func checkComplete(d model.ReservationDraft) error {
	var target wizard.Step
	switch d.Status {
	case model.StatusConfirmed:
		target = wizard.StepCheckout
	case model.StatusQuoted:
		target = wizard.StepReview
	default:
		return nil
	}
	if step, ok := wizard.Guard(target, d); !ok {
		return reject(CodeValidation, "reservation incomplete: step %q is missing", step)
	}
	return nil
}

