package handler

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/car-rental-reservation/internal/model"
	"github.com/iliyamo/car-rental-reservation/internal/repository"
)

type fakeCatalog struct {
	mu        sync.Mutex
	vehicles  map[uint64]model.CatalogVehicle
	locations map[uint64]model.Location
	extras    map[string]model.ExtraService
	coupons   map[string]model.Coupon
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		vehicles: map[uint64]model.CatalogVehicle{
			1: {Vehicle: model.Vehicle{ID: 1, Brand: "Toyota", Model: "Yaris", PricePerDay: decimal.NewFromInt(100)}, IsActive: true},
			2: {Vehicle: model.Vehicle{ID: 2, Brand: "Fiat", Model: "Panda", PricePerDay: decimal.NewFromInt(30)}, IsActive: false},
		},
		locations: map[uint64]model.Location{
			10: {ID: 10, Name: "Airport", City: "Lisbon"},
			11: {ID: 11, Name: "Centre", City: "Lisbon"},
		},
		extras: map[string]model.ExtraService{
			"gps":        {ID: "gps", Name: "GPS", Price: decimal.NewFromInt(10)},
			"child-seat": {ID: "child-seat", Name: "Child seat", Price: decimal.NewFromInt(7)},
		},
		coupons: map[string]model.Coupon{
			"SAVE50": {ID: 3, Code: "SAVE50", Amount: decimal.NewFromInt(50), ExpiresAt: time.Now().Add(24 * time.Hour)},
			"OLD":    {ID: 4, Code: "OLD", Amount: decimal.NewFromInt(5), ExpiresAt: time.Now().Add(-time.Hour)},
			"BIG":    {ID: 5, Code: "BIG", Amount: decimal.NewFromInt(20), MinOrderAmount: decimal.NewFromInt(1000), ExpiresAt: time.Now().Add(time.Hour)},
			"ONCE":   {ID: 6, Code: "ONCE", Amount: decimal.NewFromInt(15), UsageLimit: 1, ExpiresAt: time.Now().Add(time.Hour)},
		},
	}
}

type vehicleFake struct{ *fakeCatalog }
type locationFake struct{ *fakeCatalog }
type extraFake struct{ *fakeCatalog }
type couponFake struct{ *fakeCatalog }

func (f vehicleFake) GetByID(_ context.Context, id uint64) (model.CatalogVehicle, error) {
	v, ok := f.vehicles[id]
	if !ok {
		return v, repository.ErrNotFound
	}
	return v, nil
}

func (f locationFake) GetByID(_ context.Context, id uint64) (model.Location, error) {
	l, ok := f.locations[id]
	if !ok {
		return l, repository.ErrNotFound
	}
	return l, nil
}

func (f extraFake) ByCodes(_ context.Context, codes []string) (map[string]model.ExtraService, error) {
	out := map[string]model.ExtraService{}
	for _, c := range codes {
		if x, ok := f.extras[c]; ok {
			out[c] = x
		}
	}
	return out, nil
}

func (f couponFake) GetByCode(_ context.Context, code string) (model.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.coupons[repository.NormalizeCode(code)]
	if !ok {
		return c, repository.ErrNotFound
	}
	return c, nil
}

func (f couponFake) Validate(ctx context.Context, code string, amount decimal.Decimal, now time.Time) (model.Coupon, error) {
	c, err := f.GetByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return c, err
	}
	if err := repository.CheckCoupon(c, amount, now); err != nil {
		return model.Coupon{}, err
	}
	return c, nil
}

func (f couponFake) IncrementUsage(_ context.Context, id uint64) (model.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for code, c := range f.coupons {
		if c.ID != id {
			continue
		}
		if c.UsageLimit > 0 && c.UsageCount >= c.UsageLimit {
			return model.Coupon{}, repository.ErrUsageLimitReached
		}
		c.UsageCount++
		f.coupons[code] = c
		return c, nil
	}
	return model.Coupon{}, repository.ErrNotFound
}

func (f *fakeCatalog) usage(code string) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.coupons[code].UsageCount
}

func (f *fakeCatalog) resolver() *Resolver {
	return &Resolver{
		Vehicles:  vehicleFake{f},
		Locations: locationFake{f},
		Extras:    extraFake{f},
		Coupons:   couponFake{f},
	}
}
