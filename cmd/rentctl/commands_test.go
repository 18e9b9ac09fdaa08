package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/car-rental-reservation/internal/checkout"
	"github.com/iliyamo/car-rental-reservation/internal/config"
	"github.com/iliyamo/car-rental-reservation/internal/draft"
	"github.com/iliyamo/car-rental-reservation/internal/model"
	"github.com/iliyamo/car-rental-reservation/internal/pricing"
	"github.com/iliyamo/car-rental-reservation/internal/storage"
)

// fakeAPI serves the subset of the rental API rentctl talks to.
type fakeAPI struct {
	mu       sync.Mutex
	bookings map[string]model.ReservationDraft
	applied  int
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reply := func(status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	car := model.CatalogVehicle{Vehicle: model.Vehicle{ID: 1, Brand: "Toyota", Model: "Yaris", PricePerDay: decimal.NewFromInt(100)}, IsActive: true}
	loc := model.Location{ID: 10, Name: "Airport", City: "Lisbon"}
	gps := model.ExtraService{ID: "gps", Name: "GPS", Price: decimal.NewFromInt(10)}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/v1/vehicles/1":
		reply(http.StatusOK, car)
	case r.Method == http.MethodGet && r.URL.Path == "/v1/locations/10":
		reply(http.StatusOK, loc)
	case r.Method == http.MethodGet && r.URL.Path == "/v1/extras":
		reply(http.StatusOK, map[string]any{"items": []model.ExtraService{gps}})
	case r.Method == http.MethodGet && r.URL.Path == "/v1/discountCoupons/validate/SAVE50":
		reply(http.StatusOK, model.Coupon{ID: 3, Code: "SAVE50", Amount: decimal.NewFromInt(50)})
	case strings.HasPrefix(r.URL.Path, "/v1/discountCoupons/validate/"):
		reply(http.StatusNotFound, map[string]string{"error": "coupon not found", "code": "INVALID_COUPON"})
	case r.Method == http.MethodPut && r.URL.Path == "/v1/discountCoupons/3/apply":
		f.applied++
		reply(http.StatusOK, model.Coupon{ID: 3})
	case r.Method == http.MethodPost && r.URL.Path == "/v1/bookings":
		var d model.ReservationDraft
		_ = json.NewDecoder(r.Body).Decode(&d)
		d.ID = "b-1"
		f.bookings[d.ID] = d
		reply(http.StatusCreated, d)
	case r.Method == http.MethodGet && r.URL.Path == "/v1/bookings/b-1/invoice":
		reply(http.StatusOK, pricing.BuildInvoice(f.bookings["b-1"]))
	default:
		reply(http.StatusNotFound, map[string]string{"error": "not found", "code": "NOT_FOUND"})
	}
}

func newTestApp(t *testing.T, slot draft.Slot) (*app, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{bookings: map[string]model.ReservationDraft{}}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	cfg := config.ClientConfig{APIURL: srv.URL, Token: "t", Timeout: 5 * time.Second}
	return newApp(cfg, slot, nil), api
}

func exec(t *testing.T, a *app, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	if err := run(context.Background(), a, args, &out); err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out.String()
}

func TestWizardThroughCommands(t *testing.T) {
	a, api := newTestApp(t, draft.NewMemorySlot())

	exec(t, a, "locations", "-pickup", "10")
	exec(t, a, "dates", "-pickup", "2026-05-01T10:00:00Z", "-return", "2026-05-04T10:00:00Z")
	exec(t, a, "car", "-id", "1")
	if got := a.store.Current().TotalPrice; !got.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("total = %s, want 300", got)
	}
	exec(t, a, "extra-add", "-id", "gps")
	exec(t, a, "coupon", "-code", "SAVE50")
	if got := a.store.Current().TotalPrice; !got.Equal(decimal.NewFromInt(260)) {
		t.Fatalf("total = %s, want 260", got)
	}
	api.mu.Lock()
	applied := api.applied
	api.mu.Unlock()
	if applied != 1 {
		t.Errorf("coupon usage recorded %d times, want 1", applied)
	}

	if out := exec(t, a, "step", "-name", "checkout"); !strings.Contains(out, "blocked, continue at customer-details") {
		t.Errorf("step output = %q", out)
	}
	exec(t, a, "customer", "-name", "Ana", "-age", "30", "-email", "ana@example.com")
	if out := exec(t, a, "step", "-name", "checkout"); !strings.Contains(out, "allowed") {
		t.Errorf("step output = %q", out)
	}

	exec(t, a, "save")
	d := a.store.Current()
	if d.ID != "b-1" || d.Status != model.StatusSaved {
		t.Fatalf("after save: id=%q status=%q", d.ID, d.Status)
	}
	inv := exec(t, a, "invoice")
	if !strings.Contains(inv, "260.00") || strings.Count(inv, "50.00") != 1 {
		t.Errorf("invoice:\n%s", inv)
	}
}

func TestCommandErrors(t *testing.T) {
	a, _ := newTestApp(t, draft.NewMemorySlot())
	var out bytes.Buffer
	ctx := context.Background()

	if err := run(ctx, a, nil, &out); !errors.Is(err, errUsage) {
		t.Errorf("no args: %v", err)
	}
	if err := run(ctx, a, []string{"fly"}, &out); err == nil {
		t.Error("unknown command accepted")
	}
	if err := run(ctx, a, []string{"dates", "-pickup", "tomorrow", "-return", "later"}, &out); err == nil {
		t.Error("bad dates accepted")
	}
	if err := run(ctx, a, []string{"coupon", "-code", "NOPE"}, &out); err == nil {
		t.Error("unknown coupon accepted")
	}
	if !a.store.Current().TotalPrice.IsZero() || a.store.Current().AppliedDiscount != nil {
		t.Error("failed commands changed the draft")
	}
	if err := run(ctx, a, []string{"finalize"}, &out); !errors.Is(err, checkout.ErrIncomplete) {
		t.Errorf("finalize on empty draft: %v", err)
	}
}

func TestDraftSurvivesRestart(t *testing.T) {
	dir := t.TempDir()

	slot, err := storage.OpenBadgerSlot(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	a, _ := newTestApp(t, slot)
	exec(t, a, "car", "-id", "1")
	exec(t, a, "dates", "-pickup", "2026-05-01T10:00:00Z", "-return", "2026-05-02T09:00:00Z")
	if err := slot.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	slot, err = storage.OpenBadgerSlot(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer slot.Close()
	b, _ := newTestApp(t, slot)
	d := b.store.Current()
	if d.Car == nil || d.Car.ID != 1 || !d.TotalPrice.Equal(decimal.NewFromInt(100)) {
		t.Errorf("restored draft = %+v", d)
	}

	exec(t, b, "reset")
	if b.store.Current().Car != nil {
		t.Error("reset kept the car")
	}
}
