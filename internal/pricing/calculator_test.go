package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/car-rental-reservation/internal/model"
)

var day0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func draftWith(price int64, pickup, ret time.Time) model.ReservationDraft {
	d := model.NewDraft()
	d.Car = &model.Vehicle{ID: 1, Brand: "Toyota", Model: "Corolla", PricePerDay: dec(price)}
	d.PickupDate = &pickup
	d.ReturnDate = &ret
	return d
}

func TestRentalDays(t *testing.T) {
	tests := []struct {
		name   string
		pickup time.Time
		ret    time.Time
		want   int64
	}{
		{"same instant", day0, day0, 1},
		{"one hour", day0, day0.Add(time.Hour), 1},
		{"exactly one day", day0, day0.Add(24 * time.Hour), 1},
		{"one day and a minute", day0, day0.Add(24*time.Hour + time.Minute), 2},
		{"three days", day0, day0.AddDate(0, 0, 3), 3},
		{"inverted range", day0.AddDate(0, 0, 2), day0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RentalDays(tt.pickup, tt.ret); got != tt.want {
				t.Errorf("RentalDays() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestComputeTotal_Empty(t *testing.T) {
	if got := ComputeTotal(model.NewDraft()); !got.IsZero() {
		t.Errorf("ComputeTotal(empty) = %s, want 0", got)
	}
}

func TestComputeTotal_MissingDatesIgnoresCar(t *testing.T) {
	d := model.NewDraft()
	d.Car = &model.Vehicle{PricePerDay: dec(80)}
	d.ExtraServices = []model.ExtraService{{ID: "gps", Price: dec(10), Selected: true}}
	if got := ComputeTotal(d); !got.Equal(dec(10)) {
		t.Errorf("ComputeTotal() = %s, want 10", got)
	}
}

func TestComputeTotal_MinimumDuration(t *testing.T) {
	d := draftWith(50, day0, day0)
	if got := ComputeTotal(d); !got.Equal(dec(50)) {
		t.Errorf("ComputeTotal() = %s, want 50", got)
	}
}

func TestComputeTotal_UnselectedExtrasAreFree(t *testing.T) {
	d := draftWith(100, day0, day0.AddDate(0, 0, 2))
	d.ExtraServices = []model.ExtraService{
		{ID: "gps", Price: dec(10), Selected: true},
		{ID: "child-seat", Price: dec(25), Selected: false},
	}
	if got := ComputeTotal(d); !got.Equal(dec(210)) {
		t.Errorf("ComputeTotal() = %s, want 210", got)
	}
}

func TestComputeTotal_NeverNegative(t *testing.T) {
	tests := []struct {
		name     string
		discount int64
		want     int64
	}{
		{"smaller than subtotal", 50, 260},
		{"equal to subtotal", 310, 0},
		{"larger than subtotal", 1000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := draftWith(100, day0, day0.AddDate(0, 0, 3))
			d.ExtraServices = []model.ExtraService{{ID: "gps", Price: dec(10), Selected: true}}
			d.AppliedDiscount = &model.Discount{Code: "X", Amount: dec(tt.discount)}
			got := ComputeTotal(d)
			if got.IsNegative() {
				t.Fatalf("ComputeTotal() = %s, must not be negative", got)
			}
			if !got.Equal(dec(tt.want)) {
				t.Errorf("ComputeTotal() = %s, want %d", got, tt.want)
			}
		})
	}
}

func TestComputeTotal_AddingSelectedExtraNeverDecreases(t *testing.T) {
	d := draftWith(40, day0, day0.AddDate(0, 0, 1))
	d.AppliedDiscount = &model.Discount{Code: "BIG", Amount: dec(100)}
	prev := ComputeTotal(d)
	for i, price := range []int64{0, 5, 30, 100} {
		d.ExtraServices = append(d.ExtraServices, model.ExtraService{ID: string(rune('a' + i)), Price: dec(price), Selected: true})
		next := ComputeTotal(d)
		if next.LessThan(prev) {
			t.Fatalf("total decreased from %s to %s after adding extra priced %d", prev, next, price)
		}
		prev = next
	}
}

func TestSubtotal_ExcludesDiscount(t *testing.T) {
	d := draftWith(100, day0, day0.AddDate(0, 0, 3))
	d.AppliedDiscount = &model.Discount{Code: "X", Amount: dec(50)}
	if got := Subtotal(d); !got.Equal(dec(300)) {
		t.Errorf("Subtotal() = %s, want 300", got)
	}
}
