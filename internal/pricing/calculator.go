// Package pricing turns a reservation draft into money.  Everything here
// is pure: no I/O, no errors, missing inputs simply contribute nothing.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/car-rental-reservation/internal/model"
)

const day = 24 * time.Hour

// RentalDays returns the number of charged days between pickup and
// return.  Every started day counts, the order of the two instants does
// not matter and the minimum is one day.
func RentalDays(pickup, ret time.Time) int64 {
	d := ret.Sub(pickup)
	if d < 0 {
		d = -d
	}
	days := int64(d / day)
	if d%day != 0 {
		days++
	}
	if days < 1 {
		days = 1
	}
	return days
}

// Base is the vehicle part of the price.  It is zero until a car and
// both dates are present.
func Base(d model.ReservationDraft) decimal.Decimal {
	if d.Car == nil || d.PickupDate == nil || d.ReturnDate == nil {
		return decimal.Zero
	}
	days := RentalDays(*d.PickupDate, *d.ReturnDate)
	return d.Car.PricePerDay.Mul(decimal.NewFromInt(days))
}

// ExtrasTotal sums the prices of the selected extras.
func ExtrasTotal(d model.ReservationDraft) decimal.Decimal {
	sum := decimal.Zero
	for _, svc := range d.ExtraServices {
		if svc.Selected {
			sum = sum.Add(svc.Price)
		}
	}
	return sum
}

// Subtotal is the order amount before any discount.  Coupons are
// validated against it.
func Subtotal(d model.ReservationDraft) decimal.Decimal {
	return Base(d).Add(ExtrasTotal(d))
}

// DiscountAmount returns the applied coupon amount, or zero.
func DiscountAmount(d model.ReservationDraft) decimal.Decimal {
	if d.AppliedDiscount == nil {
		return decimal.Zero
	}
	return d.AppliedDiscount.Amount
}

// ComputeTotal returns max(0, base + extras - discount).
func ComputeTotal(d model.ReservationDraft) decimal.Decimal {
	total := Subtotal(d).Sub(DiscountAmount(d))
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}
