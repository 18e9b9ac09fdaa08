package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/car-rental-reservation/internal/model"
)

// Line kinds used on invoices.
const (
	LineRental   = "rental"
	LineExtra    = "extra"
	LineDiscount = "discount"
)

// InvoiceLine is one priced row of an invoice.  Amount is Quantity *
// UnitPrice, negative for discounts.
type InvoiceLine struct {
	Kind        string          `json:"kind"`
	Description string          `json:"description"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Amount      decimal.Decimal `json:"amount"`
}

// Invoice holds the numeric input of the invoice document.
type Invoice struct {
	ReservationID string          `json:"reservationId,omitempty"`
	Lines         []InvoiceLine   `json:"lines"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
}

// BuildInvoice assembles the invoice lines of a draft.  The discount
// line is capped at the subtotal, so Total always equals ComputeTotal.
func BuildInvoice(d model.ReservationDraft) Invoice {
	inv := Invoice{ReservationID: d.ID, Lines: []InvoiceLine{}}

	if d.Car != nil && d.PickupDate != nil && d.ReturnDate != nil {
		days := RentalDays(*d.PickupDate, *d.ReturnDate)
		inv.Lines = append(inv.Lines, InvoiceLine{
			Kind:        LineRental,
			Description: fmt.Sprintf("%s %s", d.Car.Brand, d.Car.Model),
			Quantity:    days,
			UnitPrice:   d.Car.PricePerDay,
			Amount:      d.Car.PricePerDay.Mul(decimal.NewFromInt(days)),
		})
	}
	for _, svc := range d.ExtraServices {
		if !svc.Selected {
			continue
		}
		inv.Lines = append(inv.Lines, InvoiceLine{
			Kind:        LineExtra,
			Description: svc.Name,
			Quantity:    1,
			UnitPrice:   svc.Price,
			Amount:      svc.Price,
		})
	}

	inv.Subtotal = Subtotal(d)
	inv.Discount = decimal.Min(DiscountAmount(d), inv.Subtotal)
	if inv.Discount.IsNegative() {
		inv.Discount = decimal.Zero
	}
	if d.AppliedDiscount != nil && inv.Discount.IsPositive() {
		inv.Lines = append(inv.Lines, InvoiceLine{
			Kind:        LineDiscount,
			Description: "Coupon " + d.AppliedDiscount.Code,
			Quantity:    1,
			UnitPrice:   inv.Discount.Neg(),
			Amount:      inv.Discount.Neg(),
		})
	}
	inv.Total = ComputeTotal(d)
	return inv
}
