package model

import (
    "strings"
    "time"

    "github.com/shopspring/decimal"
)

// Status is the lifecycle state of a reservation.
type Status string

const (
    StatusDraft     Status = "Draft"
    StatusSaved     Status = "Saved"
    StatusQuoted    Status = "Quoted"
    StatusConfirmed Status = "Confirmed"
    StatusCancelled Status = "Cancelled"
)

// ParseStatus matches s case-insensitively against the known statuses.
func ParseStatus(s string) (Status, bool) {
    for _, st := range []Status{StatusDraft, StatusSaved, StatusQuoted, StatusConfirmed, StatusCancelled} {
        if strings.EqualFold(strings.TrimSpace(s), string(st)) {
            return st, true
        }
    }
    return "", false
}

// CanTransitionTo reports whether a persisted booking in status s may be
// written with status next.  Saved is a client-side alias of Draft.
func (s Status) CanTransitionTo(next Status) bool {
    if s == StatusSaved {
        s = StatusDraft
    }
    if next == StatusSaved {
        next = StatusDraft
    }
    switch s {
    case StatusDraft:
        return next == StatusDraft || next == StatusQuoted || next == StatusConfirmed || next == StatusCancelled
    case StatusQuoted:
        return next == StatusQuoted || next == StatusConfirmed || next == StatusCancelled
    case StatusConfirmed:
        return next == StatusCancelled
    default:
        return false
    }
}

// Deletable reports whether a booking in status s may be removed.
func (s Status) Deletable() bool {
    return s == StatusDraft || s == StatusSaved || s == StatusQuoted
}

// CustomerDetails holds the driver's contact data collected by the
// customer-details step.  Phone is optional.
type CustomerDetails struct {
    Name  string `json:"name"`
    Age   int    `json:"age"`
    Email string `json:"email"`
    Phone string `json:"phone,omitempty"`
}

// Discount is a coupon already validated by the server.  Only the
// amount takes part in pricing.
type Discount struct {
    Code   string          `json:"code"`
    Amount decimal.Decimal `json:"amount"`
}

// ReservationDraft is the single in-progress reservation of a client
// session.  Optional parts are pointers: nil means the wizard step that
// sets them has not run yet.  TotalPrice is derived from the other
// fields and is never set directly by callers.
//
// ID, Status, CreatedAt and UpdatedAt are only filled once the draft
// has been persisted through the reservation API.
type ReservationDraft struct {
    ID              string           `json:"id,omitempty"`
    Status          Status           `json:"status,omitempty"`
    Car             *Vehicle         `json:"car,omitempty"`
    PickupLocation  *Location        `json:"pickupLocation,omitempty"`
    ReturnLocation  *Location        `json:"returnLocation,omitempty"`
    PickupDate      *time.Time       `json:"pickupDate,omitempty"`
    ReturnDate      *time.Time       `json:"returnDate,omitempty"`
    ExtraServices   []ExtraService   `json:"extraServices"`
    CustomerDetails *CustomerDetails `json:"customerDetails,omitempty"`
    AppliedDiscount *Discount        `json:"appliedDiscount,omitempty"`
    TotalPrice      decimal.Decimal  `json:"totalPrice"`
    CreatedAt       *time.Time       `json:"createdAt,omitempty"`
    UpdatedAt       *time.Time       `json:"updatedAt,omitempty"`
}

// NewDraft returns an empty draft: nothing selected, no extras and a
// zero total.
func NewDraft() ReservationDraft {
    return ReservationDraft{
        ExtraServices: []ExtraService{},
        TotalPrice:    decimal.Zero,
    }
}

// Clone returns a deep copy so that callers can never alias the
// pointers or the extras slice of a draft owned by someone else.
func (d ReservationDraft) Clone() ReservationDraft {
    out := d
    if d.Car != nil {
        car := *d.Car
        out.Car = &car
    }
    if d.PickupLocation != nil {
        loc := *d.PickupLocation
        out.PickupLocation = &loc
    }
    if d.ReturnLocation != nil {
        loc := *d.ReturnLocation
        out.ReturnLocation = &loc
    }
    out.PickupDate = cloneTime(d.PickupDate)
    out.ReturnDate = cloneTime(d.ReturnDate)
    out.CreatedAt = cloneTime(d.CreatedAt)
    out.UpdatedAt = cloneTime(d.UpdatedAt)
    out.ExtraServices = make([]ExtraService, len(d.ExtraServices))
    copy(out.ExtraServices, d.ExtraServices)
    if d.CustomerDetails != nil {
        cd := *d.CustomerDetails
        out.CustomerDetails = &cd
    }
    if d.AppliedDiscount != nil {
        disc := *d.AppliedDiscount
        out.AppliedDiscount = &disc
    }
    return out
}

func cloneTime(t *time.Time) *time.Time {
    if t == nil {
        return nil
    }
    v := *t
    return &v
}
