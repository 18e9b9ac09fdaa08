// Package queue defines message payloads exchanged over the message broker.
package queue

import (
    "strings"
    "time"

    "github.com/shopspring/decimal"

    "github.com/iliyamo/car-rental-reservation/internal/model"
)

// ReservationConfirmedEvent is published when a booking reaches Confirmed.
// It carries enough for downstream consumers to log or notify without
// reading the database.
type ReservationConfirmedEvent struct {
    ReservationID  string          `json:"reservation_id"`
    UserID         uint64          `json:"user_id"`
    VehicleID      uint64          `json:"vehicle_id"`
    Vehicle        string          `json:"vehicle"`
    PickupLocation string          `json:"pickup_location"`
    ReturnLocation string          `json:"return_location"`
    PickupAt       string          `json:"pickup_at"`
    ReturnAt       string          `json:"return_at"`
    Extras         []string        `json:"extras"`
    CouponCode     string          `json:"coupon_code,omitempty"`
    TotalPrice     decimal.Decimal `json:"total_price"`
    CustomerEmail  string          `json:"customer_email,omitempty"`
    ConfirmedAt    string          `json:"confirmed_at"`
}

// NewReservationConfirmedEvent flattens a confirmed booking.
func NewReservationConfirmedEvent(userID uint64, d model.ReservationDraft, at time.Time) ReservationConfirmedEvent {
    ev := ReservationConfirmedEvent{
        ReservationID: d.ID,
        UserID:        userID,
        Extras:        []string{},
        TotalPrice:    d.TotalPrice,
        ConfirmedAt:   at.UTC().Format(time.RFC3339),
    }
    if d.Car != nil {
        ev.VehicleID = d.Car.ID
        ev.Vehicle = strings.TrimSpace(d.Car.Brand + " " + d.Car.Model)
    }
    if d.PickupLocation != nil {
        ev.PickupLocation = d.PickupLocation.Name
    }
    if d.ReturnLocation != nil {
        ev.ReturnLocation = d.ReturnLocation.Name
    }
    if d.PickupDate != nil {
        ev.PickupAt = d.PickupDate.UTC().Format(time.RFC3339)
    }
    if d.ReturnDate != nil {
        ev.ReturnAt = d.ReturnDate.UTC().Format(time.RFC3339)
    }
    for _, x := range d.ExtraServices {
        if x.Selected {
            ev.Extras = append(ev.Extras, x.ID)
        }
    }
    if d.AppliedDiscount != nil {
        ev.CouponCode = d.AppliedDiscount.Code
    }
    if d.CustomerDetails != nil {
        ev.CustomerEmail = d.CustomerDetails.Email
    }
    return ev
}
