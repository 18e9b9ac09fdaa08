package model

import "github.com/shopspring/decimal"

// ExtraService is an optional add-on such as a GPS unit or a child seat.
// ID is a short stable code ("gps", "child-seat") and is the identity
// used when upserting into a draft.  Only selected extras are charged.
type ExtraService struct {
    ID       string          `json:"id"`
    Name     string          `json:"name"`
    Price    decimal.Decimal `json:"price"`
    Selected bool            `json:"selected"`
}
