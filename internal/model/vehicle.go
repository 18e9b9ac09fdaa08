package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Vehicle represents a rentable car from the fleet.  The draft only
// needs the identifying fields and the daily price; the catalog keeps
// the rest.
//
// Fields:
//  ID          – primary key identifier.
//  Brand       – manufacturer name (e.g. Toyota).
//  Model       – model name (e.g. Corolla).
//  PricePerDay – rental price for one started day.
type Vehicle struct {
    ID          uint64          `json:"id"`
    Brand       string          `json:"brand"`
    Model       string          `json:"model"`
    PricePerDay decimal.Decimal `json:"pricePerDay"`
}

// CatalogVehicle is the full vehicles row as returned by the catalog
// endpoints.
type CatalogVehicle struct {
    Vehicle
    Category  string    `json:"category"`
    Seats     uint8     `json:"seats"`
    IsActive  bool      `json:"isActive"`
    CreatedAt time.Time `json:"createdAt"`
    UpdatedAt time.Time `json:"updatedAt"`
}
