package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Coupon mirrors a row of the discount_coupons table.  Amount is a
// fixed reduction of the order total.  A coupon is usable while
// ExpiresAt is in the future, UsageCount is below UsageLimit (zero
// meaning unlimited) and the order amount reaches MinOrderAmount.
type Coupon struct {
    ID             uint64          `json:"id"`
    Code           string          `json:"code"`
    Amount         decimal.Decimal `json:"amount"`
    MinOrderAmount decimal.Decimal `json:"minOrderAmount"`
    ExpiresAt      time.Time       `json:"expiresAt"`
    UsageLimit     uint32          `json:"usageLimit"`
    UsageCount     uint32          `json:"usageCount"`
    CreatedAt      time.Time       `json:"createdAt"`
}
