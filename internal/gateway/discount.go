package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/car-rental-reservation/internal/model"
)

// DiscountResolver validates coupon codes and records their usage.
type DiscountResolver struct {
	c *Client
}

// NewDiscountResolver returns the coupon API over c.
func NewDiscountResolver(c *Client) *DiscountResolver { return &DiscountResolver{c: c} }

// Validate checks code against orderAmount and returns the coupon.  Rejections
// match ErrInvalidCoupon, ErrCouponExpired, ErrMinimumOrderNotMet or
// ErrUsageLimitReached.
func (r *DiscountResolver) Validate(ctx context.Context, code string, orderAmount decimal.Decimal) (model.Coupon, error) {
	q := url.Values{}
	q.Set("orderAmount", orderAmount.StringFixed(2))
	var out model.Coupon
	if err := r.c.do(ctx, http.MethodGet, "/v1/discountCoupons/validate/"+url.PathEscape(code), q, nil, &out); err != nil {
		return model.Coupon{}, err
	}
	return out, nil
}

// RecordUsage increments the coupon's usage counter.
func (r *DiscountResolver) RecordUsage(ctx context.Context, couponID uint64) error {
	path := "/v1/discountCoupons/" + strconv.FormatUint(couponID, 10) + "/apply"
	return r.c.do(ctx, http.MethodPut, path, nil, nil, nil)
}
