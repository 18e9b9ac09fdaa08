package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/car-rental-reservation/internal/model"
)

// CouponRepo stores discount coupons and their usage counters.
type CouponRepo struct {
	db *sql.DB
}

func NewCouponRepo(db *sql.DB) *CouponRepo { return &CouponRepo{db: db} }

const couponColumns = "id, code, amount, min_order_amount, expires_at, usage_limit, usage_count, created_at"

func scanCoupon(sc interface{ Scan(...any) error }) (model.Coupon, error) {
	var c model.Coupon
	err := sc.Scan(&c.ID, &c.Code, &c.Amount, &c.MinOrderAmount, &c.ExpiresAt, &c.UsageLimit, &c.UsageCount, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Coupon{}, ErrNotFound
	}
	return c, err
}

// NormalizeCode upper-cases and trims a coupon code.
func NormalizeCode(code string) string { return strings.ToUpper(strings.TrimSpace(code)) }

// Create inserts c and fills its ID.  Duplicate codes yield ErrConflict.
func (r *CouponRepo) Create(ctx context.Context, c *model.Coupon) error {
	c.Code = NormalizeCode(c.Code)
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO discount_coupons (code, amount, min_order_amount, expires_at, usage_limit) VALUES (?, ?, ?, ?, ?)",
		c.Code, c.Amount, c.MinOrderAmount, c.ExpiresAt.UTC(), c.UsageLimit)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

func (r *CouponRepo) GetByCode(ctx context.Context, code string) (model.Coupon, error) {
	return scanCoupon(r.db.QueryRowContext(ctx,
		"SELECT "+couponColumns+" FROM discount_coupons WHERE code = ?", NormalizeCode(code)))
}

func (r *CouponRepo) GetByID(ctx context.Context, id uint64) (model.Coupon, error) {
	return scanCoupon(r.db.QueryRowContext(ctx,
		"SELECT "+couponColumns+" FROM discount_coupons WHERE id = ?", id))
}

// Validate looks code up and checks it against orderAmount at now.
func (r *CouponRepo) Validate(ctx context.Context, code string, orderAmount decimal.Decimal, now time.Time) (model.Coupon, error) {
	c, err := r.GetByCode(ctx, code)
	if err != nil {
		return model.Coupon{}, err
	}
	if err := CheckCoupon(c, orderAmount, now); err != nil {
		return model.Coupon{}, err
	}
	return c, nil
}

// CheckCoupon applies the coupon rules: not expired, usage below the limit
// (zero meaning unlimited) and the order reaching the minimum amount.
func CheckCoupon(c model.Coupon, orderAmount decimal.Decimal, now time.Time) error {
	if !now.Before(c.ExpiresAt) {
		return ErrCouponExpired
	}
	if c.UsageLimit > 0 && c.UsageCount >= c.UsageLimit {
		return ErrUsageLimitReached
	}
	if orderAmount.LessThan(c.MinOrderAmount) {
		return ErrMinimumOrderNotMet
	}
	return nil
}

// IncrementUsage records one use of coupon id.  The increment is a single
// conditional UPDATE so concurrent applies never exceed the limit.
func (r *CouponRepo) IncrementUsage(ctx context.Context, id uint64) (model.Coupon, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE discount_coupons SET usage_count = usage_count + 1 "+
			"WHERE id = ? AND expires_at > UTC_TIMESTAMP() AND (usage_limit = 0 OR usage_count < usage_limit)",
		id)
	if err != nil {
		return model.Coupon{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Coupon{}, err
	}
	c, err := r.GetByID(ctx, id)
	if err != nil {
		return model.Coupon{}, err
	}
	if n == 0 {
		if !time.Now().UTC().Before(c.ExpiresAt) {
			return model.Coupon{}, ErrCouponExpired
		}
		return model.Coupon{}, ErrUsageLimitReached
	}
	return c, nil
}
