// Package repository holds the MySQL data access layer.  The sentinel
// errors below let handlers pick a status code without inspecting driver
// errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrForbidden is returned when the caller touches a booking owned by
// someone else.  Handlers translate it into 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update or delete is blocked by the
// current state of the row.  Handlers translate it into 409.
var ErrConflict = errors.New("conflict")

// ErrNotFound is returned for unknown IDs and codes.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned by UserRepo.Create on a duplicate email.
var ErrEmailExists = errors.New("email already exists")

// ErrDraftExists is returned when a user already has a booking in Draft.
var ErrDraftExists = errors.New("a saved draft already exists")

// ErrInvalidTransition is returned when a status change is not allowed.
var ErrInvalidTransition = errors.New("invalid status transition")

// Coupon rejections.
var (
	ErrCouponExpired      = errors.New("coupon expired")
	ErrMinimumOrderNotMet = errors.New("minimum order amount not met")
	ErrUsageLimitReached  = errors.New("coupon usage limit reached")
)

// isDuplicate matches MySQL error 1062 (ER_DUP_ENTRY).
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
