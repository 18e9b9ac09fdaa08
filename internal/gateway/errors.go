package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes sent by the reservation API in the "code" field of an error
// body.
const (
	CodeDraftExists       = "DRAFT_EXISTS"
	CodeInvalidCoupon     = "INVALID_COUPON"
	CodeCouponExpired     = "COUPON_EXPIRED"
	CodeMinimumOrder      = "MIN_ORDER_NOT_MET"
	CodeUsageLimit        = "USAGE_LIMIT_REACHED"
	CodeNotFound          = "NOT_FOUND"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeValidation        = "VALIDATION_ERROR"
	CodeUnauthenticated   = "UNAUTHENTICATED"
)

var (
	ErrDraftExists        = errors.New("a saved draft already exists")
	ErrInvalidCoupon      = errors.New("invalid coupon")
	ErrCouponExpired      = errors.New("coupon expired")
	ErrMinimumOrderNotMet = errors.New("minimum order amount not met")
	ErrUsageLimitReached  = errors.New("coupon usage limit reached")
	ErrNotFound           = errors.New("not found")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrUnauthenticated    = errors.New("not authenticated")
)

var sentinels = map[string]error{
	CodeDraftExists:       ErrDraftExists,
	CodeInvalidCoupon:     ErrInvalidCoupon,
	CodeCouponExpired:     ErrCouponExpired,
	CodeMinimumOrder:      ErrMinimumOrderNotMet,
	CodeUsageLimit:        ErrUsageLimitReached,
	CodeNotFound:          ErrNotFound,
	CodeInvalidTransition: ErrInvalidTransition,
	CodeUnauthenticated:   ErrUnauthenticated,
}

// Class groups remote failures by how the user should be told about them.
type Class string

const (
	ClassUnauthenticated Class = "unauthenticated"
	ClassValidation      Class = "validation"
	ClassServer          Class = "server"
	ClassNetwork         Class = "network"
)

// RemoteError is any failed call to the reservation API.  Status is zero
// when no response was received.
type RemoteError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	switch {
	case e.Status == 0 && e.Err != nil:
		return fmt.Sprintf("rental api unreachable: %v", e.Err)
	case e.Code != "":
		return fmt.Sprintf("rental api %d %s: %s", e.Status, e.Code, e.Message)
	default:
		return fmt.Sprintf("rental api %d: %s", e.Status, e.Message)
	}
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Is matches the sentinel registered for the error code, and
// ErrUnauthenticated for any 401/403.
func (e *RemoteError) Is(target error) bool {
	if s, ok := sentinels[e.Code]; ok && s == target {
		return true
	}
	return target == ErrUnauthenticated && e.Class() == ClassUnauthenticated
}

// Class classifies the failure.
func (e *RemoteError) Class() Class {
	switch {
	case e.Status == 0:
		return ClassNetwork
	case e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden:
		return ClassUnauthenticated
	case e.Status >= 500:
		return ClassServer
	default:
		return ClassValidation
	}
}

// UserMessage renders err for an end user.  Validation failures carry the
// server's own message; the other classes get a fixed text.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var re *RemoteError
	if !errors.As(err, &re) {
		return err.Error()
	}
	switch re.Class() {
	case ClassUnauthenticated:
		return "Your session has expired. Please sign in again."
	case ClassNetwork:
		return "Could not reach the rental service. Check your connection and try again."
	case ClassServer:
		return "The rental service is having trouble. Please try again later."
	default:
		if re.Message != "" {
			return re.Message
		}
		return "The request was rejected."
	}
}
