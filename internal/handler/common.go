package handler // handler defines the HTTP handlers of the rental API

import (
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/car-rental-reservation/internal/model"
    "github.com/iliyamo/car-rental-reservation/internal/repository"
)

// Error codes returned in the "code" field of error bodies.  Clients map
// them back onto their own sentinel errors.
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
    CodeForbidden         = "FORBIDDEN"
    CodeConflict          = "CONFLICT"
    CodeInternal          = "INTERNAL"
)

// getUserID extracts the user_id claim stored by JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
    v := c.Get("user_id")
    switch t := v.(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64: // JSON numbers in JWT claims
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// isAdmin reports whether the caller carries the ADMIN role.
func isAdmin(c echo.Context) bool {
    role, _ := c.Get("role").(string)
    return role == model.RoleAdmin
}

func fail(c echo.Context, status int, code, msg string) error {
    return c.JSON(status, echo.Map{"error": msg, "code": code})
}

func badRequest(c echo.Context, msg string) error {
    return fail(c, http.StatusBadRequest, CodeValidation, msg)
}

// repoError translates repository sentinels into responses.  Anything
// unknown is logged and reported as 500.
func repoError(c echo.Context, logger *zap.Logger, op string, err error) error {
    switch {
    case errors.Is(err, repository.ErrNotFound):
        return fail(c, http.StatusNotFound, CodeNotFound, "not found")
    case errors.Is(err, repository.ErrForbidden):
        return fail(c, http.StatusForbidden, CodeForbidden, "forbidden")
    case errors.Is(err, repository.ErrDraftExists):
        return fail(c, http.StatusConflict, CodeDraftExists, "a saved draft already exists")
    case errors.Is(err, repository.ErrInvalidTransition):
        return fail(c, http.StatusConflict, CodeInvalidTransition, "status change not allowed")
    case errors.Is(err, repository.ErrConflict):
        return fail(c, http.StatusConflict, CodeConflict, "conflict")
    case errors.Is(err, repository.ErrCouponExpired):
        return fail(c, http.StatusBadRequest, CodeCouponExpired, "coupon expired")
    case errors.Is(err, repository.ErrMinimumOrderNotMet):
        return fail(c, http.StatusBadRequest, CodeMinimumOrder, "order amount is below the coupon minimum")
    case errors.Is(err, repository.ErrUsageLimitReached):
        return fail(c, http.StatusConflict, CodeUsageLimit, "coupon usage limit reached")
    }
    if logger != nil {
        logger.Error(op+" failed", zap.Error(err), zap.String("path", c.Path()))
    }
    return fail(c, http.StatusInternalServerError, CodeInternal, op+" failed")
}

func paramUint(c echo.Context, name string) (uint64, bool) {
    n, err := strconv.ParseUint(c.Param(name), 10, 64)
    return n, err == nil && n > 0
}

func nopIfNil(l *zap.Logger) *zap.Logger {
    if l == nil {
        return zap.NewNop()
    }
    return l
}
