package middleware // reusable HTTP middleware for the rental API

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/car-rental-reservation/internal/utils"
)

// JWTAuth validates the Bearer access token and stores its subject and
// role under "user_id" and "role" in the echo context.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get(echo.HeaderAuthorization)
            if !strings.HasPrefix(auth, "Bearer ") {
                return unauthorized(c, "missing bearer token")
            }
            claims, err := utils.ParseAccessToken(secret, strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")))
            if err != nil {
                return unauthorized(c, "invalid token")
            }
            c.Set("user_id", claims.UserID)
            c.Set("role", claims.Role)
            return next(c)
        }
    }
}

func unauthorized(c echo.Context, msg string) error {
    return c.JSON(http.StatusUnauthorized, echo.Map{"error": msg, "code": "UNAUTHENTICATED"})
}
