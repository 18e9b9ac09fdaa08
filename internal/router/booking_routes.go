package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/car-rental-reservation/internal/handler"
	"github.com/iliyamo/car-rental-reservation/internal/middleware"
	"github.com/iliyamo/car-rental-reservation/internal/model"
)

func signedIn(jwtSecret string) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer, model.RoleAdmin),
	}
}

// RegisterBookings registers the reservation lifecycle endpoints.  Owners
// and admins may act on a booking; handlers check ownership.
func RegisterBookings(e *echo.Echo, h *handler.BookingHandler, jwtSecret string) {
	g := e.Group("/v1", signedIn(jwtSecret)...)
	g.GET("/drafts", h.HasDraft)
	g.POST("/bookings", h.Create)
	g.GET("/bookings", h.List)
	g.GET("/bookings/:id", h.Get)
	g.PUT("/bookings/:id", h.Update)
	g.DELETE("/bookings/:id", h.Delete)
	g.POST("/bookings/:id/cancel", h.Cancel)
	g.GET("/bookings/:id/invoice", h.Invoice)
}

// RegisterCoupons registers coupon validation, rate limited per user and
// route, and usage recording.
func RegisterCoupons(e *echo.Echo, h *handler.CouponHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/discountCoupons", signedIn(jwtSecret)...)
	g.GET("/validate/:code", h.Validate, limit)
	g.PUT("/:id/apply", h.Apply)
}

// RegisterDraft registers the server-hosted wizard draft.
func RegisterDraft(e *echo.Echo, h *handler.DraftHandler, jwtSecret string) {
	g := e.Group("/v1/draft", signedIn(jwtSecret)...)
	g.GET("", h.Get)
	g.DELETE("", h.Reset)
	g.PUT("/car", h.SelectCar)
	g.PUT("/locations", h.SetLocations)
	g.PUT("/dates", h.SetDates)
	g.PUT("/customer", h.SetCustomer)
	g.PUT("/discount", h.ApplyDiscount)
	g.DELETE("/discount", h.RemoveDiscount)
	g.POST("/extras", h.AddExtra)
	g.DELETE("/extras/:id", h.RemoveExtra)
	g.GET("/steps/:step", h.Step)
}
