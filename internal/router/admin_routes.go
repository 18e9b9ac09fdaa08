package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/car-rental-reservation/internal/handler"
	"github.com/iliyamo/car-rental-reservation/internal/middleware"
	"github.com/iliyamo/car-rental-reservation/internal/model"
)

// RegisterAdmin registers catalog and coupon management under /v1/admin.
// Every route requires the ADMIN role.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group("/v1/admin", middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleAdmin))
	g.POST("/vehicles", h.CreateVehicle)
	g.PUT("/vehicles/:id", h.UpdateVehicle)
	g.DELETE("/vehicles/:id", h.DeleteVehicle)
	g.POST("/locations", h.CreateLocation)
	g.POST("/extras", h.UpsertExtra)
	g.POST("/discountCoupons", h.CreateCoupon)
	g.GET("/bookings", h.ListBookings)
}
