package router // router registers the HTTP routes of the rental API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/car-rental-reservation/internal/handler"
	"github.com/iliyamo/car-rental-reservation/internal/middleware"
	"github.com/iliyamo/car-rental-reservation/internal/model"
)

// RegisterRoutes registers the unauthenticated service endpoints.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Health)
}

// RegisterAuth registers the session endpoints.  Register, login and the
// refresh flows live under /v1/auth without a token; /v1/me needs one.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Issues an access token and keeps the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleCustomer, model.RoleAdmin))
	auth.GET("/me", a.Me)

	e.POST("/v1/logout", a.Logout)
}

// RegisterCatalog exposes the public catalog behind the response cache.
func RegisterCatalog(e *echo.Echo, h *handler.CatalogHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1", cache)
	g.GET("/vehicles", h.ListVehicles)
	g.GET("/vehicles/:id", h.GetVehicle)
	g.GET("/locations", h.ListLocations)
	g.GET("/locations/:id", h.GetLocation)
	g.GET("/extras", h.ListExtras)
	g.GET("/search/vehicles", h.SearchVehicles)
}
