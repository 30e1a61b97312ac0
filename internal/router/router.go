// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/novamovie/ticket-booking/internal/handler"
	"github.com/novamovie/ticket-booking/internal/middleware"
	"github.com/novamovie/ticket-booking/internal/model"
)

// RegisterHealth exposes the liveness probe. No auth, no rate limit.
func RegisterHealth(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the session endpoints. Register, login and
// refresh are open; logout and /v1/me require a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout, middleware.JWTAuth(jwtSecret))

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated browse endpoints: the
// day's active movies and per-movie seat maps. cacheMW may be a no-op
// when Redis is not configured.
func RegisterPublic(e *echo.Echo, b *handler.BrowseHandler, cacheMW echo.MiddlewareFunc) {
	e.GET("/v1/movies/active", b.ActiveMovies, cacheMW)
	e.GET("/v1/movies/:id/seats", b.SeatMap, cacheMW)
}

// RegisterBooking registers the customer booking endpoints. Both roles
// may book; admins booking on behalf of walk-in customers is a normal
// box-office flow.
func RegisterBooking(e *echo.Echo, h *handler.BookingHandler, jwtSecret string) {
	g := e.Group(
		"/v1/movies/:id",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleCustomer),
	)
	g.POST("/seats", h.BookSeats)
	g.POST("/hold", h.HoldSeats)
	g.DELETE("/hold", h.ReleaseHolds)
	g.POST("/confirm", h.ConfirmSeats)
}
