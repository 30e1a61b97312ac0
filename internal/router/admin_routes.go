package router

import (
	"github.com/labstack/echo/v4"

	"github.com/novamovie/ticket-booking/internal/handler"
	"github.com/novamovie/ticket-booking/internal/middleware"
	"github.com/novamovie/ticket-booking/internal/model"
)

// RegisterAdmin registers the administration surface under /v1/admin:
// catalogue management, the activate/deactivate lifecycle, occupancy
// reporting, seat clearing and account management. Every route requires
// the admin role.
func RegisterAdmin(e *echo.Echo, movies *handler.AdminMovieHandler, seats *handler.AdminSeatHandler, users *handler.AdminUserHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	g.GET("/movies", movies.List)
	g.POST("/movies", movies.Create)
	g.PUT("/movies/:id", movies.Update)
	g.DELETE("/movies/:id", movies.Delete)
	g.POST("/movies/:id/activate", movies.Activate)
	g.POST("/movies/:id/deactivate", movies.Deactivate)

	g.GET("/seat-status", seats.SeatStatus)
	g.GET("/movies/:id/seats/:seat", seats.BookingDetail)
	g.DELETE("/seats", seats.ClearAll)
	g.DELETE("/movies/:id/seats", seats.ClearMovie)
	g.DELETE("/movies/:id/seats/:seat", seats.ClearSeat)

	g.GET("/users", users.List)
	g.DELETE("/users/:id", users.Delete)
}
