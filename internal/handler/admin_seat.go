package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/novamovie/ticket-booking/internal/model"
	"github.com/novamovie/ticket-booking/internal/repository"
)

// AdminSeatHandler exposes occupancy reporting and the seat clearing
// operations. Clearing returns the removed-row count; an empty scope is
// a count of zero, not an error.
type AdminSeatHandler struct {
	Movies *repository.MovieRepo
	Seats  *repository.SeatRepo
}

func NewAdminSeatHandler(m *repository.MovieRepo, s *repository.SeatRepo) *AdminSeatHandler {
	return &AdminSeatHandler{Movies: m, Seats: s}
}

// SeatStatus reports today's booked seats per active movie. An optional
// movie_id query parameter narrows it to one movie.
func (h *AdminSeatHandler) SeatStatus(c echo.Context) error {
	var movieID uint64
	if raw := c.QueryParam("movie_id"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || n == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie_id"})
		}
		movieID = n
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	statuses, err := h.Seats.SeatStatus(ctx, movieID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"movies": statuses})
}

// BookingDetail shows who holds today's booking for one seat.
func (h *AdminSeatHandler) BookingDetail(c echo.Context) error {
	movieID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	seat, ok := model.NormalizeSeatCode(c.Param("seat"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat code"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	d, err := h.Seats.GetBookingDetail(ctx, movieID, seat)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "seat is not booked"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"movie_id":     d.Booking.MovieID,
		"seat_number":  d.Booking.SeatNumber,
		"booking_date": d.Booking.BookingDate.Format("2006-01-02"),
		"user_id":      d.Booking.UserID,
		"user_name":    d.UserName,
		"phone_number": d.Phone,
	})
}

// ClearAll wipes today's bookings across every movie.
func (h *AdminSeatHandler) ClearAll(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	cleared, err := h.Seats.ClearAllToday(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "clear failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"cleared": cleared})
}

// ClearMovie wipes today's bookings for one movie.
func (h *AdminSeatHandler) ClearMovie(c echo.Context) error {
	movieID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if _, err := h.Movies.GetByID(ctx, movieID); err != nil {
		if err == repository.ErrMovieNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	cleared, err := h.Seats.ClearForMovie(ctx, movieID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "clear failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"cleared": cleared})
}

// ClearSeat frees a single seat of one movie for today.
func (h *AdminSeatHandler) ClearSeat(c echo.Context) error {
	movieID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	seat, ok := model.NormalizeSeatCode(c.Param("seat"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat code"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	cleared, err := h.Seats.ClearSingle(ctx, movieID, seat)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "clear failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"cleared": cleared})
}
