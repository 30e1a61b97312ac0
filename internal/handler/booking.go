package handler

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/novamovie/ticket-booking/internal/config"
	"github.com/novamovie/ticket-booking/internal/model"
	"github.com/novamovie/ticket-booking/internal/queue"
	"github.com/novamovie/ticket-booking/internal/repository"
	queue_publisher "github.com/novamovie/ticket-booking/internal/service"
)

// BookingHandler owns the customer booking flow: direct multi-seat
// booking plus the two-phase hold/confirm variant. Handlers open the
// transaction so the availability check, the inserts and the hold
// bookkeeping commit or roll back as one unit.
type BookingHandler struct {
	Cfg    config.Config
	Movies *repository.MovieRepo
	Seats  *repository.SeatRepo
	Holds  *repository.SeatHoldRepo
}

func NewBookingHandler(cfg config.Config, m *repository.MovieRepo, s *repository.SeatRepo, h *repository.SeatHoldRepo) *BookingHandler {
	return &BookingHandler{Cfg: cfg, Movies: m, Seats: s, Holds: h}
}

type seatsReq struct {
	Seats []string `json:"seats"`
}

// parseSeats validates and normalizes a requested seat list. Duplicates
// collapse; unknown codes fail the whole request.
func parseSeats(raw []string) ([]string, string) {
	if len(raw) == 0 {
		return nil, "seats required"
	}
	seen := make(map[string]struct{}, len(raw))
	seats := make([]string, 0, len(raw))
	for _, s := range raw {
		code, ok := model.NormalizeSeatCode(s)
		if !ok {
			return nil, "invalid seat code: " + s
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		seats = append(seats, code)
	}
	sort.Strings(seats)
	return seats, ""
}

// bookableMovie loads the movie and confirms it is active and showing
// today. Returns a non-nil echo error response when not bookable.
func (h *BookingHandler) bookableMovie(ctx context.Context, c echo.Context, movieID uint64) (model.Movie, error, bool) {
	movie, err := h.Movies.GetByID(ctx, movieID)
	if err != nil {
		if err == repository.ErrMovieNotFound {
			return model.Movie{}, c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"}), false
		}
		return model.Movie{}, c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"}), false
	}
	today := time.Now().UTC().Format("2006-01-02")
	if movie.Status != model.StatusActive || movie.ShowDate.Format("2006-01-02") != today {
		return model.Movie{}, c.JSON(http.StatusConflict, echo.Map{"error": "movie is not showing today"}), false
	}
	return movie, nil, true
}

func conflictResponse(c echo.Context, sc *repository.SeatConflictError) error {
	return c.JSON(http.StatusConflict, echo.Map{
		"error":     "seats already booked",
		"conflicts": sc.Seats,
	})
}

func totalAmount(price string, n int) string {
	p, err := strconv.ParseFloat(price, 64)
	if err != nil {
		return price
	}
	return strconv.FormatFloat(p*float64(n), 'f', 2, 64)
}

// BookSeats books the requested seats for the authenticated user on the
// current date. All seats succeed or none do; a conflict names every
// seat that is booked or held by someone else.
func (h *BookingHandler) BookSeats(c echo.Context) error {
	movieID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req seatsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	seats, msg := parseSeats(req.Seats)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	movie, resp, ok := h.bookableMovie(ctx, c, movieID)
	if !ok {
		return resp
	}

	tx, err := h.Seats.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := h.Holds.ExpireHoldsTx(ctx, tx, movieID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
	}
	held, err := h.Holds.HeldByOthersTx(ctx, tx, movieID, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
	}
	if err := h.Seats.BookSeatsTx(ctx, tx, movieID, userID, seats, held); err != nil {
		var sc *repository.SeatConflictError
		if errors.As(err, &sc) {
			return conflictResponse(c, sc)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
	}
	// Booking a seat the user was holding consumes the hold.
	if _, err := h.Holds.DeleteByUserAndMovieTx(ctx, tx, userID, movieID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	h.publishBooked(movie, userID, seats)

	return c.JSON(http.StatusCreated, echo.Map{
		"movie_id":     movieID,
		"seats":        seats,
		"booking_date": time.Now().UTC().Format("2006-01-02"),
		"total_amount": totalAmount(movie.Price, len(seats)),
	})
}

// HoldSeats places short-lived holds on the requested seats. Holds are
// invisible to other users' booking attempts until they expire or are
// confirmed. Re-holding replaces the user's previous holds for the movie.
func (h *BookingHandler) HoldSeats(c echo.Context) error {
	movieID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req seatsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	seats, msg := parseSeats(req.Seats)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if _, resp, ok := h.bookableMovie(ctx, c, movieID); !ok {
		return resp
	}

	tx, err := h.Seats.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := h.Holds.ExpireHoldsTx(ctx, tx, movieID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hold failed"})
	}
	if _, err := h.Holds.DeleteByUserAndMovieTx(ctx, tx, userID, movieID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hold failed"})
	}
	occupied, err := h.Seats.OccupiedSeatsTx(ctx, tx, movieID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hold failed"})
	}
	held, err := h.Holds.HeldByOthersTx(ctx, tx, movieID, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hold failed"})
	}
	conflicts := make([]string, 0)
	for _, seat := range seats {
		if _, taken := occupied[seat]; taken {
			conflicts = append(conflicts, seat)
			continue
		}
		if _, hh := held[seat]; hh {
			conflicts = append(conflicts, seat)
		}
	}
	if len(conflicts) > 0 {
		sort.Strings(conflicts)
		return conflictResponse(c, &repository.SeatConflictError{Seats: conflicts})
	}

	expiresAt := time.Now().UTC().Add(time.Duration(h.Cfg.HoldTTLMin) * time.Minute)
	holds, err := repository.GenerateHoldRecords(userID, movieID, seats, expiresAt)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hold failed"})
	}
	if err := h.Holds.CreateMultipleTx(ctx, tx, holds); err != nil {
		var sc *repository.SeatConflictError
		if errors.As(err, &sc) {
			return conflictResponse(c, sc)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hold failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	return c.JSON(http.StatusCreated, echo.Map{
		"movie_id":   movieID,
		"seats":      seats,
		"expires_at": expiresAt,
	})
}

// ReleaseHolds drops the user's active holds for the movie.
func (h *BookingHandler) ReleaseHolds(c echo.Context) error {
	movieID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	tx, err := h.Seats.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	released, err := h.Holds.DeleteByUserAndMovieTx(ctx, tx, userID, movieID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "release failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	return c.JSON(http.StatusOK, echo.Map{"released": released})
}

// ConfirmSeats converts the user's active holds for the movie into
// bookings. Expired holds confirm nothing.
func (h *BookingHandler) ConfirmSeats(c echo.Context) error {
	movieID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	movie, resp, ok := h.bookableMovie(ctx, c, movieID)
	if !ok {
		return resp
	}

	tx, err := h.Seats.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := h.Holds.ExpireHoldsTx(ctx, tx, movieID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "confirm failed"})
	}
	seats, err := h.Holds.ActiveSeatsByUserAndMovieTx(ctx, tx, userID, movieID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "confirm failed"})
	}
	if len(seats) == 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "no active holds to confirm"})
	}
	held, err := h.Holds.HeldByOthersTx(ctx, tx, movieID, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "confirm failed"})
	}
	if err := h.Seats.BookSeatsTx(ctx, tx, movieID, userID, seats, held); err != nil {
		var sc *repository.SeatConflictError
		if errors.As(err, &sc) {
			return conflictResponse(c, sc)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "confirm failed"})
	}
	if _, err := h.Holds.DeleteByUserAndMovieTx(ctx, tx, userID, movieID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "confirm failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	h.publishBooked(movie, userID, seats)

	return c.JSON(http.StatusCreated, echo.Map{
		"movie_id":     movieID,
		"seats":        seats,
		"booking_date": time.Now().UTC().Format("2006-01-02"),
		"total_amount": totalAmount(movie.Price, len(seats)),
	})
}

// publishBooked emits the booked event after commit. Broker outages are
// logged by the publisher and never fail the request.
func (h *BookingHandler) publishBooked(movie model.Movie, userID uint64, seats []string) {
	ev := queue.SeatsBookedEvent{
		MovieID:     movie.ID,
		MovieTitle:  movie.Title,
		ShowDate:    movie.ShowDate.Format("2006-01-02"),
		UserID:      userID,
		Seats:       seats,
		TotalAmount: totalAmount(movie.Price, len(seats)),
		BookedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if movie.ShowTime != nil {
		ev.ShowTime = *movie.ShowTime
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue_publisher.PublishSeatsBooked(ctx, ev)
	}()
}
