package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/novamovie/ticket-booking/internal/model"
	"github.com/novamovie/ticket-booking/internal/repository"
)

// AdminMovieHandler manages the movie catalogue: CRUD plus the
// activate/deactivate lifecycle that assigns show slots and clears
// current-day seats.
type AdminMovieHandler struct {
	Movies *repository.MovieRepo
	Seats  *repository.SeatRepo
}

func NewAdminMovieHandler(m *repository.MovieRepo, s *repository.SeatRepo) *AdminMovieHandler {
	return &AdminMovieHandler{Movies: m, Seats: s}
}

type movieReq struct {
	Title    string `json:"title"`
	Genre    string `json:"genre"`
	Price    string `json:"price"`
	ShowDate string `json:"show_date"`
}

type activateReq struct {
	ShowTime string `json:"show_time"`
}

// validateMovieReq normalizes and checks create/update input. Price must
// parse as a positive decimal; show_date must be YYYY-MM-DD when given.
func validateMovieReq(req *movieReq) string {
	req.Title = strings.TrimSpace(req.Title)
	req.Genre = strings.TrimSpace(req.Genre)
	req.Price = strings.TrimSpace(req.Price)
	req.ShowDate = strings.TrimSpace(req.ShowDate)
	if req.Title == "" {
		return "title required"
	}
	if req.Genre == "" {
		return "genre required"
	}
	p, err := strconv.ParseFloat(req.Price, 64)
	if err != nil || p <= 0 {
		return "price must be a positive number"
	}
	req.Price = strconv.FormatFloat(p, 'f', 2, 64)
	if req.ShowDate != "" {
		if _, err := time.Parse("2006-01-02", req.ShowDate); err != nil {
			return "show_date must be YYYY-MM-DD"
		}
	}
	return ""
}

// List returns the full catalogue, active and inactive.
func (h *AdminMovieHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	movies, err := h.Movies.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]movieResp, 0, len(movies))
	for _, m := range movies {
		out = append(out, toMovieResp(m))
	}
	return c.JSON(http.StatusOK, echo.Map{"movies": out})
}

// Create adds a movie in inactive state. It becomes bookable only after
// activation assigns it a show slot.
func (h *AdminMovieHandler) Create(c echo.Context) error {
	var req movieReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := validateMovieReq(&req); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	showDate := req.ShowDate
	if showDate == "" {
		showDate = time.Now().UTC().Format("2006-01-02")
	}
	date, _ := time.Parse("2006-01-02", showDate)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	m := model.Movie{
		Title:    req.Title,
		Genre:    req.Genre,
		Price:    req.Price,
		ShowDate: date,
		Status:   model.StatusInactive,
	}
	if err := h.Movies.Create(ctx, &m); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, toMovieResp(m))
}

// Update edits title, genre, price and show date. Status and show time
// change only through activate/deactivate.
func (h *AdminMovieHandler) Update(c echo.Context) error {
	movieID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	var req movieReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := validateMovieReq(&req); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	m, err := h.Movies.GetByID(ctx, movieID)
	if err != nil {
		if err == repository.ErrMovieNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	m.Title = req.Title
	m.Genre = req.Genre
	m.Price = req.Price
	if req.ShowDate != "" {
		m.ShowDate, _ = time.Parse("2006-01-02", req.ShowDate)
	}
	if err := h.Movies.Update(ctx, &m); err != nil {
		if err == repository.ErrMovieNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, toMovieResp(m))
}

// Delete removes a movie. Bookings and holds follow via cascade.
func (h *AdminMovieHandler) Delete(c echo.Context) error {
	movieID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Movies.Delete(ctx, movieID); err != nil {
		if err == repository.ErrMovieNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// activateError maps failures inside the activation transaction. A
// deadlock or lock wait timeout means another admin won a concurrent
// activation; that is a retryable conflict, not a server fault.
func activateError(c echo.Context, err error) error {
	if repository.IsLockConflict(err) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "concurrent activation, try again"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "activate failed"})
}

// Activate puts a movie on today's schedule in the given show slot. At
// most three movies may be active per date and each slot is exclusive.
// Any current-day seats left from a previous run are cleared in the
// same transaction so the movie starts with a clean grid.
func (h *AdminMovieHandler) Activate(c echo.Context) error {
	movieID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	var req activateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	showTime := strings.TrimSpace(req.ShowTime)
	if len(showTime) == 5 { // accept HH:MM
		showTime += ":00"
	}
	if !model.ValidShowTime(showTime) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":      "invalid show time",
			"show_times": model.ShowTimes,
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if _, err := h.Movies.GetByID(ctx, movieID); err != nil {
		if err == repository.ErrMovieNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	// Serializable so the COUNT checks below take shared locks: two
	// concurrent activations cannot both read the old active set and
	// both commit, which would break the 3-per-date cap and the slot
	// exclusivity. The loser fails with a lock error and gets a 409.
	tx, err := h.Movies.DB().BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	today := time.Now().UTC().Format("2006-01-02")
	active, err := h.Movies.CountActiveForDateTx(ctx, tx, today, movieID)
	if err != nil {
		return activateError(c, err)
	}
	if active >= model.MaxActivePerDate {
		return c.JSON(http.StatusConflict, echo.Map{"error": repository.ErrActiveLimitReached.Error()})
	}
	taken, err := h.Movies.TimeSlotTakenTx(ctx, tx, showTime, movieID)
	if err != nil {
		return activateError(c, err)
	}
	if taken {
		return c.JSON(http.StatusConflict, echo.Map{"error": repository.ErrTimeSlotTaken.Error()})
	}
	if err := h.Movies.ActivateTx(ctx, tx, movieID, showTime); err != nil {
		if err == repository.ErrMovieNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return activateError(c, err)
	}
	cleared, err := h.Seats.ClearForMovieTx(ctx, tx, movieID)
	if err != nil {
		return activateError(c, err)
	}
	if err := tx.Commit(); err != nil {
		return activateError(c, err)
	}
	committed = true

	return c.JSON(http.StatusOK, echo.Map{
		"movie_id":      movieID,
		"status":        model.StatusActive,
		"show_date":     today,
		"show_time":     showTime,
		"seats_cleared": cleared,
	})
}

// Deactivate takes a movie off the schedule and clears its current-day
// seats so a later activation starts fresh.
func (h *AdminMovieHandler) Deactivate(c echo.Context) error {
	movieID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	tx, err := h.Movies.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := h.Movies.DeactivateTx(ctx, tx, movieID); err != nil {
		if err == repository.ErrMovieNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deactivate failed"})
	}
	cleared, err := h.Seats.ClearForMovieTx(ctx, tx, movieID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deactivate failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	return c.JSON(http.StatusOK, echo.Map{
		"movie_id":      movieID,
		"status":        model.StatusInactive,
		"seats_cleared": cleared,
	})
}
