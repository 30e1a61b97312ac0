package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/novamovie/ticket-booking/internal/model"
	"github.com/novamovie/ticket-booking/internal/repository"
)

// BrowseHandler serves the public, unauthenticated read endpoints:
// today's active movies and per-movie seat maps.
type BrowseHandler struct {
	Movies *repository.MovieRepo
	Seats  *repository.SeatRepo
}

func NewBrowseHandler(m *repository.MovieRepo, s *repository.SeatRepo) *BrowseHandler {
	return &BrowseHandler{Movies: m, Seats: s}
}

type movieResp struct {
	ID       uint64  `json:"id"`
	Title    string  `json:"title"`
	Genre    string  `json:"genre"`
	Price    string  `json:"price"`
	ShowDate string  `json:"show_date"`
	ShowTime *string `json:"show_time"`
	Status   string  `json:"status"`
}

func toMovieResp(m model.Movie) movieResp {
	return movieResp{
		ID:       m.ID,
		Title:    m.Title,
		Genre:    m.Genre,
		Price:    m.Price,
		ShowDate: m.ShowDate.Format("2006-01-02"),
		ShowTime: m.ShowTime,
		Status:   m.Status,
	}
}

// ActiveMovies lists movies that are active and showing today, ordered
// by show time.
func (h *BrowseHandler) ActiveMovies(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	movies, err := h.Movies.ListActiveToday(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]movieResp, 0, len(movies))
	for _, m := range movies {
		out = append(out, toMovieResp(m))
	}
	return c.JSON(http.StatusOK, echo.Map{"movies": out})
}

// SeatMap returns today's occupancy for one movie: the booked seat codes
// plus the fixed grid dimensions so clients can render the layout.
func (h *BrowseHandler) SeatMap(c echo.Context) error {
	movieID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	movie, err := h.Movies.GetByID(ctx, movieID)
	if err != nil {
		if err == repository.ErrMovieNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	occupied, err := h.Seats.OccupiedSeats(ctx, movieID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"movie":       toMovieResp(movie),
		"rows":        model.SeatRows,
		"cols":        model.SeatCols,
		"total_seats": model.TotalSeats,
		"occupied":    occupied,
		"available":   model.TotalSeats - len(occupied),
	})
}
