package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/novamovie/ticket-booking/internal/config"
	"github.com/novamovie/ticket-booking/internal/repository"
)

func newBookingTest(t *testing.T) (*BookingHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	cfg := config.Config{HoldTTLMin: 5}
	return NewBookingHandler(cfg,
		repository.NewMovieRepo(db),
		repository.NewSeatRepo(db),
		repository.NewSeatHoldRepo(db)), mock
}

func bookingContext(body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	c.Set("user_id", float64(7))
	c.Set("role", "customer")
	return c, rec
}

func activeMovieRow() *sqlmock.Rows {
	showTime := "10:00:00"
	return sqlmock.NewRows([]string{"movie_id", "title", "genre", "price", "show_date", "show_time", "status", "created_at"}).
		AddRow(1, "Feature", "Drama", "12.00", time.Now().UTC(), showTime, "active", time.Now().UTC())
}

func TestBookSeatsInvalidSeatCode(t *testing.T) {
	h, mock := newBookingTest(t)
	c, rec := bookingContext(`{"seats":["A9"]}`)

	if err := h.BookSeats(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestBookSeatsMovieNotFound(t *testing.T) {
	h, mock := newBookingTest(t)
	mock.ExpectQuery("SELECT movie_id, title, genre, price").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"movie_id"}))

	c, rec := bookingContext(`{"seats":["A1"]}`)
	if err := h.BookSeats(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestBookSeatsConflictListsSeats(t *testing.T) {
	h, mock := newBookingTest(t)

	mock.ExpectQuery("SELECT movie_id, title, genre, price").
		WithArgs(uint64(1)).
		WillReturnRows(activeMovieRow())
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT seat_number FROM nm_seat_holds WHERE movie_id=? AND expires_at <= UTC_TIMESTAMP()")).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"seat_number"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT seat_number FROM nm_seat_holds WHERE movie_id=? AND user_id<>? AND expires_at > UTC_TIMESTAMP()")).
		WithArgs(uint64(1), uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"seat_number"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT seat_number FROM nm_seats WHERE movie_id=? AND booking_date=CURDATE()")).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"seat_number"}).AddRow("A2").AddRow("A3"))
	mock.ExpectRollback()

	c, rec := bookingContext(`{"seats":["A3","A2","B1"]}`)
	if err := h.BookSeats(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	var body struct {
		Error     string   `json:"error"`
		Conflicts []string `json:"conflicts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if len(body.Conflicts) != 2 || body.Conflicts[0] != "A2" || body.Conflicts[1] != "A3" {
		t.Errorf("conflicts = %v, want [A2 A3]", body.Conflicts)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestBookSeatsSuccess(t *testing.T) {
	h, mock := newBookingTest(t)

	mock.ExpectQuery("SELECT movie_id, title, genre, price").
		WithArgs(uint64(1)).
		WillReturnRows(activeMovieRow())
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT seat_number FROM nm_seat_holds WHERE movie_id=? AND expires_at <= UTC_TIMESTAMP()")).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"seat_number"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT seat_number FROM nm_seat_holds WHERE movie_id=? AND user_id<>? AND expires_at > UTC_TIMESTAMP()")).
		WithArgs(uint64(1), uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"seat_number"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT seat_number FROM nm_seats WHERE movie_id=? AND booking_date=CURDATE()")).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"seat_number"}))
	mock.ExpectExec("INSERT INTO nm_seats").
		WithArgs(uint64(1), uint64(7), "B1", uint64(1), uint64(7), "B2").
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT seat_number FROM nm_seat_holds WHERE user_id=? AND movie_id=?")).
		WithArgs(uint64(7), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"seat_number"}))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM nm_seat_holds WHERE user_id=? AND movie_id=?")).
		WithArgs(uint64(7), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	c, rec := bookingContext(`{"seats":["B2","b1"]}`)
	if err := h.BookSeats(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body=%s", rec.Code, rec.Body.String())
	}
	var body struct {
		Seats       []string `json:"seats"`
		TotalAmount string   `json:"total_amount"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if len(body.Seats) != 2 || body.Seats[0] != "B1" || body.Seats[1] != "B2" {
		t.Errorf("seats = %v, want [B1 B2]", body.Seats)
	}
	if body.TotalAmount != "24.00" {
		t.Errorf("total_amount = %q, want 24.00", body.TotalAmount)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestConfirmSeatsWithoutHolds(t *testing.T) {
	h, mock := newBookingTest(t)

	mock.ExpectQuery("SELECT movie_id, title, genre, price").
		WithArgs(uint64(1)).
		WillReturnRows(activeMovieRow())
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT seat_number FROM nm_seat_holds WHERE movie_id=? AND expires_at <= UTC_TIMESTAMP()")).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"seat_number"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT seat_number FROM nm_seat_holds WHERE user_id=? AND movie_id=? AND expires_at > UTC_TIMESTAMP() ORDER BY seat_number")).
		WithArgs(uint64(7), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"seat_number"}))
	mock.ExpectRollback()

	c, rec := bookingContext("")
	if err := h.ConfirmSeats(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
