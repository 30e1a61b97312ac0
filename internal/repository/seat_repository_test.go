package repository

import (
	"context"
	"errors"
	"reflect"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

const occupiedTxQuery = "SELECT seat_number FROM nm_seats WHERE movie_id=? AND booking_date=CURDATE()"

func seatRows(seats ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"seat_number"})
	for _, s := range seats {
		rows.AddRow(s)
	}
	return rows
}

func TestBookSeatsTxSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewSeatRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(occupiedTxQuery)).
		WithArgs(uint64(1)).
		WillReturnRows(seatRows("A1"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO nm_seats (movie_id, user_id, seat_number, booking_date) VALUES (?, ?, ?, CURDATE()),(?, ?, ?, CURDATE())")).
		WithArgs(uint64(1), uint64(7), "B2", uint64(1), uint64(7), "B3").
		WillReturnResult(sqlmock.NewResult(10, 2))
	mock.ExpectCommit()

	tx, _ := db.Begin()
	if err := repo.BookSeatsTx(context.Background(), tx, 1, 7, []string{"B2", "B3"}, nil); err != nil {
		t.Fatalf("BookSeatsTx: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestBookSeatsTxConflictNamesSeats(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewSeatRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(occupiedTxQuery)).
		WithArgs(uint64(1)).
		WillReturnRows(seatRows("A2", "A3", "C1"))
	mock.ExpectRollback()

	tx, _ := db.Begin()
	err = repo.BookSeatsTx(context.Background(), tx, 1, 7, []string{"A3", "A2", "B1"}, nil)
	var sc *SeatConflictError
	if !errors.As(err, &sc) {
		t.Fatalf("expected SeatConflictError, got %v", err)
	}
	if want := []string{"A2", "A3"}; !reflect.DeepEqual(sc.Seats, want) {
		t.Errorf("conflicts = %v, want %v", sc.Seats, want)
	}
	_ = tx.Rollback()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestBookSeatsTxHeldSeatConflicts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewSeatRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(occupiedTxQuery)).
		WithArgs(uint64(1)).
		WillReturnRows(seatRows())
	mock.ExpectRollback()

	tx, _ := db.Begin()
	blocked := map[string]struct{}{"D4": {}}
	err = repo.BookSeatsTx(context.Background(), tx, 1, 7, []string{"D4", "D5"}, blocked)
	var sc *SeatConflictError
	if !errors.As(err, &sc) {
		t.Fatalf("expected SeatConflictError, got %v", err)
	}
	if want := []string{"D4"}; !reflect.DeepEqual(sc.Seats, want) {
		t.Errorf("conflicts = %v, want %v", sc.Seats, want)
	}
	_ = tx.Rollback()
}

func TestBookSeatsTxDuplicateKeyRace(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewSeatRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(occupiedTxQuery)).
		WithArgs(uint64(1)).
		WillReturnRows(seatRows())
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO nm_seats")).
		WithArgs(uint64(1), uint64(7), "E1").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry '1-E1-2026-08-29' for key 'unique_seat'"))
	// Conflicts are recomputed from the transaction's view after the race.
	mock.ExpectQuery(regexp.QuoteMeta(occupiedTxQuery)).
		WithArgs(uint64(1)).
		WillReturnRows(seatRows("E1"))
	mock.ExpectRollback()

	tx, _ := db.Begin()
	err = repo.BookSeatsTx(context.Background(), tx, 1, 7, []string{"E1"}, nil)
	var sc *SeatConflictError
	if !errors.As(err, &sc) {
		t.Fatalf("expected SeatConflictError, got %v", err)
	}
	if want := []string{"E1"}; !reflect.DeepEqual(sc.Seats, want) {
		t.Errorf("conflicts = %v, want %v", sc.Seats, want)
	}
	_ = tx.Rollback()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestClearScopesReturnCounts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewSeatRepo(db)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM nm_seats WHERE booking_date=CURDATE()")).
		WillReturnResult(sqlmock.NewResult(0, 12))
	if n, err := repo.ClearAllToday(ctx); err != nil || n != 12 {
		t.Errorf("ClearAllToday = (%d, %v), want (12, nil)", n, err)
	}

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM nm_seats WHERE movie_id=? AND booking_date=CURDATE()")).
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 4))
	if n, err := repo.ClearForMovie(ctx, 3); err != nil || n != 4 {
		t.Errorf("ClearForMovie = (%d, %v), want (4, nil)", n, err)
	}

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM nm_seats WHERE movie_id=? AND seat_number=? AND booking_date=CURDATE()")).
		WithArgs(uint64(3), "A1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	if n, err := repo.ClearSingle(ctx, 3, "A1"); err != nil || n != 0 {
		t.Errorf("ClearSingle on free seat = (%d, %v), want (0, nil)", n, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPurgeStale(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewSeatRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM nm_seats WHERE booking_date < CURDATE()")).
		WillReturnResult(sqlmock.NewResult(0, 30))
	n, err := repo.PurgeStale(context.Background())
	if err != nil || n != 30 {
		t.Errorf("PurgeStale = (%d, %v), want (30, nil)", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSeatStatusParsesGroupConcat(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewSeatRepo(db)

	rows := sqlmock.NewRows([]string{"movie_id", "title", "show_time", "booked_seats"}).
		AddRow(1, "First", "10:00:00", "A1,A2,B5").
		AddRow(2, "Second", "13:00:00", nil)
	mock.ExpectQuery("SELECT m.movie_id, m.title, m.show_time").WillReturnRows(rows)

	statuses, err := repo.SeatStatus(context.Background(), 0)
	if err != nil {
		t.Fatalf("SeatStatus: %v", err)
	}
	if len(statuses) != 2 {
		t.Fatalf("got %d statuses, want 2", len(statuses))
	}
	if want := []string{"A1", "A2", "B5"}; !reflect.DeepEqual(statuses[0].BookedSeats, want) {
		t.Errorf("booked seats = %v, want %v", statuses[0].BookedSeats, want)
	}
	if len(statuses[1].BookedSeats) != 0 {
		t.Errorf("movie without bookings should report an empty list, got %v", statuses[1].BookedSeats)
	}
}
