package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func movieRow(id uint64, title string, showTime any, status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"movie_id", "title", "genre", "price", "show_date", "show_time", "status", "created_at"}).
		AddRow(id, title, "Drama", "12.50", time.Now().UTC(), showTime, status, time.Now().UTC())
}

func TestGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewMovieRepo(db)

	mock.ExpectQuery("SELECT movie_id, title, genre, price, show_date, show_time, status, created_at FROM nm_movies WHERE movie_id=").
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"movie_id"}))

	if _, err := repo.GetByID(context.Background(), 99); err != ErrMovieNotFound {
		t.Errorf("GetByID on missing row = %v, want ErrMovieNotFound", err)
	}
}

func TestGetByIDNullShowTime(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewMovieRepo(db)

	mock.ExpectQuery("SELECT movie_id, title, genre, price").
		WithArgs(uint64(5)).
		WillReturnRows(movieRow(5, "Unscheduled", nil, "inactive"))

	m, err := repo.GetByID(context.Background(), 5)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if m.ShowTime != nil {
		t.Errorf("inactive movie should have nil show time, got %v", *m.ShowTime)
	}
}

func TestCountActiveForDateExcludesSelf(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewMovieRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM nm_movies WHERE status='active' AND show_date=? AND movie_id<>?")).
		WithArgs("2026-08-29", uint64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	n, err := repo.CountActiveForDate(context.Background(), "2026-08-29", 4)
	if err != nil || n != 2 {
		t.Errorf("CountActiveForDate = (%d, %v), want (2, nil)", n, err)
	}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM nm_movies WHERE status='active' AND show_date=?")).
		WithArgs("2026-08-29").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err = repo.CountActiveForDate(context.Background(), "2026-08-29", 0)
	if err != nil || n != 3 {
		t.Errorf("CountActiveForDate without exclusion = (%d, %v), want (3, nil)", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestTimeSlotTakenTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewMovieRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM nm_movies WHERE show_time=? AND status='active' AND show_date=CURDATE() AND movie_id<>?")).
		WithArgs("13:00:00", uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	tx, _ := db.Begin()
	taken, err := repo.TimeSlotTakenTx(context.Background(), tx, "13:00:00", 2)
	if err != nil {
		t.Fatalf("TimeSlotTakenTx: %v", err)
	}
	if !taken {
		t.Error("slot with another active movie should be taken")
	}
	_ = tx.Rollback()
}

func TestActivateTxMissingMovie(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewMovieRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE nm_movies SET status='active', show_time=?, show_date=CURDATE() WHERE movie_id=?")).
		WithArgs("10:00:00", uint64(77)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT movie_id FROM nm_movies WHERE movie_id=? LIMIT 1")).
		WithArgs(uint64(77)).
		WillReturnRows(sqlmock.NewRows([]string{"movie_id"}))
	mock.ExpectRollback()

	tx, _ := db.Begin()
	if err := repo.ActivateTx(context.Background(), tx, 77, "10:00:00"); err != ErrMovieNotFound {
		t.Errorf("ActivateTx on missing movie = %v, want ErrMovieNotFound", err)
	}
	_ = tx.Rollback()
}

func TestActivateTxIdempotentUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewMovieRepo(db)

	// RowsAffected is zero when the row already carries the same values;
	// an existence probe separates that from a missing movie.
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE nm_movies SET status='active'").
		WithArgs("10:00:00", uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT movie_id FROM nm_movies WHERE movie_id=? LIMIT 1")).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"movie_id"}).AddRow(5))
	mock.ExpectCommit()

	tx, _ := db.Begin()
	if err := repo.ActivateTx(context.Background(), tx, 5, "10:00:00"); err != nil {
		t.Errorf("re-activating with same values should succeed, got %v", err)
	}
	_ = tx.Commit()
}
