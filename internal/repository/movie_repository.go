package repository

import (
	"context"
	"database/sql"

	"github.com/novamovie/ticket-booking/internal/model"
)

// MovieRepo provides CRUD operations for the movie catalog and the
// status/show-time transitions gated by the admission rules. Activation
// and deactivation writes are exposed as *Tx variants so handlers can
// combine them with seat clearing in one transaction.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo returns a new MovieRepo bound to the given database.
func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *MovieRepo) DB() *sql.DB { return r.db }

const movieColumns = "movie_id, title, genre, price, show_date, show_time, status, created_at"

func scanMovie(row interface{ Scan(...any) error }) (model.Movie, error) {
	var m model.Movie
	var showTime sql.NullString
	err := row.Scan(&m.ID, &m.Title, &m.Genre, &m.Price, &m.ShowDate, &showTime, &m.Status, &m.CreatedAt)
	if err != nil {
		return model.Movie{}, err
	}
	if showTime.Valid {
		t := showTime.String
		m.ShowTime = &t
	}
	return m, nil
}

// Create inserts a movie and populates the generated ID. The show time
// stays NULL until the movie is activated into a slot.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO nm_movies (title, genre, price, show_date, status) VALUES (?,?,?,?,?)",
		m.Title, m.Genre, m.Price, m.ShowDate.Format("2006-01-02"), m.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// Update rewrites the editable fields of a movie. The show time is left
// untouched; only activation assigns it. Returns ErrMovieNotFound when
// the id does not exist.
func (r *MovieRepo) Update(ctx context.Context, m *model.Movie) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE nm_movies SET title=?, genre=?, price=?, show_date=?, status=? WHERE movie_id=?",
		m.Title, m.Genre, m.Price, m.ShowDate.Format("2006-01-02"), m.Status, m.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish a missing row from a no-op update.
		var exists uint64
		err := r.db.QueryRowContext(ctx, "SELECT movie_id FROM nm_movies WHERE movie_id=? LIMIT 1", m.ID).Scan(&exists)
		if err == sql.ErrNoRows {
			return ErrMovieNotFound
		}
		return err
	}
	return nil
}

// Delete removes a movie. Seat bookings cascade via the foreign key.
func (r *MovieRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM nm_movies WHERE movie_id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrMovieNotFound
	}
	return nil
}

// GetByID returns one movie or ErrMovieNotFound.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (model.Movie, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+movieColumns+" FROM nm_movies WHERE movie_id=? LIMIT 1", id)
	m, err := scanMovie(row)
	if err == sql.ErrNoRows {
		return model.Movie{}, ErrMovieNotFound
	}
	return m, err
}

// ListAll returns the full catalog ordered by show date then show time,
// for the administration view.
func (r *MovieRepo) ListAll(ctx context.Context) ([]model.Movie, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+movieColumns+" FROM nm_movies ORDER BY show_date, show_time")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMovies(rows)
}

// ListActiveToday returns movies open for booking today, ordered by show
// time ascending. This is the browse listing; it requires no locking.
func (r *MovieRepo) ListActiveToday(ctx context.Context) ([]model.Movie, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+movieColumns+" FROM nm_movies WHERE status='active' AND show_date=CURDATE() ORDER BY show_time")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMovies(rows)
}

func collectMovies(rows *sql.Rows) ([]model.Movie, error) {
	movies := make([]model.Movie, 0)
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		movies = append(movies, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return movies, nil
}

// CountActiveForDate returns how many movies are active for the given
// date, excluding excludeID when non-zero. Editing an already-active
// movie must not count the movie against its own limit.
func (r *MovieRepo) CountActiveForDate(ctx context.Context, date string, excludeID uint64) (int, error) {
	return countActiveForDate(ctx, r.db, date, excludeID)
}

// CountActiveForDateTx is CountActiveForDate inside an existing
// transaction, used on the activation path.
func (r *MovieRepo) CountActiveForDateTx(ctx context.Context, tx *sql.Tx, date string, excludeID uint64) (int, error) {
	return countActiveForDate(ctx, tx, date, excludeID)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func countActiveForDate(ctx context.Context, q querier, date string, excludeID uint64) (int, error) {
	var count int
	var err error
	if excludeID != 0 {
		err = q.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM nm_movies WHERE status='active' AND show_date=? AND movie_id<>?",
			date, excludeID).Scan(&count)
	} else {
		err = q.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM nm_movies WHERE status='active' AND show_date=?",
			date).Scan(&count)
	}
	return count, err
}

// TimeSlotTakenTx reports whether another active movie already holds the
// given show time today. Callers run this inside a serializable
// activation transaction, so the read locks the rows it scans and a
// concurrent activation of the same slot cannot slip past the check.
func (r *MovieRepo) TimeSlotTakenTx(ctx context.Context, tx *sql.Tx, showTime string, excludeID uint64) (bool, error) {
	var count int
	err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM nm_movies WHERE show_time=? AND status='active' AND show_date=CURDATE() AND movie_id<>?",
		showTime, excludeID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ActivateTx marks the movie active for today in the given slot. Status,
// show date and show time change as one statement; the caller clears
// stale bookings in the same transaction.
func (r *MovieRepo) ActivateTx(ctx context.Context, tx *sql.Tx, id uint64, showTime string) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE nm_movies SET status='active', show_time=?, show_date=CURDATE() WHERE movie_id=?",
		showTime, id)
	if err != nil {
		return err
	}
	return requireMovieRow(ctx, tx, res, id)
}

// DeactivateTx marks the movie inactive. Deactivating an already
// inactive movie is a no-op, not an error.
func (r *MovieRepo) DeactivateTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE nm_movies SET status='inactive', show_date=CURDATE() WHERE movie_id=?", id)
	if err != nil {
		return err
	}
	return requireMovieRow(ctx, tx, res, id)
}

func requireMovieRow(ctx context.Context, tx *sql.Tx, res sql.Result, id uint64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists uint64
		err := tx.QueryRowContext(ctx, "SELECT movie_id FROM nm_movies WHERE movie_id=? LIMIT 1", id).Scan(&exists)
		if err == sql.ErrNoRows {
			return ErrMovieNotFound
		}
		return err
	}
	return nil
}

// RefreshActiveDates stamps all active movies with the current date.
// Run at process start so showings activated on a previous day carry
// over to today's booking window.
func (r *MovieRepo) RefreshActiveDates(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE nm_movies SET show_date=CURDATE() WHERE status='active'")
	return err
}
