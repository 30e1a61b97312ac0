package repository

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"time"

	"github.com/novamovie/ticket-booking/internal/model"
)

// SeatRepo owns seat bookings: the authoritative record of which seats
// are taken for a movie on the current date. Booking is a check-then-
// insert inside the caller's transaction, with the unique key on
// (movie_id, seat_number, booking_date) as the last line of defense
// against writers racing past the check. All queries scope to the
// current date; prior days are swept by PurgeStale.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo returns a new SeatRepo bound to the given database.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *SeatRepo) DB() *sql.DB { return r.db }

// OccupiedSeats returns the seat codes booked for the movie today.
// Read-only; no locking.
func (r *SeatRepo) OccupiedSeats(ctx context.Context, movieID uint64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT seat_number FROM nm_seats WHERE movie_id=? AND booking_date=CURDATE() ORDER BY seat_number",
		movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSeatNumbers(rows)
}

// occupiedSeatsTx re-reads today's bookings inside a transaction so the
// availability check and the insert observe the same state.
func (r *SeatRepo) occupiedSeatsTx(ctx context.Context, tx *sql.Tx, movieID uint64) (map[string]struct{}, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT seat_number FROM nm_seats WHERE movie_id=? AND booking_date=CURDATE()",
		movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	occupied := make(map[string]struct{})
	for rows.Next() {
		var seat string
		if err := rows.Scan(&seat); err != nil {
			return nil, err
		}
		occupied[seat] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return occupied, nil
}

// OccupiedSeatsTx exposes the in-transaction occupancy set for callers
// that combine it with hold state before deciding on conflicts.
func (r *SeatRepo) OccupiedSeatsTx(ctx context.Context, tx *sql.Tx, movieID uint64) (map[string]struct{}, error) {
	return r.occupiedSeatsTx(ctx, tx, movieID)
}

// BookSeatsTx books all requested seats for today as one unit, or none
// of them. Seats already booked, or present in blocked (holds owned by
// other users), fail the whole call with a SeatConflictError naming the
// conflicting seats. When a concurrent writer slips between the check
// and the insert, the unique key rejects the insert and the conflicts
// are recomputed from the transaction's view. The caller commits or
// rolls back.
func (r *SeatRepo) BookSeatsTx(ctx context.Context, tx *sql.Tx, movieID, userID uint64, seats []string, blocked map[string]struct{}) error {
	occupied, err := r.occupiedSeatsTx(ctx, tx, movieID)
	if err != nil {
		return err
	}
	conflicts := make([]string, 0)
	for _, seat := range seats {
		if _, taken := occupied[seat]; taken {
			conflicts = append(conflicts, seat)
			continue
		}
		if _, held := blocked[seat]; held {
			conflicts = append(conflicts, seat)
		}
	}
	if len(conflicts) > 0 {
		sort.Strings(conflicts)
		return &SeatConflictError{Seats: conflicts}
	}
	if err := insertBookingsTx(ctx, tx, movieID, userID, seats); err != nil {
		if isDuplicateKey(err) {
			// Lost the race after the check. MySQL leaves the transaction
			// usable after a duplicate-key error, so name the winners.
			occupied, qErr := r.occupiedSeatsTx(ctx, tx, movieID)
			if qErr != nil {
				return &SeatConflictError{Seats: seats}
			}
			conflicts := make([]string, 0)
			for _, seat := range seats {
				if _, taken := occupied[seat]; taken {
					conflicts = append(conflicts, seat)
				}
			}
			if len(conflicts) == 0 {
				conflicts = seats
			}
			sort.Strings(conflicts)
			return &SeatConflictError{Seats: conflicts}
		}
		return err
	}
	return nil
}

func insertBookingsTx(ctx context.Context, tx *sql.Tx, movieID, userID uint64, seats []string) error {
	query := "INSERT INTO nm_seats (movie_id, user_id, seat_number, booking_date) VALUES "
	args := make([]any, 0, len(seats)*3)
	for i, seat := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, CURDATE())"
		args = append(args, movieID, userID, seat)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// ClearAllToday deletes today's bookings for every movie and returns the
// number removed. An empty scope is success, not an error.
func (r *SeatRepo) ClearAllToday(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM nm_seats WHERE booking_date=CURDATE()")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ClearForMovie deletes today's bookings for one movie.
func (r *SeatRepo) ClearForMovie(ctx context.Context, movieID uint64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM nm_seats WHERE movie_id=? AND booking_date=CURDATE()", movieID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ClearForMovieTx is ClearForMovie inside an existing transaction, used
// when activation or deactivation wipes the slate in the same unit as
// the status change.
func (r *SeatRepo) ClearForMovieTx(ctx context.Context, tx *sql.Tx, movieID uint64) (int64, error) {
	res, err := tx.ExecContext(ctx,
		"DELETE FROM nm_seats WHERE movie_id=? AND booking_date=CURDATE()", movieID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ClearSingle deletes today's booking for one seat of one movie.
func (r *SeatRepo) ClearSingle(ctx context.Context, movieID uint64, seat string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM nm_seats WHERE movie_id=? AND seat_number=? AND booking_date=CURDATE()",
		movieID, seat)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PurgeStale deletes bookings whose booking date is strictly before
// today. Current-day rows are never touched.
func (r *SeatRepo) PurgeStale(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM nm_seats WHERE booking_date < CURDATE()")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MovieSeatStatus aggregates today's occupancy of one active movie for
// the administration roster.
type MovieSeatStatus struct {
	MovieID     uint64   `json:"movie_id"`
	Title       string   `json:"title"`
	ShowTime    *string  `json:"show_time"`
	BookedSeats []string `json:"booked_seats"`
}

// SeatStatus returns the booked-seat roster for every active movie, or
// for one movie when movieID is non-zero.
func (r *SeatRepo) SeatStatus(ctx context.Context, movieID uint64) ([]MovieSeatStatus, error) {
	const base = `SELECT m.movie_id, m.title, m.show_time,
	                     GROUP_CONCAT(s.seat_number ORDER BY s.seat_number) AS booked_seats
	              FROM nm_movies m
	              LEFT JOIN nm_seats s ON m.movie_id = s.movie_id AND s.booking_date = CURDATE()
	              WHERE m.status = 'active'`
	var rows *sql.Rows
	var err error
	if movieID != 0 {
		rows, err = r.db.QueryContext(ctx, base+" AND m.movie_id = ? GROUP BY m.movie_id", movieID)
	} else {
		rows, err = r.db.QueryContext(ctx, base+" GROUP BY m.movie_id")
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	statuses := make([]MovieSeatStatus, 0)
	for rows.Next() {
		var st MovieSeatStatus
		var showTime, booked sql.NullString
		if err := rows.Scan(&st.MovieID, &st.Title, &showTime, &booked); err != nil {
			return nil, err
		}
		if showTime.Valid {
			t := showTime.String
			st.ShowTime = &t
		}
		st.BookedSeats = []string{}
		if booked.Valid && booked.String != "" {
			st.BookedSeats = strings.Split(booked.String, ",")
		}
		statuses = append(statuses, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return statuses, nil
}

// BookingDetail describes who booked a seat, for the admin seat view.
type BookingDetail struct {
	Booking  model.SeatBooking `json:"booking"`
	UserName string            `json:"user_name"`
	Phone    string            `json:"phone_number"`
}

// GetBookingDetail returns today's booking for one seat together with
// the booking customer. sql.ErrNoRows means the seat is free.
func (r *SeatRepo) GetBookingDetail(ctx context.Context, movieID uint64, seat string) (BookingDetail, error) {
	const q = `SELECT s.seat_id, s.movie_id, s.user_id, s.seat_number, s.booking_date, u.name, u.phone_number
	           FROM nm_seats s
	           JOIN nm_users u ON u.user_id = s.user_id
	           WHERE s.movie_id = ? AND s.seat_number = ? AND s.booking_date = CURDATE()`
	var d BookingDetail
	var bookingDate time.Time
	err := r.db.QueryRowContext(ctx, q, movieID, seat).Scan(
		&d.Booking.ID, &d.Booking.MovieID, &d.Booking.UserID, &d.Booking.SeatNumber,
		&bookingDate, &d.UserName, &d.Phone)
	if err != nil {
		return BookingDetail{}, err
	}
	d.Booking.BookingDate = bookingDate
	return d, nil
}

func collectSeatNumbers(rows *sql.Rows) ([]string, error) {
	seats := make([]string, 0)
	for rows.Next() {
		var seat string
		if err := rows.Scan(&seat); err != nil {
			return nil, err
		}
		seats = append(seats, seat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seats, nil
}
