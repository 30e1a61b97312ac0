package repository

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"sort"
	"time"

	"github.com/novamovie/ticket-booking/internal/model"
)

// SeatHoldRepo provides data access to the nm_seat_holds table. A hold
// reserves a seat for one customer while they finish selecting; it
// expires automatically and is keyed uniquely by (movie_id, seat_number)
// so two customers can never hold the same seat at once. Timestamps are
// UTC throughout.
type SeatHoldRepo struct {
	db *sql.DB
}

// NewSeatHoldRepo returns a new SeatHoldRepo bound to the provided database.
func NewSeatHoldRepo(db *sql.DB) *SeatHoldRepo { return &SeatHoldRepo{db: db} }

// ExpireHoldsTx removes the movie's holds that have passed their
// expiration and returns the freed seat codes. Runs inside the caller's
// transaction so subsequent availability checks see the cleaned state.
func (r *SeatHoldRepo) ExpireHoldsTx(ctx context.Context, tx *sql.Tx, movieID uint64) ([]string, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT seat_number FROM nm_seat_holds WHERE movie_id=? AND expires_at <= UTC_TIMESTAMP()",
		movieID)
	if err != nil {
		return nil, err
	}
	expired, err := collectSeatNumbers(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	if len(expired) == 0 {
		return []string{}, nil
	}
	_, err = tx.ExecContext(ctx,
		"DELETE FROM nm_seat_holds WHERE movie_id=? AND expires_at <= UTC_TIMESTAMP()",
		movieID)
	if err != nil {
		return nil, err
	}
	return expired, nil
}

// HeldByOthersTx returns the seats of this movie currently held by users
// other than userID, as a set. Booking and holding treat these seats as
// occupied.
func (r *SeatHoldRepo) HeldByOthersTx(ctx context.Context, tx *sql.Tx, movieID, userID uint64) (map[string]struct{}, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT seat_number FROM nm_seat_holds WHERE movie_id=? AND user_id<>? AND expires_at > UTC_TIMESTAMP()",
		movieID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	held := make(map[string]struct{})
	for rows.Next() {
		var seat string
		if err := rows.Scan(&seat); err != nil {
			return nil, err
		}
		held[seat] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return held, nil
}

// CreateMultipleTx inserts holds in one statement. The unique key on
// (movie_id, seat_number) turns a racing hold into a SeatConflictError
// naming every requested seat still worth retrying.
func (r *SeatHoldRepo) CreateMultipleTx(ctx context.Context, tx *sql.Tx, holds []model.SeatHold) error {
	if len(holds) == 0 {
		return nil
	}
	query := "INSERT INTO nm_seat_holds (movie_id, user_id, seat_number, hold_token, expires_at) VALUES "
	args := make([]any, 0, len(holds)*5)
	seats := make([]string, 0, len(holds))
	for i, h := range holds {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?)"
		args = append(args, h.MovieID, h.UserID, h.SeatNumber, h.HoldToken, h.ExpiresAt.UTC().Format("2006-01-02 15:04:05"))
		seats = append(seats, h.SeatNumber)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isDuplicateKey(err) {
			sort.Strings(seats)
			return &SeatConflictError{Seats: seats}
		}
		return err
	}
	return nil
}

// DeleteByUserAndMovieTx removes all of one user's holds on a movie and
// returns the released seat codes.
func (r *SeatHoldRepo) DeleteByUserAndMovieTx(ctx context.Context, tx *sql.Tx, userID, movieID uint64) ([]string, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT seat_number FROM nm_seat_holds WHERE user_id=? AND movie_id=?", userID, movieID)
	if err != nil {
		return nil, err
	}
	seats, err := collectSeatNumbers(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM nm_seat_holds WHERE user_id=? AND movie_id=?", userID, movieID); err != nil {
		return nil, err
	}
	return seats, nil
}

// ActiveSeatsByUserAndMovieTx returns the seats the user currently holds
// on the movie, skipping expired holds. Used when confirming a hold into
// a booking.
func (r *SeatHoldRepo) ActiveSeatsByUserAndMovieTx(ctx context.Context, tx *sql.Tx, userID, movieID uint64) ([]string, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT seat_number FROM nm_seat_holds WHERE user_id=? AND movie_id=? AND expires_at > UTC_TIMESTAMP() ORDER BY seat_number",
		userID, movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSeatNumbers(rows)
}

// PurgeExpired deletes every expired hold regardless of movie. Part of
// the daily housekeeping sweep.
func (r *SeatHoldRepo) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM nm_seat_holds WHERE expires_at <= UTC_TIMESTAMP()")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// randomToken returns n bytes of cryptographically secure randomness as
// a hex string, used for hold tokens.
func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateHoldRecords builds hold records for the given user, movie and
// seat codes with a fresh random token per seat.
func GenerateHoldRecords(userID, movieID uint64, seats []string, expiresAt time.Time) ([]model.SeatHold, error) {
	holds := make([]model.SeatHold, 0, len(seats))
	for _, seat := range seats {
		token, err := randomToken(32)
		if err != nil {
			return nil, err
		}
		holds = append(holds, model.SeatHold{
			MovieID:    movieID,
			UserID:     userID,
			SeatNumber: seat,
			HoldToken:  token,
			ExpiresAt:  expiresAt,
		})
	}
	return holds, nil
}
