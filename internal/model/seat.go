package model

import "time"

// SeatBooking mirrors a row of the `nm_seats` table.  One row exists per
// booked seat per movie per booking date; the unique key
// (movie_id, seat_number, booking_date) is what ultimately prevents
// double-booking under concurrent writers.
type SeatBooking struct {
	ID          uint64    // nm_seats.seat_id
	MovieID     uint64    // nm_seats.movie_id
	UserID      uint64    // nm_seats.user_id
	SeatNumber  string    // nm_seats.seat_number (seat code, e.g. "C4")
	BookingDate time.Time // nm_seats.booking_date
}

// SeatHold represents a temporary hold on a seat while a customer is
// mid-selection.  Holds expire automatically at ExpiresAt; a hold keyed by
// (movie_id, seat_number) blocks other customers from holding or booking
// the same seat until then.
type SeatHold struct {
	ID         uint64    // nm_seat_holds.hold_id
	MovieID    uint64    // nm_seat_holds.movie_id
	UserID     uint64    // nm_seat_holds.user_id
	SeatNumber string    // nm_seat_holds.seat_number
	HoldToken  string    // nm_seat_holds.hold_token
	ExpiresAt  time.Time // nm_seat_holds.expires_at
	CreatedAt  time.Time // nm_seat_holds.created_at
}
