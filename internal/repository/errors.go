// Package repository defines the data access layer along with sentinel
// error values reused across repositories. The sentinels let handlers
// distinguish business-rule violations (activation limit, taken time
// slot, seat conflicts) from plain storage failures and translate each
// into the right HTTP status.
package repository

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMovieNotFound is returned when a movie id does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrMovieNotFound = errors.New("movie not found")

// ErrUsernameExists is returned when registration collides with an
// existing username. Handlers should translate this into HTTP 409.
var ErrUsernameExists = errors.New("username already exists")

// ErrActiveLimitReached is returned when activating a movie would exceed
// the per-date cap on simultaneously active movies.
var ErrActiveLimitReached = errors.New("active movie limit reached for this date")

// ErrTimeSlotTaken is returned when another active movie already holds
// the requested show slot on the same date.
var ErrTimeSlotTaken = errors.New("time slot already taken")

// SeatConflictError reports a booking or hold attempt that lost to
// earlier writers. Seats lists the seat codes that were already booked
// or held at transaction time; no partial booking is committed.
type SeatConflictError struct {
	Seats []string
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("seats already booked: %s", strings.Join(e.Seats, ", "))
}

// isDuplicateKey reports whether err is a MySQL duplicate-entry error
// (errno 1062). The unique keys on nm_seats and nm_seat_holds are the
// last line of defense against concurrent writers, so repositories
// translate 1062 into the matching sentinel instead of surfacing a raw
// driver error.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}

// IsLockConflict reports whether err is a MySQL deadlock (errno 1213) or
// lock wait timeout (errno 1205). Under a serializable transaction the
// losing side of two concurrent activations fails with one of these;
// handlers translate it into 409 rather than 500 since the request can
// simply be retried.
func IsLockConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "1213") || strings.Contains(msg, "1205")
}
