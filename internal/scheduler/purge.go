// Package scheduler runs periodic housekeeping against the database.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/novamovie/ticket-booking/internal/repository"
)

// StaleBookingSweeper deletes bookings from past dates and expired seat
// holds on a fixed interval. Bookings never outlive their date by more
// than one interval, so the current-day occupancy queries stay small.
type StaleBookingSweeper struct {
	seats    *repository.SeatRepo
	holds    *repository.SeatHoldRepo
	interval time.Duration
	stopChan chan struct{}
}

// NewStaleBookingSweeper builds a sweeper. A non-positive interval
// defaults to one hour.
func NewStaleBookingSweeper(seats *repository.SeatRepo, holds *repository.SeatHoldRepo, interval time.Duration) *StaleBookingSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &StaleBookingSweeper{
		seats:    seats,
		holds:    holds,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start sweeps once immediately, then on every tick until Stop is
// called.
func (s *StaleBookingSweeper) Start() {
	s.sweep()
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stopChan:
				return
			}
		}
	}()
}

// Stop halts the ticker goroutine.
func (s *StaleBookingSweeper) Stop() {
	close(s.stopChan)
}

func (s *StaleBookingSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	purged, err := s.seats.PurgeStale(ctx)
	if err != nil {
		log.Printf("sweeper: purge stale bookings failed: %v", err)
	} else if purged > 0 {
		log.Printf("sweeper: purged %d stale bookings", purged)
	}

	expired, err := s.holds.PurgeExpired(ctx)
	if err != nil {
		log.Printf("sweeper: purge expired holds failed: %v", err)
	} else if expired > 0 {
		log.Printf("sweeper: removed %d expired holds", expired)
	}
}
