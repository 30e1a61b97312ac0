// Package queue defines message payloads exchanged over the message broker.
package queue

// SeatsBookedEvent is published after a booking transaction commits. It
// carries enough for downstream consumers (notifications, analytics) to
// act without querying the primary database.
type SeatsBookedEvent struct {
	MovieID     uint64   `json:"movie_id"`
	MovieTitle  string   `json:"movie_title"`
	ShowDate    string   `json:"show_date"`
	ShowTime    string   `json:"show_time,omitempty"`
	UserID      uint64   `json:"user_id"`
	Seats       []string `json:"seats"`
	TotalAmount string   `json:"total_amount"`
	BookedAt    string   `json:"booked_at"`
}
