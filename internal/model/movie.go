package model

import "time"

// Movie statuses.  Only active movies on the current date are bookable.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Movie mirrors a row of the `nm_movies` table.  A movie becomes a bookable
// showing when it is activated: activation assigns one of the fixed show
// slots and stamps the show date with the current date.
//
// Fields:
//
//	ID        – primary key identifier.
//	Title     – movie title, non-empty.
//	Genre     – genre label, non-empty.
//	Price     – ticket price as a decimal string (nm_movies.price DECIMAL(10,2)).
//	ShowDate  – date the showing is scheduled for.
//	ShowTime  – assigned show slot; nil until the movie is activated.
//	Status    – 'active' or 'inactive'.
//	CreatedAt – creation timestamp.
type Movie struct {
	ID        uint64    // nm_movies.movie_id
	Title     string    // nm_movies.title
	Genre     string    // nm_movies.genre
	Price     string    // nm_movies.price
	ShowDate  time.Time // nm_movies.show_date
	ShowTime  *string   // nm_movies.show_time (nullable)
	Status    string    // nm_movies.status
	CreatedAt time.Time // nm_movies.created_at
}
