package database

import (
	"context"
	"database/sql"
)

// Table definitions for the booking schema. The unique key on
// (movie_id, seat_number, booking_date) is the storage-level guarantee
// that a seat is never double-booked for the same showing and date; the
// unique key on (movie_id, seat_number) in nm_seat_holds plays the same
// role for in-flight holds. Foreign keys cascade so deleting a movie or
// user removes its bookings and holds.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS nm_users (
		user_id INT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		username VARCHAR(50) UNIQUE NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		phone_number VARCHAR(15),
		role ENUM('admin', 'customer') DEFAULT 'customer',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS nm_movies (
		movie_id INT AUTO_INCREMENT PRIMARY KEY,
		title VARCHAR(100) NOT NULL,
		genre VARCHAR(50),
		price DECIMAL(10,2) NOT NULL,
		show_date DATE,
		show_time TIME,
		status ENUM('active', 'inactive') DEFAULT 'inactive',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS nm_seats (
		seat_id INT AUTO_INCREMENT PRIMARY KEY,
		movie_id INT,
		user_id INT,
		seat_number VARCHAR(3) NOT NULL,
		booking_date DATE NOT NULL,
		CONSTRAINT fk_seat_movie
			FOREIGN KEY (movie_id)
			REFERENCES nm_movies(movie_id)
			ON DELETE CASCADE,
		CONSTRAINT fk_seat_user
			FOREIGN KEY (user_id)
			REFERENCES nm_users(user_id)
			ON DELETE CASCADE,
		UNIQUE KEY unique_seat (movie_id, seat_number, booking_date)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS nm_seat_holds (
		hold_id INT AUTO_INCREMENT PRIMARY KEY,
		movie_id INT NOT NULL,
		user_id INT NOT NULL,
		seat_number VARCHAR(3) NOT NULL,
		hold_token VARCHAR(64) NOT NULL,
		expires_at DATETIME NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT fk_hold_movie
			FOREIGN KEY (movie_id)
			REFERENCES nm_movies(movie_id)
			ON DELETE CASCADE,
		CONSTRAINT fk_hold_user
			FOREIGN KEY (user_id)
			REFERENCES nm_users(user_id)
			ON DELETE CASCADE,
		UNIQUE KEY unique_hold (movie_id, seat_number)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS nm_refresh_tokens (
		id INT AUTO_INCREMENT PRIMARY KEY,
		user_id INT NOT NULL,
		token_hash CHAR(64) NOT NULL,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT fk_token_user
			FOREIGN KEY (user_id)
			REFERENCES nm_users(user_id)
			ON DELETE CASCADE,
		KEY idx_token_hash (token_hash)
	) ENGINE=InnoDB`,
}

// EnsureSchema creates the booking tables when they do not exist yet.
// Statements are idempotent so running it at every start is safe.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
