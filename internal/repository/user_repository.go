package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/novamovie/ticket-booking/internal/model"
	"github.com/novamovie/ticket-booking/internal/utils"
)

// UserRepo provides access to the nm_users table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create hashes the password with bcrypt and inserts a user, returning its
// ID. A duplicate username maps to ErrUsernameExists.
func (r *UserRepo) Create(ctx context.Context, name, username, password, phone, role string, cost int) (uint64, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO nm_users (name, username, password_hash, phone_number, role) VALUES (?,?,?,?,?)",
		name, username, hash, phone, role)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrUsernameExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByUsername fetches a user by normalized username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id,name,username,password_hash,phone_number,role,created_at FROM nm_users WHERE username=? LIMIT 1",
		username).Scan(&u.ID, &u.Name, &u.Username, &u.PasswordHash, &u.Phone, &u.Role, &u.CreatedAt)
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id,name,username,password_hash,phone_number,role,created_at FROM nm_users WHERE user_id=? LIMIT 1",
		id).Scan(&u.ID, &u.Name, &u.Username, &u.PasswordHash, &u.Phone, &u.Role, &u.CreatedAt)
	return u, err
}

// List returns all users ordered by id. Password hashes are included;
// handlers must not serialize them.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT user_id,name,username,password_hash,phone_number,role,created_at FROM nm_users ORDER BY user_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Username, &u.PasswordHash, &u.Phone, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// Delete removes a user. Seat bookings referencing the user are removed
// by the ON DELETE CASCADE foreign key. Returns sql.ErrNoRows when the
// user does not exist.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM nm_users WHERE user_id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
