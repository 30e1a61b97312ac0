package model

import "time"

// Roles stored in nm_users.role.  Role branching is enforced at the API
// boundary by middleware, not by inspecting user records in handlers.
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

// User mirrors a row of the `nm_users` table.  PasswordHash holds a
// bcrypt digest; the plain password is never stored.
type User struct {
	ID           uint64    // nm_users.user_id
	Name         string    // nm_users.name
	Username     string    // nm_users.username (unique)
	PasswordHash string    // nm_users.password_hash
	Phone        string    // nm_users.phone_number
	Role         string    // nm_users.role ('admin' or 'customer')
	CreatedAt    time.Time // nm_users.created_at
}

// RefreshToken models an entry in the `nm_refresh_tokens` table.  Only the
// SHA-256 hash of the issued token is stored.
type RefreshToken struct {
	ID        uint64     // nm_refresh_tokens.id
	UserID    uint64     // nm_refresh_tokens.user_id
	TokenHash string     // nm_refresh_tokens.token_hash
	ExpiresAt time.Time  // nm_refresh_tokens.expires_at
	RevokedAt *time.Time // nm_refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // nm_refresh_tokens.created_at
}
