package models

import (
	"database/sql"
	"time"
)

// User represents a row of the users table. PasswordHash is empty for users
// provisioned through Google sign-in; GoogleID is set for those instead.
type User struct {
	UserID       string         `db:"user_id"`
	Username     string         `db:"username"`
	Name         string         `db:"name"`
	PasswordHash sql.NullString `db:"password_hash"`
	GoogleID     sql.NullString `db:"google_id"`
	Role         string         `db:"role"`
	AuditFields
	DisabledAt *time.Time `db:"disabled_at"`

	// Refresh token state, stored hashed.
	RefreshTokenHash       sql.NullString `db:"refresh_token_hash"`
	RefreshTokenExpiryTime sql.NullTime   `db:"refresh_token_expiry_time"`
}
