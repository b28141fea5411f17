package models

import "time"

// APIToken represents a row of the api_tokens table. These authenticate
// machine collaborators (e.g. the document renderer) that cannot hold a user
// session; only the SHA256 hash of the issued token is stored.
type APIToken struct {
	ID         string     `db:"id"`
	UserID     string     `db:"user_id"` // issuing user, for audit attribution
	Name       string     `db:"name"`
	TokenHash  string     `db:"token_hash"`
	LastUsedAt *time.Time `db:"last_used_at"`
	ExpiresAt  *time.Time `db:"expires_at"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
	RevokedAt  *time.Time `db:"revoked_at"`
}

// IsExpired checks if the token has expired
func (t *APIToken) IsExpired() bool {
	if t.ExpiresAt == nil {
		return false
	}
	return t.ExpiresAt.Before(time.Now())
}

// IsRevoked checks if the token has been revoked
func (t *APIToken) IsRevoked() bool {
	return t.RevokedAt != nil
}
