package domain

import "time"

// APIToken authenticates machine collaborators such as the document renderer
// posting back content references. The raw token is shown once at creation;
// only its hash is stored.
type APIToken struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userID"` // issuing user, for audit attribution
	Name       string     `json:"name"`
	TokenHash  string     `json:"-"` // Never expose the hash in JSON responses
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	RevokedAt  *time.Time `json:"-"` // Soft revocation
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

// UpdateLastUsed updates the LastUsedAt timestamp to the current time
func (t *APIToken) UpdateLastUsed() {
	now := time.Now()
	t.LastUsedAt = &now
}
