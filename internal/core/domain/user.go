package domain

import "time"

// UserRole is the workflow role a user acts under. Roles gate which
// transitions a user may trigger; VIEWER is read-only.
type UserRole string

const (
	RoleRequester UserRole = "REQUESTER"
	RoleApprover  UserRole = "APPROVER"
	RoleIssuer    UserRole = "ISSUER"
	RoleDisburser UserRole = "DISBURSER"
	RoleAdmin     UserRole = "ADMIN"
	RoleViewer    UserRole = "VIEWER"
)

// validRoles is the closed set of assignable roles.
var validRoles = map[UserRole]struct{}{
	RoleRequester: {},
	RoleApprover:  {},
	RoleIssuer:    {},
	RoleDisburser: {},
	RoleAdmin:     {},
	RoleViewer:    {},
}

// IsValid reports whether r is a known role.
func (r UserRole) IsValid() bool {
	_, ok := validRoles[r]
	return ok
}

func (r UserRole) String() string {
	return string(r)
}

// User represents a user of the application in the domain.
type User struct {
	UserID       string   `json:"userID"` // Primary Key (e.g., UUID)
	Username     string   `json:"username"`
	Name         string   `json:"name"`
	PasswordHash string   `json:"-"`                  // Empty for OAuth-provisioned users
	GoogleID     string   `json:"googleID,omitempty"` // Google subject when provisioned via OAuth
	Role         UserRole `json:"role"`
	AuditFields
	DisabledAt *time.Time `json:"disabledAt,omitempty"` // Soft disable

	// Refresh token state, stored hashed.
	RefreshTokenHash       string     `json:"-"`
	RefreshTokenExpiryTime *time.Time `json:"-"`
}

// IsDisabled reports whether the user has been soft-disabled.
func (u *User) IsDisabled() bool {
	return u.DisabledAt != nil
}

// Actor is the (user, role) pair the auth middleware resolves for a request.
// Workflow operations trust it and re-validate only the role-to-transition
// mapping.
type Actor struct {
	UserID string
	Role   UserRole
}

// GoogleUserInfo carries the subset of the Google userinfo payload the
// application consumes when provisioning OAuth users.
type GoogleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}
