package dto

import (
	"time"

	"github.com/prtsw/caseflow_backend/internal/core/domain"
)

// UserResponse defines the data returned for a user.
type UserResponse struct {
	UserID     string     `json:"userID"`
	Username   string     `json:"username"`
	Name       string     `json:"name"`
	Role       string     `json:"role"`
	DisabledAt *time.Time `json:"disabledAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// ToUserResponse converts a domain.User to UserResponse DTO
func ToUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		UserID:     user.UserID,
		Username:   user.Username,
		Name:       user.Name,
		Role:       string(user.Role),
		DisabledAt: user.DisabledAt,
		CreatedAt:  user.CreatedAt,
	}
}
