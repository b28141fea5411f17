package mapping

import (
	"database/sql"

	"github.com/prtsw/caseflow_backend/internal/core/domain"
	"github.com/prtsw/caseflow_backend/internal/models"
)

// ToModelUser converts a domain User to a model User
func ToModelUser(d domain.User) models.User {
	m := models.User{
		UserID:           d.UserID,
		Username:         d.Username,
		Name:             d.Name,
		PasswordHash:     toNullString(d.PasswordHash),
		GoogleID:         toNullString(d.GoogleID),
		Role:             string(d.Role),
		AuditFields:      ToModelAuditFields(d.AuditFields),
		DisabledAt:       d.DisabledAt,
		RefreshTokenHash: toNullString(d.RefreshTokenHash),
	}
	if d.RefreshTokenExpiryTime != nil {
		m.RefreshTokenExpiryTime = sql.NullTime{Time: *d.RefreshTokenExpiryTime, Valid: true}
	}
	return m
}

// ToDomainUser converts a model User to a domain User
func ToDomainUser(m models.User) domain.User {
	d := domain.User{
		UserID:           m.UserID,
		Username:         m.Username,
		Name:             m.Name,
		PasswordHash:     fromNullString(m.PasswordHash),
		GoogleID:         fromNullString(m.GoogleID),
		Role:             domain.UserRole(m.Role),
		AuditFields:      ToDomainAuditFields(m.AuditFields),
		DisabledAt:       m.DisabledAt,
		RefreshTokenHash: fromNullString(m.RefreshTokenHash),
	}
	if m.RefreshTokenExpiryTime.Valid {
		t := m.RefreshTokenExpiryTime.Time
		d.RefreshTokenExpiryTime = &t
	}
	return d
}

// ToDomainUserSlice converts a slice of model Users to a slice of domain Users
func ToDomainUserSlice(ms []models.User) []domain.User {
	ds := make([]domain.User, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainUser(m)
	}
	return ds
}
