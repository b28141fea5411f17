package dto

import (
	"time"

	"github.com/prtsw/caseflow_backend/internal/core/domain"
)

// AuditEntryResponse defines the data returned for one audit log entry.
type AuditEntryResponse struct {
	AuditID     string         `json:"auditID"`
	EntityType  string         `json:"entityType"`
	EntityID    string         `json:"entityID"`
	Action      string         `json:"action"`
	PerformedBy string         `json:"performedBy"`
	PerformedAt time.Time      `json:"performedAt"`
	Details     map[string]any `json:"details,omitempty"`
}

// ToAuditEntryResponse converts a domain.AuditLogEntry to AuditEntryResponse DTO
func ToAuditEntryResponse(e *domain.AuditLogEntry) AuditEntryResponse {
	return AuditEntryResponse{
		AuditID:     e.AuditID,
		EntityType:  string(e.EntityType),
		EntityID:    e.EntityID,
		Action:      string(e.Action),
		PerformedBy: e.PerformedBy,
		PerformedAt: e.PerformedAt,
		Details:     e.Details,
	}
}

// ListAuditResponse wraps a case's audit trail, newest first.
type ListAuditResponse struct {
	Entries []AuditEntryResponse `json:"entries"`
}

// ToListAuditResponse converts a slice of domain.AuditLogEntry to ListAuditResponse DTO
func ToListAuditResponse(entries []domain.AuditLogEntry) ListAuditResponse {
	responses := make([]AuditEntryResponse, len(entries))
	for i, e := range entries {
		responses[i] = ToAuditEntryResponse(&e)
	}
	return ListAuditResponse{Entries: responses}
}
