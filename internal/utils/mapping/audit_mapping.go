package mapping

import (
	"github.com/prtsw/caseflow_backend/internal/core/domain"
	"github.com/prtsw/caseflow_backend/internal/models"
)

// ToModelAuditLogEntry converts a domain AuditLogEntry to a model AuditLogEntry
func ToModelAuditLogEntry(d domain.AuditLogEntry) models.AuditLogEntry {
	return models.AuditLogEntry{
		AuditID:     d.AuditID,
		EntityType:  string(d.EntityType),
		EntityID:    d.EntityID,
		Action:      string(d.Action),
		PerformedBy: d.PerformedBy,
		PerformedAt: d.PerformedAt,
		Details:     d.Details,
	}
}

// ToDomainAuditLogEntry converts a model AuditLogEntry to a domain AuditLogEntry
func ToDomainAuditLogEntry(m models.AuditLogEntry) domain.AuditLogEntry {
	return domain.AuditLogEntry{
		AuditID:     m.AuditID,
		EntityType:  domain.AuditEntityType(m.EntityType),
		EntityID:    m.EntityID,
		Action:      domain.AuditAction(m.Action),
		PerformedBy: m.PerformedBy,
		PerformedAt: m.PerformedAt,
		Details:     m.Details,
	}
}

// ToDomainAuditLogEntrySlice converts a slice of model AuditLogEntries to domain AuditLogEntries
func ToDomainAuditLogEntrySlice(ms []models.AuditLogEntry) []domain.AuditLogEntry {
	ds := make([]domain.AuditLogEntry, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainAuditLogEntry(m)
	}
	return ds
}
