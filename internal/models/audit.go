package models

import "time"

// AuditLogEntry represents a row of the append-only audit_log table.
// Details is stored as JSONB. No update or delete statements exist for this
// table anywhere in the codebase.
type AuditLogEntry struct {
	AuditID     string         `db:"audit_id"`
	EntityType  string         `db:"entity_type"`
	EntityID    string         `db:"entity_id"`
	Action      string         `db:"action"`
	PerformedBy string         `db:"performed_by"`
	PerformedAt time.Time      `db:"performed_at"`
	Details     map[string]any `db:"details"`
}
