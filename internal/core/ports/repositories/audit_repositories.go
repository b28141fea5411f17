package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/prtsw/caseflow_backend/internal/core/domain"
)

// AuditReader defines read operations for the audit log
type AuditReader interface {
	// FindAuditByEntity retrieves all audit entries for an entity, newest first.
	FindAuditByEntity(ctx context.Context, entityType domain.AuditEntityType, entityID string) ([]domain.AuditLogEntry, error)
}

// AuditAppender defines append operations for the audit log. The log is
// append-only; no update or delete operations exist.
type AuditAppender interface {
	// AppendAudit persists an audit entry in its own implicit transaction.
	// Used for entries that must survive a rolled-back workflow transaction,
	// such as rejected transition attempts.
	AppendAudit(ctx context.Context, entry domain.AuditLogEntry) error

	// AppendAuditInTx persists an audit entry within a given transaction so the
	// entry commits or rolls back together with the state change it records.
	AppendAuditInTx(ctx context.Context, tx pgx.Tx, entry domain.AuditLogEntry) error
}

// AuditRepositoryFacade combines all audit-related repository interfaces
type AuditRepositoryFacade interface {
	AuditReader
	AuditAppender
}
