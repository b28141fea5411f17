package pgsql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prtsw/caseflow_backend/internal/core/domain"
	portsrepo "github.com/prtsw/caseflow_backend/internal/core/ports/repositories"
	"github.com/prtsw/caseflow_backend/internal/models"
	"github.com/prtsw/caseflow_backend/internal/utils/mapping"
)

type PgxAuditRepository struct {
	BaseRepository
}

// newPgxAuditRepository creates a new repository for the append-only audit log.
func newPgxAuditRepository(pool *pgxpool.Pool) portsrepo.AuditRepositoryFacade {
	return &PgxAuditRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxAuditRepository implements portsrepo.AuditRepositoryFacade
var _ portsrepo.AuditRepositoryFacade = (*PgxAuditRepository)(nil)

// pgxExecutor is the common Exec surface of *pgxpool.Pool and pgx.Tx, so the
// same insert serves in-transaction and standalone appends.
type pgxExecutor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func (r *PgxAuditRepository) appendAudit(ctx context.Context, exec pgxExecutor, entry domain.AuditLogEntry) error {
	m := mapping.ToModelAuditLogEntry(entry)

	details := m.Details
	if details == nil {
		details = map[string]any{}
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to marshal audit details for %s: %w", m.AuditID, err)
	}

	query := `
		INSERT INTO audit_log (
			audit_id, entity_type, entity_id, action, performed_by, performed_at, details
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err = exec.Exec(ctx, query,
		m.AuditID,
		m.EntityType,
		m.EntityID,
		m.Action,
		m.PerformedBy,
		m.PerformedAt,
		detailsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry %s: %w", m.AuditID, err)
	}
	return nil
}

// AppendAudit persists an audit entry in its own implicit transaction. Used
// for entries that must survive a rolled-back workflow transaction.
func (r *PgxAuditRepository) AppendAudit(ctx context.Context, entry domain.AuditLogEntry) error {
	return r.appendAudit(ctx, r.Pool, entry)
}

// AppendAuditInTx persists an audit entry within the given transaction.
func (r *PgxAuditRepository) AppendAuditInTx(ctx context.Context, tx pgx.Tx, entry domain.AuditLogEntry) error {
	return r.appendAudit(ctx, tx, entry)
}

// FindAuditByEntity retrieves all audit entries for an entity, newest first.
func (r *PgxAuditRepository) FindAuditByEntity(ctx context.Context, entityType domain.AuditEntityType, entityID string) ([]domain.AuditLogEntry, error) {
	query := `
		SELECT audit_id, entity_type, entity_id, action, performed_by, performed_at, details
		FROM audit_log
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY performed_at DESC, audit_id DESC;
	`
	rows, err := r.Pool.Query(ctx, query, string(entityType), entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries for %s %s: %w", entityType, entityID, err)
	}
	defer rows.Close()

	modelEntries := []models.AuditLogEntry{}
	for rows.Next() {
		var m models.AuditLogEntry
		var detailsRaw []byte
		if scanErr := rows.Scan(
			&m.AuditID,
			&m.EntityType,
			&m.EntityID,
			&m.Action,
			&m.PerformedBy,
			&m.PerformedAt,
			&detailsRaw,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan audit row for %s %s: %w", entityType, entityID, scanErr)
		}
		if len(detailsRaw) > 0 {
			if unmarshalErr := json.Unmarshal(detailsRaw, &m.Details); unmarshalErr != nil {
				return nil, fmt.Errorf("failed to unmarshal audit details for %s: %w", m.AuditID, unmarshalErr)
			}
		}
		modelEntries = append(modelEntries, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit rows for %s %s: %w", entityType, entityID, err)
	}

	return mapping.ToDomainAuditLogEntrySlice(modelEntries), nil
}
