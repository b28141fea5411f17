package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prtsw/caseflow_backend/internal/apperrors"
	"github.com/prtsw/caseflow_backend/internal/core/domain"
	portsrepo "github.com/prtsw/caseflow_backend/internal/core/ports/repositories"
	"github.com/prtsw/caseflow_backend/internal/models"
	"github.com/prtsw/caseflow_backend/internal/utils/mapping"
)

const selectAttachmentFields = `
	attachment_id, case_id, attachment_type, storage_ref,
	created_at, created_by, last_updated_at, last_updated_by
`

type PgxAttachmentRepository struct {
	BaseRepository
}

// newPgxAttachmentRepository creates a new repository for attachment metadata.
func newPgxAttachmentRepository(pool *pgxpool.Pool) portsrepo.AttachmentRepositoryFacade {
	return &PgxAttachmentRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxAttachmentRepository implements portsrepo.AttachmentRepositoryFacade
var _ portsrepo.AttachmentRepositoryFacade = (*PgxAttachmentRepository)(nil)

// scanAttachment scans a single attachments row in selectAttachmentFields order.
func scanAttachment(row pgx.Row) (*models.Attachment, error) {
	var m models.Attachment
	err := row.Scan(
		&m.AttachmentID,
		&m.CaseID,
		&m.AttachmentType,
		&m.StorageRef,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// FindAttachmentByID retrieves an attachment by its ID.
func (r *PgxAttachmentRepository) FindAttachmentByID(ctx context.Context, attachmentID string) (*domain.Attachment, error) {
	query := `SELECT ` + selectAttachmentFields + ` FROM attachments WHERE attachment_id = $1;`
	m, err := scanAttachment(r.Pool.QueryRow(ctx, query, attachmentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find attachment by ID %s: %w", attachmentID, err)
	}
	domainAttachment := mapping.ToDomainAttachment(*m)
	return &domainAttachment, nil
}

// FindAttachmentsByCaseID retrieves all attachments for a case, oldest first.
func (r *PgxAttachmentRepository) FindAttachmentsByCaseID(ctx context.Context, caseID string) ([]domain.Attachment, error) {
	query := `
		SELECT ` + selectAttachmentFields + `
		FROM attachments
		WHERE case_id = $1
		ORDER BY created_at;
	`
	rows, err := r.Pool.Query(ctx, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attachments for case %s: %w", caseID, err)
	}
	defer rows.Close()

	modelAttachments := []models.Attachment{}
	for rows.Next() {
		m, scanErr := scanAttachment(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan attachment row for case %s: %w", caseID, scanErr)
		}
		modelAttachments = append(modelAttachments, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attachment rows for case %s: %w", caseID, err)
	}

	return mapping.ToDomainAttachmentSlice(modelAttachments), nil
}

// SaveAttachmentInTx persists a new attachment within the given transaction.
func (r *PgxAttachmentRepository) SaveAttachmentInTx(ctx context.Context, tx pgx.Tx, attachment domain.Attachment) error {
	m := mapping.ToModelAttachment(attachment)
	query := `
		INSERT INTO attachments (
			attachment_id, case_id, attachment_type, storage_ref,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err := tx.Exec(ctx, query,
		m.AttachmentID,
		m.CaseID,
		m.AttachmentType,
		m.StorageRef,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert attachment %s: %w", m.AttachmentID, err)
	}
	return nil
}
