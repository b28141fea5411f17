package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prtsw/caseflow_backend/internal/apperrors"
	"github.com/prtsw/caseflow_backend/internal/core/domain"
	portsrepo "github.com/prtsw/caseflow_backend/internal/core/ports/repositories"
	"github.com/prtsw/caseflow_backend/internal/models"
	"github.com/prtsw/caseflow_backend/internal/utils/mapping"
)

const selectDocumentFields = `
	document_id, case_id, doc_type, doc_number, amount, content_ref,
	created_at, created_by, last_updated_at, last_updated_by
`

type PgxDocumentRepository struct {
	BaseRepository
}

// newPgxDocumentRepository creates a new repository for controlled documents
// and their numbering counters.
func newPgxDocumentRepository(pool *pgxpool.Pool) portsrepo.DocumentRepositoryWithTx {
	return &PgxDocumentRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxDocumentRepository implements portsrepo.DocumentRepositoryWithTx
var _ portsrepo.DocumentRepositoryWithTx = (*PgxDocumentRepository)(nil)

// scanDocument scans a single documents row in selectDocumentFields order.
func scanDocument(row pgx.Row) (*models.Document, error) {
	var m models.Document
	err := row.Scan(
		&m.DocumentID,
		&m.CaseID,
		&m.DocType,
		&m.DocNumber,
		&m.Amount,
		&m.ContentRef,
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

// FindDocumentByID retrieves a document by its ID.
func (r *PgxDocumentRepository) FindDocumentByID(ctx context.Context, documentID string) (*domain.Document, error) {
	query := `SELECT ` + selectDocumentFields + ` FROM documents WHERE document_id = $1;`
	m, err := scanDocument(r.Pool.QueryRow(ctx, query, documentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find document by ID %s: %w", documentID, err)
	}
	domainDoc := mapping.ToDomainDocument(*m)
	return &domainDoc, nil
}

// FindDocumentsByCaseID retrieves all documents issued for a case, oldest first.
func (r *PgxDocumentRepository) FindDocumentsByCaseID(ctx context.Context, caseID string) ([]domain.Document, error) {
	query := `
		SELECT ` + selectDocumentFields + `
		FROM documents
		WHERE case_id = $1
		ORDER BY created_at;
	`
	rows, err := r.Pool.Query(ctx, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents for case %s: %w", caseID, err)
	}
	defer rows.Close()

	modelDocs := []models.Document{}
	for rows.Next() {
		m, scanErr := scanDocument(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan document row for case %s: %w", caseID, scanErr)
		}
		modelDocs = append(modelDocs, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document rows for case %s: %w", caseID, err)
	}

	return mapping.ToDomainDocumentSlice(modelDocs), nil
}

// FindDocumentByCaseAndType retrieves the single document of the given type
// for a case. At most one exists per the uq_case_id_doc_type constraint.
func (r *PgxDocumentRepository) FindDocumentByCaseAndType(ctx context.Context, caseID string, docType domain.DocumentType) (*domain.Document, error) {
	query := `SELECT ` + selectDocumentFields + ` FROM documents WHERE case_id = $1 AND doc_type = $2;`
	m, err := scanDocument(r.Pool.QueryRow(ctx, query, caseID, string(docType)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find %s document for case %s: %w", docType, caseID, err)
	}
	domainDoc := mapping.ToDomainDocument(*m)
	return &domainDoc, nil
}

// UpdateDocumentContentRef stores the rendered artifact reference for a document.
func (r *PgxDocumentRepository) UpdateDocumentContentRef(ctx context.Context, documentID string, contentRef string, updatedBy string, now time.Time) error {
	query := `
		UPDATE documents
		SET content_ref = $2,
		    last_updated_at = $3,
		    last_updated_by = $4
		WHERE document_id = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, documentID, contentRef, now, updatedBy)
	if err != nil {
		return fmt.Errorf("failed to update content ref for document %s: %w", documentID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("document " + documentID + " not found for content ref update")
	}
	return nil
}

// AllocateDocNumber increments and returns the per (doc_type, year_month)
// counter within the given transaction. The single upsert statement creates
// the counter row on first use and locks it for the rest of the transaction,
// so two concurrent issuances of the same type serialize here and a
// rolled-back issuance reverts its increment.
func (r *PgxDocumentRepository) AllocateDocNumber(ctx context.Context, tx pgx.Tx, docType domain.DocumentType, yearMonth string) (int64, error) {
	query := `
		INSERT INTO doc_counters (doc_type, year_month, last_number)
		VALUES ($1, $2, 1)
		ON CONFLICT (doc_type, year_month)
		DO UPDATE SET last_number = doc_counters.last_number + 1
		RETURNING last_number;
	`
	var lastNumber int64
	if err := tx.QueryRow(ctx, query, string(docType), yearMonth).Scan(&lastNumber); err != nil {
		return 0, fmt.Errorf("failed to allocate %s number for %s: %w", docType, yearMonth, err)
	}
	return lastNumber, nil
}

// SaveDocumentInTx persists a new document within the given transaction.
func (r *PgxDocumentRepository) SaveDocumentInTx(ctx context.Context, tx pgx.Tx, doc domain.Document) error {
	m := mapping.ToModelDocument(doc)
	query := `
		INSERT INTO documents (
			document_id, case_id, doc_type, doc_number, amount, content_ref,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := tx.Exec(ctx, query,
		m.DocumentID,
		m.CaseID,
		m.DocType,
		m.DocNumber,
		m.Amount,
		m.ContentRef,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			if pgErr.ConstraintName == "uq_case_id_doc_type" {
				return fmt.Errorf("%w: case %s already has a %s document", apperrors.ErrDuplicate, m.CaseID, m.DocType)
			}
			return fmt.Errorf("%w: document number %s already exists", apperrors.ErrDuplicate, m.DocNumber)
		}
		return fmt.Errorf("failed to insert document %s: %w", m.DocumentID, err)
	}
	return nil
}
