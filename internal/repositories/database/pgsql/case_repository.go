package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prtsw/caseflow_backend/internal/apperrors"
	"github.com/prtsw/caseflow_backend/internal/core/domain"
	portsrepo "github.com/prtsw/caseflow_backend/internal/core/ports/repositories"
	"github.com/prtsw/caseflow_backend/internal/models"
	"github.com/prtsw/caseflow_backend/internal/utils/mapping"
	"github.com/prtsw/caseflow_backend/internal/utils/pagination"
)

const selectCaseFields = `
	case_id, case_number, category_id, account_code, requester_id,
	department, cost_center, funding_type, requested_amount, purpose,
	status, reject_reason,
	created_at, created_by, last_updated_at, last_updated_by
`

type PgxCaseRepository struct {
	BaseRepository
	lockTimeout time.Duration
}

// newPgxCaseRepository creates a new repository for case data. lockTimeout
// bounds the wait for the per-case row lock taken by workflow transitions.
func newPgxCaseRepository(pool *pgxpool.Pool, lockTimeout time.Duration) portsrepo.CaseRepositoryWithTx {
	return &PgxCaseRepository{
		BaseRepository: BaseRepository{Pool: pool},
		lockTimeout:    lockTimeout,
	}
}

// Ensure PgxCaseRepository implements portsrepo.CaseRepositoryWithTx
var _ portsrepo.CaseRepositoryWithTx = (*PgxCaseRepository)(nil)

// scanCase scans a single cases row in selectCaseFields order.
func scanCase(row pgx.Row) (*models.Case, error) {
	var m models.Case
	err := row.Scan(
		&m.CaseID,
		&m.CaseNumber,
		&m.CategoryID,
		&m.AccountCode,
		&m.RequesterID,
		&m.Department,
		&m.CostCenter,
		&m.FundingType,
		&m.RequestedAmount,
		&m.Purpose,
		&m.Status,
		&m.RejectReason,
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

// SaveCaseInTx persists a new case within the given transaction.
func (r *PgxCaseRepository) SaveCaseInTx(ctx context.Context, tx pgx.Tx, newCase domain.Case) error {
	m := mapping.ToModelCase(newCase)
	query := `
		INSERT INTO cases (
			case_id, case_number, category_id, account_code, requester_id,
			department, cost_center, funding_type, requested_amount, purpose,
			status, reject_reason,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
	`
	_, err := tx.Exec(ctx, query,
		m.CaseID,
		m.CaseNumber,
		m.CategoryID,
		m.AccountCode,
		m.RequesterID,
		m.Department,
		m.CostCenter,
		m.FundingType,
		m.RequestedAmount,
		m.Purpose,
		m.Status,
		m.RejectReason,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return fmt.Errorf("%w: case number %s already exists", apperrors.ErrDuplicate, m.CaseNumber)
		}
		return fmt.Errorf("failed to insert case %s: %w", m.CaseID, err)
	}
	return nil
}

// UpdateCaseDetailsInTx updates the requester-editable fields of a case.
// Status checks happen in the service, under the row lock.
func (r *PgxCaseRepository) UpdateCaseDetailsInTx(ctx context.Context, tx pgx.Tx, updated domain.Case) error {
	m := mapping.ToModelCase(updated)
	query := `
		UPDATE cases
		SET requested_amount = $2,
		    purpose = $3,
		    department = $4,
		    cost_center = $5,
		    funding_type = $6,
		    last_updated_at = $7,
		    last_updated_by = $8
		WHERE case_id = $1;
	`
	cmdTag, err := tx.Exec(ctx, query,
		m.CaseID,
		m.RequestedAmount,
		m.Purpose,
		m.Department,
		m.CostCenter,
		m.FundingType,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update case details for %s: %w", m.CaseID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("case " + m.CaseID + " not found for update")
	}
	return nil
}

// FindCaseByID retrieves a case by its ID.
func (r *PgxCaseRepository) FindCaseByID(ctx context.Context, caseID string) (*domain.Case, error) {
	query := `SELECT ` + selectCaseFields + ` FROM cases WHERE case_id = $1;`
	m, err := scanCase(r.Pool.QueryRow(ctx, query, caseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find case by ID %s: %w", caseID, err)
	}
	domainCase := mapping.ToDomainCase(*m)
	return &domainCase, nil
}

// FindCaseByNumber retrieves a case by its human-readable case number.
func (r *PgxCaseRepository) FindCaseByNumber(ctx context.Context, caseNumber string) (*domain.Case, error) {
	query := `SELECT ` + selectCaseFields + ` FROM cases WHERE case_number = $1;`
	m, err := scanCase(r.Pool.QueryRow(ctx, query, caseNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find case by number %s: %w", caseNumber, err)
	}
	domainCase := mapping.ToDomainCase(*m)
	return &domainCase, nil
}

// FindCaseByIDForUpdate selects a case and locks its row within the given
// transaction. The wait is bounded by the configured lock timeout; hitting it
// surfaces as ErrBusy so callers can return 503 instead of queueing up.
func (r *PgxCaseRepository) FindCaseByIDForUpdate(ctx context.Context, tx pgx.Tx, caseID string) (*domain.Case, error) {
	// SET LOCAL only lives until the end of the surrounding transaction, so
	// the bounded wait never leaks onto pooled connections.
	timeoutMs := r.lockTimeout.Milliseconds()
	if timeoutMs <= 0 {
		timeoutMs = 3000
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", timeoutMs)); err != nil {
		return nil, fmt.Errorf("failed to set lock timeout: %w", err)
	}

	query := `SELECT ` + selectCaseFields + ` FROM cases WHERE case_id = $1 FOR UPDATE;`
	m, err := scanCase(tx.QueryRow(ctx, query, caseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "55P03" { // lock_not_available
			return nil, apperrors.NewBusyError("case " + caseID + " is locked by another transition")
		}
		return nil, fmt.Errorf("failed to lock case %s: %w", caseID, err)
	}
	domainCase := mapping.ToDomainCase(*m)
	return &domainCase, nil
}

// UpdateCaseStatusInTx moves a case to a new status within the given
// transaction. rejectReason overwrites the stored reason only when non-nil.
func (r *PgxCaseRepository) UpdateCaseStatusInTx(ctx context.Context, tx pgx.Tx, caseID string, status domain.CaseStatus, rejectReason *string, updatedBy string, now time.Time) error {
	query := `
		UPDATE cases
		SET status = $2,
		    reject_reason = COALESCE($3, reject_reason),
		    last_updated_at = $4,
		    last_updated_by = $5
		WHERE case_id = $1;
	`
	cmdTag, err := tx.Exec(ctx, query,
		caseID,
		string(status),
		rejectReason,
		now,
		updatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update status of case %s: %w", caseID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("case " + caseID + " not found for status update")
	}
	return nil
}

// ListCases retrieves a paginated list of cases using token-based pagination.
// Results are newest first with case_id breaking created_at ties, so the
// (created_at, case_id) pair is a stable keyset cursor.
func (r *PgxCaseRepository) ListCases(ctx context.Context, status *domain.CaseStatus, requesterID *string, limit int, nextToken *string) ([]domain.Case, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// Fetch one extra row to detect whether a next page exists.
	fetchLimit := limit + 1

	baseQuery := `SELECT ` + selectCaseFields + ` FROM cases`
	filterClause := `WHERE 1=1`
	args := []interface{}{}

	if status != nil {
		args = append(args, string(*status))
		filterClause += ` AND status = $` + strconv.Itoa(len(args))
	}
	if requesterID != nil {
		args = append(args, *requesterID)
		filterClause += ` AND requester_id = $` + strconv.Itoa(len(args))
	}

	if nextToken != nil && *nextToken != "" {
		lastCreatedAt, lastCaseID, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		args = append(args, lastCreatedAt, lastCaseID)
		filterClause += ` AND (created_at, case_id) < ($` + strconv.Itoa(len(args)-1) + `, $` + strconv.Itoa(len(args)) + `)`
	}

	orderByClause := `ORDER BY created_at DESC, case_id DESC`
	args = append(args, fetchLimit)
	query := baseQuery + " " + filterClause + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)) + ";"

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query cases: %w", err)
	}
	defer rows.Close()

	modelCases := make([]models.Case, 0, fetchLimit)
	for rows.Next() {
		m, scanErr := scanCase(rows)
		if scanErr != nil {
			return nil, nil, fmt.Errorf("failed to scan case row: %w", scanErr)
		}
		modelCases = append(modelCases, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating case rows: %w", err)
	}

	var nextTokenVal *string
	results := modelCases
	if len(modelCases) > limit {
		lastCase := modelCases[limit-1]
		token := pagination.EncodeToken(lastCase.CreatedAt, lastCase.CaseID)
		nextTokenVal = &token
		results = modelCases[:limit]
	}

	return mapping.ToDomainCaseSlice(results), nextTokenVal, nil
}
