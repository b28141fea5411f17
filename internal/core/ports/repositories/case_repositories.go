package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/prtsw/caseflow_backend/internal/core/domain"
)

// CaseReader defines read operations for case data
type CaseReader interface {
	// FindCaseByID retrieves a specific case by its unique identifier.
	FindCaseByID(ctx context.Context, caseID string) (*domain.Case, error)

	// FindCaseByNumber retrieves a case by its human-readable case number.
	FindCaseByNumber(ctx context.Context, caseNumber string) (*domain.Case, error)

	// ListCases retrieves a paginated list of cases using token-based pagination.
	// status and requesterID are optional filters; requesterID is mandatory for
	// requester-role callers and enforced by the service layer.
	// It returns the cases, a token for the next page, and an error.
	ListCases(ctx context.Context, status *domain.CaseStatus, requesterID *string, limit int, nextToken *string) ([]domain.Case, *string, error)
}

// CaseWriter defines write operations for case data
type CaseWriter interface {
	// SaveCaseInTx persists a new case within a given transaction.
	SaveCaseInTx(ctx context.Context, tx pgx.Tx, newCase domain.Case) error

	// UpdateCaseDetailsInTx updates the editable fields of a DRAFT case within a given transaction.
	UpdateCaseDetailsInTx(ctx context.Context, tx pgx.Tx, updated domain.Case) error
}

// CaseTransactionSupport defines operations that serialize workflow transitions
type CaseTransactionSupport interface {
	// FindCaseByIDForUpdate selects a case and locks its row for update within a transaction.
	// The lock wait is bounded; a lock timeout surfaces as apperrors.ErrBusy.
	FindCaseByIDForUpdate(ctx context.Context, tx pgx.Tx, caseID string) (*domain.Case, error)

	// UpdateCaseStatusInTx moves a case to a new status within a given transaction.
	// rejectReason is persisted only when non-nil.
	UpdateCaseStatusInTx(ctx context.Context, tx pgx.Tx, caseID string, status domain.CaseStatus, rejectReason *string, updatedBy string, now time.Time) error
}

// CaseRepositoryFacade combines all case-related repository interfaces
// This is a facade for clients that need access to all operations
type CaseRepositoryFacade interface {
	CaseReader
	CaseWriter
	CaseTransactionSupport
}

// CaseRepositoryWithTx extends CaseRepositoryFacade with transaction capabilities
type CaseRepositoryWithTx interface {
	CaseRepositoryFacade
	TransactionManager
}
