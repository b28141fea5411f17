package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/prtsw/caseflow_backend/internal/core/domain"
)

// DocumentReader defines read operations for document data
type DocumentReader interface {
	// FindDocumentByID retrieves a specific document by its unique identifier.
	FindDocumentByID(ctx context.Context, documentID string) (*domain.Document, error)

	// FindDocumentsByCaseID retrieves all documents issued for a case, oldest first.
	FindDocumentsByCaseID(ctx context.Context, caseID string) ([]domain.Document, error)

	// FindDocumentByCaseAndType retrieves the single document of the given type for a case.
	FindDocumentByCaseAndType(ctx context.Context, caseID string, docType domain.DocumentType) (*domain.Document, error)
}

// DocumentWriter defines write operations for document data outside workflow transactions
type DocumentWriter interface {
	// UpdateDocumentContentRef stores the rendered artifact reference for a document.
	UpdateDocumentContentRef(ctx context.Context, documentID string, contentRef string, updatedBy string, now time.Time) error
}

// DocumentTransactionSupport defines operations used while issuing documents under a case lock
type DocumentTransactionSupport interface {
	// AllocateDocNumber increments and returns the per (doc_type, year_month) counter
	// within the given transaction. Concurrent allocations serialize on the counter
	// row; the increment rolls back with the transaction, so failed issuances do
	// not leak numbers.
	AllocateDocNumber(ctx context.Context, tx pgx.Tx, docType domain.DocumentType, yearMonth string) (int64, error)

	// SaveDocumentInTx persists a new document within a given transaction.
	// A second document of the same type for the same case surfaces as apperrors.ErrDuplicate.
	SaveDocumentInTx(ctx context.Context, tx pgx.Tx, doc domain.Document) error
}

// DocumentRepositoryFacade combines all document-related repository interfaces
// This is a facade for clients that need access to all operations
type DocumentRepositoryFacade interface {
	DocumentReader
	DocumentWriter
	DocumentTransactionSupport
}

// DocumentRepositoryWithTx extends DocumentRepositoryFacade with transaction capabilities
type DocumentRepositoryWithTx interface {
	DocumentRepositoryFacade
	TransactionManager
}
