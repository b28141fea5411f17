package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/prtsw/caseflow_backend/internal/core/domain"
)

// AttachmentReader defines read operations for attachment data
type AttachmentReader interface {
	// FindAttachmentByID retrieves a specific attachment by its unique identifier.
	FindAttachmentByID(ctx context.Context, attachmentID string) (*domain.Attachment, error)

	// FindAttachmentsByCaseID retrieves all attachments for a case, oldest first.
	FindAttachmentsByCaseID(ctx context.Context, caseID string) ([]domain.Attachment, error)
}

// AttachmentWriter defines write operations for attachment data
type AttachmentWriter interface {
	// SaveAttachmentInTx persists a new attachment within a given transaction,
	// so the add commits together with its audit entry while the case row is
	// held against concurrent transitions.
	SaveAttachmentInTx(ctx context.Context, tx pgx.Tx, attachment domain.Attachment) error
}

// AttachmentRepositoryFacade combines all attachment-related repository interfaces
type AttachmentRepositoryFacade interface {
	AttachmentReader
	AttachmentWriter
}
