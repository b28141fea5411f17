package services

import (
	"context"

	"github.com/prtsw/caseflow_backend/internal/core/domain"
)

// DocumentReaderSvc defines read operations for controlled documents
type DocumentReaderSvc interface {
	// GetDocumentByID retrieves a specific document by its unique identifier.
	GetDocumentByID(ctx context.Context, documentID string) (*domain.Document, error)
}

// DocumentWriterSvc defines post-issuance write operations for controlled documents
type DocumentWriterSvc interface {
	// AttachContentRef stores the rendered-artifact reference produced by the
	// renderer. Issuance never waits for this.
	AttachContentRef(ctx context.Context, documentID string, contentRef string, actorID string) (*domain.Document, error)
}

// DocumentSvcFacade combines all document-related service interfaces
type DocumentSvcFacade interface {
	DocumentReaderSvc
	DocumentWriterSvc
}
