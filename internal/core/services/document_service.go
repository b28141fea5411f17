package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prtsw/caseflow_backend/internal/apperrors"
	"github.com/prtsw/caseflow_backend/internal/core/domain"
	portsrepo "github.com/prtsw/caseflow_backend/internal/core/ports/repositories"
	portssvc "github.com/prtsw/caseflow_backend/internal/core/ports/services"
)

// documentService serves reads of issued documents and accepts the rendered
// artifact reference back from the renderer. Issuance itself lives in the
// case workflow service, under the case lock.
type documentService struct {
	BaseService
	documentRepo portsrepo.DocumentRepositoryFacade
	auditRepo    portsrepo.AuditAppender
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(documentRepo portsrepo.DocumentRepositoryFacade, auditRepo portsrepo.AuditAppender) portssvc.DocumentSvcFacade {
	return &documentService{
		documentRepo: documentRepo,
		auditRepo:    auditRepo,
	}
}

// Ensure documentService implements the portssvc.DocumentSvcFacade interface
var _ portssvc.DocumentSvcFacade = (*documentService)(nil)

// GetDocumentByID retrieves a document by its unique identifier.
func (s *documentService) GetDocumentByID(ctx context.Context, documentID string) (*domain.Document, error) {
	doc, err := s.documentRepo.FindDocumentByID(ctx, documentID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find document by ID",
				slog.String("document_id", documentID))
		}
		return nil, fmt.Errorf("failed to find document %s: %w", documentID, err)
	}
	return doc, nil
}

// AttachContentRef stores the renderer's artifact reference on a document.
// The reference is opaque here; it is never resolved or validated beyond
// being non-empty.
func (s *documentService) AttachContentRef(ctx context.Context, documentID string, contentRef string, actorID string) (*domain.Document, error) {
	if strings.TrimSpace(contentRef) == "" {
		return nil, fmt.Errorf("content reference is required: %w", apperrors.ErrValidation)
	}

	doc, err := s.GetDocumentByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.documentRepo.UpdateDocumentContentRef(ctx, documentID, contentRef, actorID, now); err != nil {
		s.LogError(ctx, err, "Failed to store content reference",
			slog.String("document_id", documentID))
		return nil, fmt.Errorf("failed to store content reference for document %s: %w", documentID, err)
	}

	entry := domain.AuditLogEntry{
		AuditID:     uuid.NewString(),
		EntityType:  domain.AuditEntityDocument,
		EntityID:    documentID,
		Action:      domain.AuditDocContentAttached,
		PerformedBy: actorID,
		PerformedAt: now,
		Details: map[string]any{
			"doc_number":  doc.DocNumber,
			"content_ref": contentRef,
		},
	}
	if err := s.auditRepo.AppendAudit(ctx, entry); err != nil {
		s.LogError(ctx, err, "Failed to append audit entry for content reference",
			slog.String("document_id", documentID))
	}

	doc.ContentRef = contentRef
	doc.LastUpdatedAt = now
	doc.LastUpdatedBy = actorID
	return doc, nil
}
