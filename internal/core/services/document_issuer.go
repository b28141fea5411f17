package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/prtsw/caseflow_backend/internal/core/domain"
	portsrepo "github.com/prtsw/caseflow_backend/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

// documentIssuer allocates a document number and persists the document inside
// the caller's transaction. The counter row lock is held only for the
// allocation plus insert, never for the rest of the workflow operation.
type documentIssuer struct {
	docRepo portsrepo.DocumentTransactionSupport
}

func newDocumentIssuer(docRepo portsrepo.DocumentTransactionSupport) *documentIssuer {
	return &documentIssuer{docRepo: docRepo}
}

// Issue allocates the next sequence for (docType, current month) and persists
// the document within tx. The counter increment rolls back with the
// transaction, so a failed issuance never burns a number. A document of the
// same type already existing for the case surfaces as ErrDuplicate from the
// storage constraint.
func (d *documentIssuer) Issue(ctx context.Context, tx pgx.Tx, caseID string, docType domain.DocumentType, amount decimal.Decimal, issuedBy string, now time.Time) (*domain.Document, error) {
	yearMonth := domain.YearMonth(now)
	sequence, err := d.docRepo.AllocateDocNumber(ctx, tx, docType, yearMonth)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate %s number for %s: %w", docType, yearMonth, err)
	}

	doc := domain.Document{
		DocumentID: uuid.NewString(),
		CaseID:     caseID,
		DocType:    docType,
		DocNumber:  domain.FormatDocNumber(docType, yearMonth, sequence),
		Amount:     amount,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     issuedBy,
			LastUpdatedAt: now,
			LastUpdatedBy: issuedBy,
		},
	}

	if err := d.docRepo.SaveDocumentInTx(ctx, tx, doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
