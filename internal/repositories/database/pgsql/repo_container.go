package pgsql

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/prtsw/caseflow_backend/internal/core/ports/repositories"
)

// NewRepositoryProvider wires every pgsql repository against the shared pool.
// caseLockTimeout bounds the row-lock wait taken by workflow transitions.
func NewRepositoryProvider(dbPool *pgxpool.Pool, caseLockTimeout time.Duration) portsrepo.RepositoryProvider {
	caseRepo := newPgxCaseRepository(dbPool, caseLockTimeout)
	documentRepo := newPgxDocumentRepository(dbPool)
	paymentRepo := newPgxPaymentRepository(dbPool)
	attachmentRepo := newPgxAttachmentRepository(dbPool)
	auditRepo := newPgxAuditRepository(dbPool)
	categoryRepo := newPgxCategoryRepository(dbPool)
	userRepo := newPgxUserRepository(dbPool)
	apiTokenRepo := newPgxAPITokenRepository(dbPool)

	return portsrepo.RepositoryProvider{
		CaseRepo:       caseRepo,
		DocumentRepo:   documentRepo,
		PaymentRepo:    paymentRepo,
		AttachmentRepo: attachmentRepo,
		AuditRepo:      auditRepo,
		CategoryRepo:   categoryRepo,
		UserRepo:       userRepo,
		APITokenRepo:   apiTokenRepo,
	}
}
