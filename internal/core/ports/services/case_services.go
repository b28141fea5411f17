package services

import (
	"context"

	"github.com/prtsw/caseflow_backend/internal/core/domain"
	"github.com/prtsw/caseflow_backend/internal/dto"
	"github.com/shopspring/decimal"
)

// CaseReaderSvc defines read operations for case data
type CaseReaderSvc interface {
	// GetCaseByID retrieves a specific case by its ID. Requesters see only their own cases.
	GetCaseByID(ctx context.Context, caseID string, actor domain.Actor) (*domain.Case, error)

	// GetCaseDetail retrieves a case together with its documents, payments,
	// attachments and settlement variance (nil until both CR and DB exist).
	GetCaseDetail(ctx context.Context, caseID string, actor domain.Actor) (*dto.CaseDetailResponse, error)

	// ListCases retrieves a paginated list of cases. Requesters see only their own cases.
	ListCases(ctx context.Context, actor domain.Actor, params dto.ListCasesParams) (*dto.ListCasesResponse, error)

	// GetCaseAudit retrieves the case's audit trail, newest first.
	GetCaseAudit(ctx context.Context, caseID string, actor domain.Actor) ([]domain.AuditLogEntry, error)
}

// CaseWriterSvc defines pre-workflow write operations for case data
type CaseWriterSvc interface {
	// CreateCase opens a new case in DRAFT, freezing the category's account
	// code into the case.
	CreateCase(ctx context.Context, req dto.CreateCaseRequest, actor domain.Actor) (*domain.Case, error)

	// UpdateCase edits the request fields of a case while it is still in DRAFT.
	UpdateCase(ctx context.Context, caseID string, req dto.UpdateCaseRequest, actor domain.Actor) (*domain.Case, error)
}

// CaseTransitionSvc defines the workflow operations. Each runs as one unit of
// work: lock the case row, validate the transition, perform the side effect,
// persist the new status, append the audit entry, commit.
type CaseTransitionSvc interface {
	// SubmitCase moves a DRAFT case to SUBMITTED.
	SubmitCase(ctx context.Context, caseID string, actor domain.Actor) (*domain.Case, error)

	// ApproveCase approves a SUBMITTED case, issuing the PS document for the
	// requested amount.
	ApproveCase(ctx context.Context, caseID string, actor domain.Actor) (*domain.Case, *domain.Document, error)

	// RejectCase rejects a SUBMITTED case, recording the optional reason.
	RejectCase(ctx context.Context, caseID string, reason string, actor domain.Actor) (*domain.Case, error)

	// IssueCR issues the cash requisition for a PS_APPROVED case. A nil amount
	// defaults to the case's requested amount.
	IssueCR(ctx context.Context, caseID string, amount *decimal.Decimal, actor domain.Actor) (*domain.Case, *domain.Document, error)

	// DisburseCase records the DISBURSE payment against a CR_ISSUED case.
	DisburseCase(ctx context.Context, caseID string, amount decimal.Decimal, referenceNo string, actor domain.Actor) (*domain.Case, *domain.Payment, error)

	// SubmitSettlement moves a PAID case to SETTLEMENT_SUBMITTED.
	SubmitSettlement(ctx context.Context, caseID string, actor domain.Actor) (*domain.Case, error)

	// IssueDB issues the disbursement bill for the actual settled amount.
	IssueDB(ctx context.Context, caseID string, amount decimal.Decimal, actor domain.Actor) (*domain.Case, *domain.Document, error)

	// CloseCase closes a DB_ISSUED case.
	CloseCase(ctx context.Context, caseID string, actor domain.Actor) (*domain.Case, error)

	// CancelCase cancels a DRAFT or SUBMITTED case, recording the optional reason.
	CancelCase(ctx context.Context, caseID string, reason string, actor domain.Actor) (*domain.Case, error)
}

// CaseAttachmentSvc defines attachment operations on cases
type CaseAttachmentSvc interface {
	// AddAttachment stores an attachment reference against a non-terminal case.
	AddAttachment(ctx context.Context, caseID string, req dto.AddAttachmentRequest, actor domain.Actor) (*domain.Attachment, error)
}

// CaseSettlementSvc defines the post-settlement payment operation
type CaseSettlementSvc interface {
	// RecordSettlementPayment records the REFUND or ADDITIONAL payment for a
	// DB_ISSUED case. The payment type is derived from the variance sign and
	// the amount must equal the absolute variance.
	RecordSettlementPayment(ctx context.Context, caseID string, req dto.RecordSettlementPaymentRequest, actor domain.Actor) (*domain.Payment, error)
}

// CaseSvcFacade combines all case-related service interfaces
// This is a facade for clients that need access to all operations
type CaseSvcFacade interface {
	CaseReaderSvc
	CaseWriterSvc
	CaseTransitionSvc
	CaseAttachmentSvc
	CaseSettlementSvc
}
