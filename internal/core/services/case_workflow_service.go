package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/prtsw/caseflow_backend/internal/apperrors"
	"github.com/prtsw/caseflow_backend/internal/core/domain"
	portsrepo "github.com/prtsw/caseflow_backend/internal/core/ports/repositories"
	portssvc "github.com/prtsw/caseflow_backend/internal/core/ports/services"
	"github.com/prtsw/caseflow_backend/internal/dto"
	"github.com/prtsw/caseflow_backend/internal/utils"
)

const (
	defaultCaseListLimit = 20
	maxCaseListLimit     = 100

	// 3 random bytes render as the 6 hex chars of a case number suffix.
	caseNumberSuffixBytes = 3
)

// caseServiceImpl implements the CaseSvcFacade interface
type caseServiceImpl struct {
	BaseService
	caseRepo       portsrepo.CaseRepositoryWithTx
	documentRepo   portsrepo.DocumentRepositoryFacade
	paymentRepo    portsrepo.PaymentRepositoryFacade
	attachmentRepo portsrepo.AttachmentRepositoryFacade
	auditRepo      portsrepo.AuditRepositoryFacade
	categorySvc    portssvc.CategoryReaderSvc
	issuer         *documentIssuer
}

// CaseServiceOption is a functional option for configuring the case service
type CaseServiceOption func(*caseServiceImpl)

// WithDocumentRepository adds the document repository dependency
func WithDocumentRepository(repo portsrepo.DocumentRepositoryFacade) CaseServiceOption {
	return func(s *caseServiceImpl) {
		s.documentRepo = repo
	}
}

// WithPaymentRepository adds the payment repository dependency
func WithPaymentRepository(repo portsrepo.PaymentRepositoryFacade) CaseServiceOption {
	return func(s *caseServiceImpl) {
		s.paymentRepo = repo
	}
}

// WithAttachmentRepository adds the attachment repository dependency
func WithAttachmentRepository(repo portsrepo.AttachmentRepositoryFacade) CaseServiceOption {
	return func(s *caseServiceImpl) {
		s.attachmentRepo = repo
	}
}

// WithAuditRepository adds the audit log repository dependency
func WithAuditRepository(repo portsrepo.AuditRepositoryFacade) CaseServiceOption {
	return func(s *caseServiceImpl) {
		s.auditRepo = repo
	}
}

// WithCategoryService adds the category reader used to freeze account codes
func WithCategoryService(svc portssvc.CategoryReaderSvc) CaseServiceOption {
	return func(s *caseServiceImpl) {
		s.categorySvc = svc
	}
}

// NewCaseService creates a new case workflow service with the provided options.
// The case repository owns the workflow transactions; the other repositories
// write through the transaction it opens.
func NewCaseService(caseRepo portsrepo.CaseRepositoryWithTx, options ...CaseServiceOption) portssvc.CaseSvcFacade {
	svc := &caseServiceImpl{
		caseRepo: caseRepo,
	}

	// Apply all options
	for _, option := range options {
		option(svc)
	}

	if svc.documentRepo != nil {
		svc.issuer = newDocumentIssuer(svc.documentRepo)
	}

	return svc
}

// Ensure caseServiceImpl implements the CaseSvcFacade interface
var _ portssvc.CaseSvcFacade = (*caseServiceImpl)(nil)

// actorMayAccessCase reports whether the actor may touch the case at all.
// Requesters operate only on their own cases; every other role sees all.
func actorMayAccessCase(actor domain.Actor, c *domain.Case) bool {
	return actor.Role != domain.RoleRequester || c.RequesterID == actor.UserID
}

// transitionOutcome carries whatever a side effect produced inside the
// workflow transaction, plus extra fields for the transition's audit entry.
type transitionOutcome struct {
	document *domain.Document
	payment  *domain.Payment
	details  map[string]any
}

// sideEffect runs inside the workflow transaction, after the transition has
// been validated against the locked row and before the new status is
// persisted. Returning an error aborts the whole operation.
type sideEffect func(ctx context.Context, tx pgx.Tx, locked *domain.Case, now time.Time) (*transitionOutcome, error)

// runTransition executes one workflow operation as a single unit of work:
// lock the case row, validate the transition, run the side effect, persist
// the new status, append the audit entry, commit. A validation failure rolls
// everything back and leaves only a TRANSITION_REJECTED audit entry behind.
func (s *caseServiceImpl) runTransition(ctx context.Context, caseID string, action domain.CaseAction, actor domain.Actor, rejectReason *string, effect sideEffect) (*domain.Case, *transitionOutcome, error) {
	tx, err := s.caseRepo.Begin(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to begin transaction for case transition",
			slog.String("case_id", caseID),
			slog.String("action", action.String()))
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.caseRepo.Rollback(ctx, tx) // no-op once committed

	locked, err := s.caseRepo.FindCaseByIDForUpdate(ctx, tx, caseID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to lock case for transition",
				slog.String("case_id", caseID),
				slog.String("action", action.String()))
		}
		return nil, nil, fmt.Errorf("failed to lock case %s: %w", caseID, err)
	}

	now := time.Now()

	nextStatus, err := domain.ValidateTransition(locked.Status, action, actor.Role)
	if err == nil && !actorMayAccessCase(actor, locked) {
		err = fmt.Errorf("user %s does not own case %s: %w", actor.UserID, caseID, apperrors.ErrForbidden)
	}
	if err != nil {
		// Nothing has been written under this transaction, so the rejected
		// attempt would leave no trace; record it outside the transaction.
		if rbErr := s.caseRepo.Rollback(ctx, tx); rbErr != nil {
			s.LogError(ctx, rbErr, "Failed to roll back rejected transition",
				slog.String("case_id", caseID),
				slog.String("action", action.String()))
		}
		s.recordRejectedTransition(ctx, locked, action, actor, err, now)
		return nil, nil, err
	}

	var outcome *transitionOutcome
	if effect != nil {
		outcome, err = effect(ctx, tx, locked, now)
		if err != nil {
			return nil, nil, err
		}
	}

	if err := s.caseRepo.UpdateCaseStatusInTx(ctx, tx, caseID, nextStatus, rejectReason, actor.UserID, now); err != nil {
		s.LogError(ctx, err, "Failed to persist case status",
			slog.String("case_id", caseID),
			slog.String("to_status", nextStatus.String()))
		return nil, nil, fmt.Errorf("failed to update case %s status: %w", caseID, err)
	}

	details := map[string]any{
		"from_status": locked.Status.String(),
		"to_status":   nextStatus.String(),
	}
	if outcome != nil {
		for k, v := range outcome.details {
			details[k] = v
		}
	}
	entry := domain.AuditLogEntry{
		AuditID:     uuid.NewString(),
		EntityType:  domain.AuditEntityCase,
		EntityID:    caseID,
		Action:      domain.AuditActionFor(action),
		PerformedBy: actor.UserID,
		PerformedAt: now,
		Details:     details,
	}
	if err := s.auditRepo.AppendAuditInTx(ctx, tx, entry); err != nil {
		s.LogError(ctx, err, "Failed to append audit entry for transition",
			slog.String("case_id", caseID),
			slog.String("action", action.String()))
		return nil, nil, fmt.Errorf("failed to append audit entry: %w", err)
	}

	if err := s.caseRepo.Commit(ctx, tx); err != nil {
		s.LogError(ctx, err, "Failed to commit case transition",
			slog.String("case_id", caseID),
			slog.String("action", action.String()))
		return nil, nil, fmt.Errorf("failed to commit transition: %w", err)
	}

	s.LogInfo(ctx, "Case transition applied",
		slog.String("case_id", caseID),
		slog.String("action", action.String()),
		slog.String("to_status", nextStatus.String()))

	locked.Status = nextStatus
	if rejectReason != nil {
		locked.RejectReason = *rejectReason
	}
	locked.LastUpdatedAt = now
	locked.LastUpdatedBy = actor.UserID
	return locked, outcome, nil
}

// recordRejectedTransition appends the TRANSITION_REJECTED entry in its own
// transaction; the workflow transaction is already rolled back by the time
// this runs. Losing the entry must not mask the original failure, so an
// append error is only logged.
func (s *caseServiceImpl) recordRejectedTransition(ctx context.Context, c *domain.Case, action domain.CaseAction, actor domain.Actor, cause error, now time.Time) {
	entry := domain.AuditLogEntry{
		AuditID:     uuid.NewString(),
		EntityType:  domain.AuditEntityCase,
		EntityID:    c.CaseID,
		Action:      domain.AuditTransitionRejected,
		PerformedBy: actor.UserID,
		PerformedAt: now,
		Details: map[string]any{
			"attempted_action": action.String(),
			"current_status":   c.Status.String(),
			"reason":           cause.Error(),
		},
	}
	if err := s.auditRepo.AppendAudit(ctx, entry); err != nil {
		s.LogError(ctx, err, "Failed to record rejected transition",
			slog.String("case_id", c.CaseID),
			slog.String("attempted_action", action.String()))
	}
}

// CreateCase opens a new case in DRAFT. The category must be active; its
// account code is copied onto the case and never changes afterwards.
func (s *caseServiceImpl) CreateCase(ctx context.Context, req dto.CreateCaseRequest, actor domain.Actor) (*domain.Case, error) {
	if actor.Role != domain.RoleRequester && actor.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("role %s may not create cases: %w", actor.Role, apperrors.ErrForbidden)
	}
	fundingType := domain.FundingType(req.FundingType)
	if !fundingType.IsValid() {
		return nil, fmt.Errorf("unknown funding type %q: %w", req.FundingType, apperrors.ErrValidation)
	}
	if !req.RequestedAmount.IsPositive() {
		return nil, fmt.Errorf("requested amount must be positive: %w", apperrors.ErrValidation)
	}
	if strings.TrimSpace(req.Purpose) == "" {
		return nil, fmt.Errorf("purpose is required: %w", apperrors.ErrValidation)
	}

	category, err := s.categorySvc.GetActiveCategory(ctx, req.CategoryID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) && !errors.Is(err, apperrors.ErrValidation) {
			s.LogError(ctx, err, "Failed to resolve category for new case",
				slog.String("category_id", req.CategoryID))
		}
		return nil, fmt.Errorf("failed to resolve category %s: %w", req.CategoryID, err)
	}

	suffix, err := utils.GenerateSecureRandomString(caseNumberSuffixBytes)
	if err != nil {
		s.LogError(ctx, err, "Failed to generate case number suffix")
		return nil, fmt.Errorf("failed to generate case number: %w", err)
	}

	now := time.Now()
	newCase := domain.Case{
		CaseID:          uuid.NewString(),
		CaseNumber:      domain.FormatCaseNumber(now, suffix),
		CategoryID:      category.CategoryID,
		AccountCode:     category.AccountCode,
		RequesterID:     actor.UserID,
		Department:      req.Department,
		CostCenter:      req.CostCenter,
		FundingType:     fundingType,
		RequestedAmount: req.RequestedAmount,
		Purpose:         req.Purpose,
		Status:          domain.StatusDraft,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: actor.UserID,
		},
	}

	tx, err := s.caseRepo.Begin(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to begin transaction for case creation")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.caseRepo.Rollback(ctx, tx)

	if err := s.caseRepo.SaveCaseInTx(ctx, tx, newCase); err != nil {
		s.LogError(ctx, err, "Failed to save new case",
			slog.String("case_number", newCase.CaseNumber))
		return nil, fmt.Errorf("failed to save case: %w", err)
	}

	entry := domain.AuditLogEntry{
		AuditID:     uuid.NewString(),
		EntityType:  domain.AuditEntityCase,
		EntityID:    newCase.CaseID,
		Action:      domain.AuditCaseCreated,
		PerformedBy: actor.UserID,
		PerformedAt: now,
		Details: map[string]any{
			"case_number":      newCase.CaseNumber,
			"category_id":      newCase.CategoryID,
			"account_code":     newCase.AccountCode,
			"requested_amount": newCase.RequestedAmount.String(),
		},
	}
	if err := s.auditRepo.AppendAuditInTx(ctx, tx, entry); err != nil {
		s.LogError(ctx, err, "Failed to append audit entry for case creation",
			slog.String("case_id", newCase.CaseID))
		return nil, fmt.Errorf("failed to append audit entry: %w", err)
	}

	if err := s.caseRepo.Commit(ctx, tx); err != nil {
		s.LogError(ctx, err, "Failed to commit case creation",
			slog.String("case_id", newCase.CaseID))
		return nil, fmt.Errorf("failed to commit case creation: %w", err)
	}

	s.LogInfo(ctx, "Case created",
		slog.String("case_id", newCase.CaseID),
		slog.String("case_number", newCase.CaseNumber))
	return &newCase, nil
}

// UpdateCase edits the request fields of a case while it is still in DRAFT.
// CategoryID and AccountCode are frozen at creation and cannot be edited.
func (s *caseServiceImpl) UpdateCase(ctx context.Context, caseID string, req dto.UpdateCaseRequest, actor domain.Actor) (*domain.Case, error) {
	if req.RequestedAmount != nil && !req.RequestedAmount.IsPositive() {
		return nil, fmt.Errorf("requested amount must be positive: %w", apperrors.ErrValidation)
	}
	if req.Purpose != nil && strings.TrimSpace(*req.Purpose) == "" {
		return nil, fmt.Errorf("purpose cannot be emptied: %w", apperrors.ErrValidation)
	}
	if req.FundingType != nil && !domain.FundingType(*req.FundingType).IsValid() {
		return nil, fmt.Errorf("unknown funding type %q: %w", *req.FundingType, apperrors.ErrValidation)
	}

	tx, err := s.caseRepo.Begin(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to begin transaction for case update",
			slog.String("case_id", caseID))
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.caseRepo.Rollback(ctx, tx)

	locked, err := s.caseRepo.FindCaseByIDForUpdate(ctx, tx, caseID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to lock case for update",
				slog.String("case_id", caseID))
		}
		return nil, fmt.Errorf("failed to lock case %s: %w", caseID, err)
	}

	ownerEditing := actor.Role == domain.RoleRequester && locked.RequesterID == actor.UserID
	if actor.Role != domain.RoleAdmin && !ownerEditing {
		return nil, fmt.Errorf("user %s may not edit case %s: %w", actor.UserID, caseID, apperrors.ErrForbidden)
	}
	if locked.Status != domain.StatusDraft {
		return nil, fmt.Errorf("case %s is %s, only DRAFT cases are editable: %w", caseID, locked.Status, apperrors.ErrConflict)
	}

	updated := false
	if req.Department != nil {
		locked.Department = *req.Department
		updated = true
	}
	if req.CostCenter != nil {
		locked.CostCenter = *req.CostCenter
		updated = true
	}
	if req.FundingType != nil {
		locked.FundingType = domain.FundingType(*req.FundingType)
		updated = true
	}
	if req.RequestedAmount != nil {
		locked.RequestedAmount = *req.RequestedAmount
		updated = true
	}
	if req.Purpose != nil {
		locked.Purpose = *req.Purpose
		updated = true
	}
	if !updated {
		return locked, nil
	}

	now := time.Now()
	locked.LastUpdatedAt = now
	locked.LastUpdatedBy = actor.UserID

	if err := s.caseRepo.UpdateCaseDetailsInTx(ctx, tx, *locked); err != nil {
		s.LogError(ctx, err, "Failed to update case details",
			slog.String("case_id", caseID))
		return nil, fmt.Errorf("failed to update case %s: %w", caseID, err)
	}

	entry := domain.AuditLogEntry{
		AuditID:     uuid.NewString(),
		EntityType:  domain.AuditEntityCase,
		EntityID:    caseID,
		Action:      domain.AuditCaseUpdated,
		PerformedBy: actor.UserID,
		PerformedAt: now,
	}
	if err := s.auditRepo.AppendAuditInTx(ctx, tx, entry); err != nil {
		s.LogError(ctx, err, "Failed to append audit entry for case update",
			slog.String("case_id", caseID))
		return nil, fmt.Errorf("failed to append audit entry: %w", err)
	}

	if err := s.caseRepo.Commit(ctx, tx); err != nil {
		s.LogError(ctx, err, "Failed to commit case update",
			slog.String("case_id", caseID))
		return nil, fmt.Errorf("failed to commit case update: %w", err)
	}

	return locked, nil
}

// SubmitCase moves a DRAFT case to SUBMITTED.
func (s *caseServiceImpl) SubmitCase(ctx context.Context, caseID string, actor domain.Actor) (*domain.Case, error) {
	c, _, err := s.runTransition(ctx, caseID, domain.ActionSubmit, actor, nil, nil)
	return c, err
}

// ApproveCase approves a SUBMITTED case. The PS document is issued for the
// requested amount inside the same transaction.
func (s *caseServiceImpl) ApproveCase(ctx context.Context, caseID string, actor domain.Actor) (*domain.Case, *domain.Document, error) {
	effect := func(ctx context.Context, tx pgx.Tx, locked *domain.Case, now time.Time) (*transitionOutcome, error) {
		doc, err := s.issuer.Issue(ctx, tx, locked.CaseID, domain.DocTypePS, locked.RequestedAmount, actor.UserID, now)
		if err != nil {
			s.LogError(ctx, err, "Failed to issue PS document",
				slog.String("case_id", locked.CaseID))
			return nil, err
		}
		return &transitionOutcome{
			document: doc,
			details: map[string]any{
				"document_id": doc.DocumentID,
				"doc_number":  doc.DocNumber,
			},
		}, nil
	}

	c, outcome, err := s.runTransition(ctx, caseID, domain.ActionApprovePS, actor, nil, effect)
	if err != nil {
		return nil, nil, err
	}
	return c, outcome.document, nil
}

// RejectCase rejects a SUBMITTED case. The reason, when given, is persisted
// on the case and recorded in the audit entry.
func (s *caseServiceImpl) RejectCase(ctx context.Context, caseID string, reason string, actor domain.Actor) (*domain.Case, error) {
	var rejectReason *string
	var effect sideEffect
	if reason != "" {
		rejectReason = &reason
		effect = func(ctx context.Context, tx pgx.Tx, locked *domain.Case, now time.Time) (*transitionOutcome, error) {
			return &transitionOutcome{details: map[string]any{"reason": reason}}, nil
		}
	}

	c, _, err := s.runTransition(ctx, caseID, domain.ActionRejectPS, actor, rejectReason, effect)
	return c, err
}

// IssueCR issues the cash requisition for a PS_APPROVED case. A nil amount
// defaults to the case's requested amount.
func (s *caseServiceImpl) IssueCR(ctx context.Context, caseID string, amount *decimal.Decimal, actor domain.Actor) (*domain.Case, *domain.Document, error) {
	if amount != nil && !amount.IsPositive() {
		return nil, nil, fmt.Errorf("requisition amount must be positive: %w", apperrors.ErrValidation)
	}

	effect := func(ctx context.Context, tx pgx.Tx, locked *domain.Case, now time.Time) (*transitionOutcome, error) {
		crAmount := locked.RequestedAmount
		if amount != nil {
			crAmount = *amount
		}
		doc, err := s.issuer.Issue(ctx, tx, locked.CaseID, domain.DocTypeCR, crAmount, actor.UserID, now)
		if err != nil {
			s.LogError(ctx, err, "Failed to issue CR document",
				slog.String("case_id", locked.CaseID))
			return nil, err
		}
		return &transitionOutcome{
			document: doc,
			details: map[string]any{
				"document_id": doc.DocumentID,
				"doc_number":  doc.DocNumber,
				"amount":      doc.Amount.String(),
			},
		}, nil
	}

	c, outcome, err := s.runTransition(ctx, caseID, domain.ActionIssueCR, actor, nil, effect)
	if err != nil {
		return nil, nil, err
	}
	return c, outcome.document, nil
}

// DisburseCase records the DISBURSE payment against a CR_ISSUED case and
// moves it to PAID.
func (s *caseServiceImpl) DisburseCase(ctx context.Context, caseID string, amount decimal.Decimal, referenceNo string, actor domain.Actor) (*domain.Case, *domain.Payment, error) {
	if !amount.IsPositive() {
		return nil, nil, fmt.Errorf("disbursement amount must be positive: %w", apperrors.ErrValidation)
	}

	effect := func(ctx context.Context, tx pgx.Tx, locked *domain.Case, now time.Time) (*transitionOutcome, error) {
		payment := domain.Payment{
			PaymentID:   uuid.NewString(),
			CaseID:      locked.CaseID,
			PaymentType: domain.PaymentDisburse,
			Amount:      amount,
			ReferenceNo: referenceNo,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     actor.UserID,
				LastUpdatedAt: now,
				LastUpdatedBy: actor.UserID,
			},
		}
		if err := s.paymentRepo.SavePaymentInTx(ctx, tx, payment); err != nil {
			s.LogError(ctx, err, "Failed to record disbursement payment",
				slog.String("case_id", locked.CaseID))
			return nil, fmt.Errorf("failed to record disbursement: %w", err)
		}
		return &transitionOutcome{
			payment: &payment,
			details: map[string]any{
				"payment_id": payment.PaymentID,
				"amount":     payment.Amount.String(),
			},
		}, nil
	}

	c, outcome, err := s.runTransition(ctx, caseID, domain.ActionDisburse, actor, nil, effect)
	if err != nil {
		return nil, nil, err
	}
	return c, outcome.payment, nil
}

// SubmitSettlement moves a PAID case to SETTLEMENT_SUBMITTED.
func (s *caseServiceImpl) SubmitSettlement(ctx context.Context, caseID string, actor domain.Actor) (*domain.Case, error) {
	c, _, err := s.runTransition(ctx, caseID, domain.ActionSubmitSettlement, actor, nil, nil)
	return c, err
}

// IssueDB issues the disbursement bill carrying the actual settled amount.
func (s *caseServiceImpl) IssueDB(ctx context.Context, caseID string, amount decimal.Decimal, actor domain.Actor) (*domain.Case, *domain.Document, error) {
	if !amount.IsPositive() {
		return nil, nil, fmt.Errorf("settlement amount must be positive: %w", apperrors.ErrValidation)
	}

	effect := func(ctx context.Context, tx pgx.Tx, locked *domain.Case, now time.Time) (*transitionOutcome, error) {
		doc, err := s.issuer.Issue(ctx, tx, locked.CaseID, domain.DocTypeDB, amount, actor.UserID, now)
		if err != nil {
			s.LogError(ctx, err, "Failed to issue DB document",
				slog.String("case_id", locked.CaseID))
			return nil, err
		}
		return &transitionOutcome{
			document: doc,
			details: map[string]any{
				"document_id": doc.DocumentID,
				"doc_number":  doc.DocNumber,
				"amount":      doc.Amount.String(),
			},
		}, nil
	}

	c, outcome, err := s.runTransition(ctx, caseID, domain.ActionIssueDB, actor, nil, effect)
	if err != nil {
		return nil, nil, err
	}
	return c, outcome.document, nil
}

// CloseCase closes a DB_ISSUED case.
func (s *caseServiceImpl) CloseCase(ctx context.Context, caseID string, actor domain.Actor) (*domain.Case, error) {
	c, _, err := s.runTransition(ctx, caseID, domain.ActionClose, actor, nil, nil)
	return c, err
}

// CancelCase cancels a DRAFT or SUBMITTED case. The reason, when given, is
// recorded in the audit entry only; the case keeps no cancel reason column.
func (s *caseServiceImpl) CancelCase(ctx context.Context, caseID string, reason string, actor domain.Actor) (*domain.Case, error) {
	var effect sideEffect
	if reason != "" {
		effect = func(ctx context.Context, tx pgx.Tx, locked *domain.Case, now time.Time) (*transitionOutcome, error) {
			return &transitionOutcome{details: map[string]any{"reason": reason}}, nil
		}
	}

	c, _, err := s.runTransition(ctx, caseID, domain.ActionCancel, actor, nil, effect)
	return c, err
}

// GetCaseByID retrieves a case. Requesters see only their own cases.
func (s *caseServiceImpl) GetCaseByID(ctx context.Context, caseID string, actor domain.Actor) (*domain.Case, error) {
	c, err := s.caseRepo.FindCaseByID(ctx, caseID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find case by ID",
				slog.String("case_id", caseID))
		}
		return nil, fmt.Errorf("failed to find case %s: %w", caseID, err)
	}
	if !actorMayAccessCase(actor, c) {
		return nil, fmt.Errorf("user %s may not view case %s: %w", actor.UserID, caseID, apperrors.ErrForbidden)
	}
	return c, nil
}

// GetCaseDetail retrieves a case with its documents, payments, attachments
// and the settlement variance (nil until both CR and DB exist).
func (s *caseServiceImpl) GetCaseDetail(ctx context.Context, caseID string, actor domain.Actor) (*dto.CaseDetailResponse, error) {
	c, err := s.GetCaseByID(ctx, caseID, actor)
	if err != nil {
		return nil, err
	}

	documents, err := s.documentRepo.FindDocumentsByCaseID(ctx, caseID)
	if err != nil {
		s.LogError(ctx, err, "Failed to fetch documents for case detail",
			slog.String("case_id", caseID))
		return nil, fmt.Errorf("failed to fetch documents for case %s: %w", caseID, err)
	}
	payments, err := s.paymentRepo.FindPaymentsByCaseID(ctx, caseID)
	if err != nil {
		s.LogError(ctx, err, "Failed to fetch payments for case detail",
			slog.String("case_id", caseID))
		return nil, fmt.Errorf("failed to fetch payments for case %s: %w", caseID, err)
	}
	attachments, err := s.attachmentRepo.FindAttachmentsByCaseID(ctx, caseID)
	if err != nil {
		s.LogError(ctx, err, "Failed to fetch attachments for case detail",
			slog.String("case_id", caseID))
		return nil, fmt.Errorf("failed to fetch attachments for case %s: %w", caseID, err)
	}

	var cr, db *domain.Document
	for i := range documents {
		switch documents[i].DocType {
		case domain.DocTypeCR:
			cr = &documents[i]
		case domain.DocTypeDB:
			db = &documents[i]
		}
	}
	variance := domain.ComputeVariance(cr, db)

	return &dto.CaseDetailResponse{
		Case:        dto.ToCaseResponse(c),
		Documents:   dto.ToDocumentResponses(documents),
		Payments:    dto.ToPaymentResponses(payments),
		Attachments: dto.ToAttachmentResponses(attachments),
		Variance:    dto.ToVarianceResponse(&variance),
	}, nil
}

// ListCases retrieves a token-paginated case list. Requesters are pinned to
// their own cases; other roles see everything.
func (s *caseServiceImpl) ListCases(ctx context.Context, actor domain.Actor, params dto.ListCasesParams) (*dto.ListCasesResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultCaseListLimit
	}
	if limit > maxCaseListLimit {
		limit = maxCaseListLimit
	}

	var status *domain.CaseStatus
	if params.Status != nil && *params.Status != "" {
		st := domain.CaseStatus(*params.Status)
		if !st.IsValid() {
			return nil, fmt.Errorf("unknown status %q: %w", *params.Status, apperrors.ErrValidation)
		}
		status = &st
	}

	var requesterID *string
	if actor.Role == domain.RoleRequester {
		uid := actor.UserID
		requesterID = &uid
	}

	cases, nextToken, err := s.caseRepo.ListCases(ctx, status, requesterID, limit, params.NextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list cases")
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}

	resp := dto.ToListCasesResponse(cases, nextToken)
	return &resp, nil
}

// GetCaseAudit retrieves the case's audit trail, newest first.
func (s *caseServiceImpl) GetCaseAudit(ctx context.Context, caseID string, actor domain.Actor) ([]domain.AuditLogEntry, error) {
	if _, err := s.GetCaseByID(ctx, caseID, actor); err != nil {
		return nil, err
	}

	entries, err := s.auditRepo.FindAuditByEntity(ctx, domain.AuditEntityCase, caseID)
	if err != nil {
		s.LogError(ctx, err, "Failed to fetch audit trail",
			slog.String("case_id", caseID))
		return nil, fmt.Errorf("failed to fetch audit trail for case %s: %w", caseID, err)
	}
	return entries, nil
}

// AddAttachment stores an attachment reference against a non-terminal case.
// The case row is locked so the add cannot race a closing transition.
func (s *caseServiceImpl) AddAttachment(ctx context.Context, caseID string, req dto.AddAttachmentRequest, actor domain.Actor) (*domain.Attachment, error) {
	if actor.Role == domain.RoleViewer {
		return nil, fmt.Errorf("role %s may not add attachments: %w", actor.Role, apperrors.ErrForbidden)
	}
	attachmentType := domain.AttachmentType(req.AttachmentType)
	if !attachmentType.IsValid() {
		return nil, fmt.Errorf("unknown attachment type %q: %w", req.AttachmentType, apperrors.ErrValidation)
	}

	tx, err := s.caseRepo.Begin(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to begin transaction for attachment",
			slog.String("case_id", caseID))
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.caseRepo.Rollback(ctx, tx)

	locked, err := s.caseRepo.FindCaseByIDForUpdate(ctx, tx, caseID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to lock case for attachment",
				slog.String("case_id", caseID))
		}
		return nil, fmt.Errorf("failed to lock case %s: %w", caseID, err)
	}
	if !actorMayAccessCase(actor, locked) {
		return nil, fmt.Errorf("user %s may not attach to case %s: %w", actor.UserID, caseID, apperrors.ErrForbidden)
	}
	if locked.Status.IsTerminal() {
		return nil, fmt.Errorf("case %s is %s, attachments are frozen on terminal cases: %w", caseID, locked.Status, apperrors.ErrConflict)
	}

	now := time.Now()
	attachment := domain.Attachment{
		AttachmentID:   uuid.NewString(),
		CaseID:         caseID,
		AttachmentType: attachmentType,
		StorageRef:     req.StorageRef,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: actor.UserID,
		},
	}
	if err := s.attachmentRepo.SaveAttachmentInTx(ctx, tx, attachment); err != nil {
		s.LogError(ctx, err, "Failed to save attachment",
			slog.String("case_id", caseID))
		return nil, fmt.Errorf("failed to save attachment: %w", err)
	}

	entry := domain.AuditLogEntry{
		AuditID:     uuid.NewString(),
		EntityType:  domain.AuditEntityCase,
		EntityID:    caseID,
		Action:      domain.AuditAttachmentAdded,
		PerformedBy: actor.UserID,
		PerformedAt: now,
		Details: map[string]any{
			"attachment_id":   attachment.AttachmentID,
			"attachment_type": string(attachment.AttachmentType),
			"storage_ref":     attachment.StorageRef,
		},
	}
	if err := s.auditRepo.AppendAuditInTx(ctx, tx, entry); err != nil {
		s.LogError(ctx, err, "Failed to append audit entry for attachment",
			slog.String("case_id", caseID))
		return nil, fmt.Errorf("failed to append audit entry: %w", err)
	}

	if err := s.caseRepo.Commit(ctx, tx); err != nil {
		s.LogError(ctx, err, "Failed to commit attachment",
			slog.String("case_id", caseID))
		return nil, fmt.Errorf("failed to commit attachment: %w", err)
	}

	return &attachment, nil
}

// RecordSettlementPayment records the REFUND or ADDITIONAL payment owed after
// settlement. The case must sit in DB_ISSUED; the payment type follows the
// variance sign and the amount must equal the absolute variance.
func (s *caseServiceImpl) RecordSettlementPayment(ctx context.Context, caseID string, req dto.RecordSettlementPaymentRequest, actor domain.Actor) (*domain.Payment, error) {
	if actor.Role != domain.RoleDisburser && actor.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("role %s may not record settlement payments: %w", actor.Role, apperrors.ErrForbidden)
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("settlement payment amount must be positive: %w", apperrors.ErrValidation)
	}

	tx, err := s.caseRepo.Begin(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to begin transaction for settlement payment",
			slog.String("case_id", caseID))
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.caseRepo.Rollback(ctx, tx)

	locked, err := s.caseRepo.FindCaseByIDForUpdate(ctx, tx, caseID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to lock case for settlement payment",
				slog.String("case_id", caseID))
		}
		return nil, fmt.Errorf("failed to lock case %s: %w", caseID, err)
	}
	if locked.Status != domain.StatusDBIssued {
		return nil, fmt.Errorf("case %s is %s, settlement payments require DB_ISSUED: %w", caseID, locked.Status, apperrors.ErrConflict)
	}

	existing, err := s.paymentRepo.FindPaymentsByCaseID(ctx, caseID)
	if err != nil {
		s.LogError(ctx, err, "Failed to fetch payments before settlement payment",
			slog.String("case_id", caseID))
		return nil, fmt.Errorf("failed to fetch payments for case %s: %w", caseID, err)
	}
	for _, p := range existing {
		if p.PaymentType != domain.PaymentDisburse {
			return nil, fmt.Errorf("settlement payment already recorded for case %s: %w", caseID, apperrors.ErrConflict)
		}
	}

	cr, err := s.documentRepo.FindDocumentByCaseAndType(ctx, caseID, domain.DocTypeCR)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to load CR document for settlement payment",
				slog.String("case_id", caseID))
		}
		return nil, fmt.Errorf("failed to load CR document for case %s: %w", caseID, err)
	}
	db, err := s.documentRepo.FindDocumentByCaseAndType(ctx, caseID, domain.DocTypeDB)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to load DB document for settlement payment",
				slog.String("case_id", caseID))
		}
		return nil, fmt.Errorf("failed to load DB document for case %s: %w", caseID, err)
	}

	variance := domain.ComputeVariance(cr, db)
	paymentType, due := variance.SettlementPaymentType()
	if !due {
		return nil, fmt.Errorf("case %s settled on the exact requisition amount, no payment is due: %w", caseID, apperrors.ErrValidation)
	}
	owed := variance.SettlementPaymentAmount()
	if !req.Amount.Equal(owed) {
		return nil, fmt.Errorf("settlement payment must equal the absolute variance %s, got %s: %w", owed.String(), req.Amount.String(), apperrors.ErrValidation)
	}

	now := time.Now()
	payment := domain.Payment{
		PaymentID:   uuid.NewString(),
		CaseID:      caseID,
		PaymentType: paymentType,
		Amount:      owed,
		ReferenceNo: req.ReferenceNo,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: actor.UserID,
		},
	}
	if err := s.paymentRepo.SavePaymentInTx(ctx, tx, payment); err != nil {
		s.LogError(ctx, err, "Failed to save settlement payment",
			slog.String("case_id", caseID))
		return nil, fmt.Errorf("failed to save settlement payment: %w", err)
	}

	entry := domain.AuditLogEntry{
		AuditID:     uuid.NewString(),
		EntityType:  domain.AuditEntityCase,
		EntityID:    caseID,
		Action:      domain.AuditSettlementPayment,
		PerformedBy: actor.UserID,
		PerformedAt: now,
		Details: map[string]any{
			"payment_id":   payment.PaymentID,
			"payment_type": string(payment.PaymentType),
			"amount":       payment.Amount.String(),
			"variance":     variance.Variance.String(),
		},
	}
	if err := s.auditRepo.AppendAuditInTx(ctx, tx, entry); err != nil {
		s.LogError(ctx, err, "Failed to append audit entry for settlement payment",
			slog.String("case_id", caseID))
		return nil, fmt.Errorf("failed to append audit entry: %w", err)
	}

	if err := s.caseRepo.Commit(ctx, tx); err != nil {
		s.LogError(ctx, err, "Failed to commit settlement payment",
			slog.String("case_id", caseID))
		return nil, fmt.Errorf("failed to commit settlement payment: %w", err)
	}

	s.LogInfo(ctx, "Settlement payment recorded",
		slog.String("case_id", caseID),
		slog.String("payment_type", string(payment.PaymentType)),
		slog.String("amount", payment.Amount.String()))
	return &payment, nil
}
