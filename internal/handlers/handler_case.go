package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/prtsw/caseflow_backend/internal/apperrors"
	"github.com/prtsw/caseflow_backend/internal/core/domain"
	portssvc "github.com/prtsw/caseflow_backend/internal/core/ports/services"
	"github.com/prtsw/caseflow_backend/internal/dto"
	"github.com/prtsw/caseflow_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// caseHandler handles HTTP requests for spending cases and their workflow.
type caseHandler struct {
	caseService portssvc.CaseSvcFacade
}

// newCaseHandler creates a new caseHandler.
func newCaseHandler(cs portssvc.CaseSvcFacade) *caseHandler {
	return &caseHandler{
		caseService: cs,
	}
}

// RegisterCaseRoutes registers the case CRUD, workflow transition, attachment
// and audit routes.
func RegisterCaseRoutes(rg *gin.RouterGroup, caseService portssvc.CaseSvcFacade) {
	h := newCaseHandler(caseService)

	cases := rg.Group("/cases")
	{
		cases.POST("", h.createCase)
		cases.GET("", h.listCases)
		cases.GET("/:caseID", h.getCaseDetail)
		cases.PUT("/:caseID", h.updateCase)

		// Workflow transitions. Role enforcement lives in the workflow
		// service so rejected attempts are audited.
		cases.POST("/:caseID/submit", h.submitCase)
		cases.POST("/:caseID/approve", h.approveCase)
		cases.POST("/:caseID/reject", h.rejectCase)
		cases.POST("/:caseID/issue-cr", h.issueCR)
		cases.POST("/:caseID/disburse", h.disburseCase)
		cases.POST("/:caseID/submit-settlement", h.submitSettlement)
		cases.POST("/:caseID/issue-db", h.issueDB)
		cases.POST("/:caseID/close", h.closeCase)
		cases.POST("/:caseID/cancel", h.cancelCase)

		cases.POST("/:caseID/attachments", h.addAttachment)
		cases.GET("/:caseID/audit", h.getCaseAudit)
		cases.POST("/:caseID/settlement-payments", h.recordSettlementPayment)
	}
}

// requireActor resolves the authenticated actor from the context or writes a 401.
func requireActor(c *gin.Context, logger *slog.Logger) (domain.Actor, bool) {
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		logger.Error("Actor not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return domain.Actor{}, false
	}
	return actor, true
}

// respondError maps service errors onto HTTP responses. AppErrors carry their
// own status code and user-facing message; bare sentinels map by kind;
// anything else becomes a 500 with the fallback message.
func respondError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Code >= http.StatusInternalServerError {
			logger.Error(fallback, slog.String("error", err.Error()))
		}
		c.JSON(appErr.Code, gin.H{"error": appErr.Message})
		return
	}

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	case errors.Is(err, apperrors.ErrInvalidTransition),
		errors.Is(err, apperrors.ErrDuplicate),
		errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrBusy):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Case is locked by another operation, try again"})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	default:
		logger.Error(fallback, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// createCase godoc
// @Summary Create a new spending case
// @Description Opens a new case in DRAFT, freezing the category's account code into it.
// @Tags cases
// @Accept json
// @Produce json
// @Param case body dto.CreateCaseRequest true "Case details"
// @Success 201 {object} dto.CaseResponse
// @Failure 400 {object} map[string]string "Invalid input or inactive category"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Role may not create cases"
// @Failure 404 {object} map[string]string "Category not found"
// @Security BearerAuth
// @Router /cases [post]
func (h *caseHandler) createCase(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateCase", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor, ok := requireActor(c, logger)
	if !ok {
		return
	}

	newCase, err := h.caseService.CreateCase(c.Request.Context(), req, actor)
	if err != nil {
		respondError(c, logger, err, "Failed to create case")
		return
	}

	logger.Info("Case created", slog.String("case_id", newCase.CaseID), slog.String("case_number", newCase.CaseNumber))
	c.JSON(http.StatusCreated, dto.ToCaseResponse(newCase))
}

// listCases godoc
// @Summary List spending cases
// @Description Returns a token-paginated list of cases, newest first. Requesters see only their own cases; other roles see all. Optional status filter.
// @Tags cases
// @Produce json
// @Param status query string false "Filter by case status"
// @Param limit query int false "Page size (default 20, max 100)"
// @Param nextToken query string false "Pagination token from a previous response"
// @Success 200 {object} dto.ListCasesResponse
// @Failure 400 {object} map[string]string "Invalid parameters or pagination token"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /cases [get]
func (h *caseHandler) listCases(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListCasesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for ListCases", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	actor, ok := requireActor(c, logger)
	if !ok {
		return
	}

	resp, err := h.caseService.ListCases(c.Request.Context(), actor, params)
	if err != nil {
		respondError(c, logger, err, "Failed to list cases")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// getCaseDetail godoc
// @Summary Get case detail
// @Description Returns the case with its documents, payments, attachments and settlement variance. The variance is null until both CR and DB documents exist.
// @Tags cases
// @Produce json
// @Param caseID path string true "Case ID"
// @Success 200 {object} dto.CaseDetailResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Case not found"
// @Security BearerAuth
// @Router /cases/{caseID} [get]
func (h *caseHandler) getCaseDetail(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	caseID := c.Param("caseID")

	actor, ok := requireActor(c, logger)
	if !ok {
		return
	}

	detail, err := h.caseService.GetCaseDetail(c.Request.Context(), caseID, actor)
	if err != nil {
		respondError(c, logger, err, "Failed to get case detail")
		return
	}

	c.JSON(http.StatusOK, detail)
}

// updateCase godoc
// @Summary Update a draft case
// @Description Edits the request fields of a case while it is still in DRAFT. Category and account code stay frozen. Owner or ADMIN only.
// @Tags cases
// @Accept json
// @Produce json
// @Param caseID path string true "Case ID"
// @Param case body dto.UpdateCaseRequest true "Fields to update"
// @Success 200 {object} dto.CaseResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Not the owner"
// @Failure 404 {object} map[string]string "Case not found"
// @Failure 409 {object} map[string]string "Case is no longer in DRAFT"
// @Security BearerAuth
// @Router /cases/{caseID} [put]
func (h *caseHandler) updateCase(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	caseID := c.Param("caseID")

	var req dto.UpdateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateCase", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor, ok := requireActor(c, logger)
	if !ok {
		return
	}

	updated, err := h.caseService.UpdateCase(c.Request.Context(), caseID, req, actor)
	if err != nil {
		respondError(c, logger, err, "Failed to update case")
		return
	}

	c.JSON(http.StatusOK, dto.ToCaseResponse(updated))
}

// submitCase godoc
// @Summary Submit a case for approval
// @Description Moves a DRAFT case to SUBMITTED. Requester only.
// @Tags cases
// @Produce json
// @Param caseID path string true "Case ID"
// @Success 200 {object} dto.TransitionResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Role may not submit"
// @Failure 404 {object} map[string]string "Case not found"
// @Failure 409 {object} map[string]string "Invalid transition"
// @Failure 503 {object} map[string]string "Case locked by another operation"
// @Security BearerAuth
// @Router /cases/{caseID}/submit [post]
func (h *caseHandler) submitCase(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	caseID := c.Param("caseID")

	actor, ok := requireActor(c, logger)
	if !ok {
		return
	}

	updated, err := h.caseService.SubmitCase(c.Request.Context(), caseID, actor)
	if err != nil {
		respondError(c, logger, err, "Failed to submit case")
		return
	}

	logger.Info("Case submitted", slog.String("case_id", caseID))
	c.JSON(http.StatusOK, dto.TransitionResponse{Case: dto.ToCaseResponse(updated)})
}

// approveCase godoc
// @Summary Approve a submitted case
// @Description Approves a SUBMITTED case and issues the PS document for the requested amount. Approver only.
// @Tags cases
// @Produce json
// @Param caseID path string true "Case ID"
// @Success 200 {object} dto.TransitionResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Role may not approve"
// @Failure 404 {object} map[string]string "Case not found"
// @Failure 409 {object} map[string]string "Invalid transition or duplicate document"
// @Failure 503 {object} map[string]string "Case locked by another operation"
// @Security BearerAuth
// @Router /cases/{caseID}/approve [post]
func (h *caseHandler) approveCase(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	caseID := c.Param("caseID")

	actor, ok := requireActor(c, logger)
	if !ok {
		return
	}

	updated, doc, err := h.caseService.ApproveCase(c.Request.Context(), caseID, actor)
	if err != nil {
		respondError(c, logger, err, "Failed to approve case")
		return
	}

	logger.Info("Case approved", slog.String("case_id", caseID), slog.String("doc_number", doc.DocNumber))
	resp := dto.TransitionResponse{Case: dto.ToCaseResponse(updated)}
	docResp := dto.ToDocumentResponse(doc)
	resp.Document = &docResp
	c.JSON(http.StatusOK, resp)
}

// rejectCase godoc
// @Summary Reject a submitted case
// @Description Rejects a SUBMITTED case, recording the optional reason. Approver only.
// @Tags cases
// @Accept json
// @Produce json
// @Param caseID path string true "Case ID"
// @Param reason body dto.RejectCaseRequest false "Rejection reason"
// @Success 200 {object} dto.TransitionResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Role may not reject"
// @Failure 404 {object} map[string]string "Case not found"
// @Failure 409 {object} map[string]string "Invalid transition"
// @Failure 503 {object} map[string]string "Case locked by another operation"
// @Security BearerAuth
// @Router /cases/{caseID}/reject [post]
func (h *caseHandler) rejectCase(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	caseID := c.Param("caseID")

	// Body is optional; an empty body means no reason given.
	var req dto.RejectCaseRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.Warn("Failed to bind JSON for RejectCase", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
			return
		}
	}

	actor, ok := requireActor(c, logger)
	if !ok {
		return
	}

	updated, err := h.caseService.RejectCase(c.Request.Context(), caseID, req.Reason, actor)
	if err != nil {
		respondError(c, logger, err, "Failed to reject case")
		return
	}

	logger.Info("Case rejected", slog.String("case_id", caseID))
	c.JSON(http.StatusOK, dto.TransitionResponse{Case: dto.ToCaseResponse(updated)})
}

// issueCR godoc
// @Summary Issue the cash requisition
// @Description Issues the CR document for a PS_APPROVED case. Amount defaults to the case's requested amount when omitted. Issuer only.
// @Tags cases
// @Accept json
// @Produce json
// @Param caseID path string true "Case ID"
// @Param payload body dto.IssueCRRequest false "Optional amount override"
// @Success 200 {object} dto.TransitionResponse
// @Failure 400 {object} map[string]string "Invalid amount"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Role may not issue"
// @Failure 404 {object} map[string]string "Case not found"
// @Failure 409 {object} map[string]string "Invalid transition or duplicate document"
// @Failure 503 {object} map[string]string "Case locked by another operation"
// @Security BearerAuth
// @Router /cases/{caseID}/issue-cr [post]
func (h *caseHandler) issueCR(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	caseID := c.Param("caseID")

	var req dto.IssueCRRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.Warn("Failed to bind JSON for IssueCR", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
			return
		}
	}

	actor, ok := requireActor(c, logger)
	if !ok {
		return
	}

	updated, doc, err := h.caseService.IssueCR(c.Request.Context(), caseID, req.Amount, actor)
	if err != nil {
		respondError(c, logger, err, "Failed to issue cash requisition")
		return
	}

	logger.Info("Cash requisition issued", slog.String("case_id", caseID), slog.String("doc_number", doc.DocNumber))
	resp := dto.TransitionResponse{Case: dto.ToCaseResponse(updated)}
	docResp := dto.ToDocumentResponse(doc)
	resp.Document = &docResp
	c.JSON(http.StatusOK, resp)
}

// disburseCase godoc
// @Summary Record the cash disbursement
// @Description Records the DISBURSE payment against a CR_ISSUED case and moves it to PAID. Disburser only.
// @Tags cases
// @Accept json
// @Produce json
// @Param caseID path string true "Case ID"
// @Param payload body dto.DisburseRequest true "Disbursed amount and optional reference"
// @Success 200 {object} dto.TransitionResponse
// @Failure 400 {object} map[string]string "Invalid amount"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Role may not disburse"
// @Failure 404 {object} map[string]string "Case not found"
// @Failure 409 {object} map[string]string "Invalid transition"
// @Failure 503 {object} map[string]string "Case locked by another operation"
// @Security BearerAuth
// @Router /cases/{caseID}/disburse [post]
func (h *caseHandler) disburseCase(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	caseID := c.Param("caseID")

	var req dto.DisburseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Disburse", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor, ok := requireActor(c, logger)
	if !ok {
		return
	}

	updated, payment, err := h.caseService.DisburseCase(c.Request.Context(), caseID, req.Amount, req.ReferenceNo, actor)
	if err != nil {
		respondError(c, logger, err, "Failed to disburse case")
		return
	}

	logger.Info("Case disbursed", slog.String("case_id", caseID), slog.String("payment_id", payment.PaymentID))
	resp := dto.TransitionResponse{Case: dto.ToCaseResponse(updated)}
	payResp := dto.ToPaymentResponse(payment)
	resp.Payment = &payResp
	c.JSON(http.StatusOK, resp)
}

// submitSettlement godoc
// @Summary Submit the settlement
// @Description Moves a PAID case to SETTLEMENT_SUBMITTED once the money has been spent and receipts gathered. Requester only.
// @Tags cases
// @Produce json
// @Param caseID path string true "Case ID"
// @Success 200 {object} dto.TransitionResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Role may not submit settlement"
// @Failure 404 {object} map[string]string "Case not found"
// @Failure 409 {object} map[string]string "Invalid transition"
// @Failure 503 {object} map[string]string "Case locked by another operation"
// @Security BearerAuth
// @Router /cases/{caseID}/submit-settlement [post]
func (h *caseHandler) submitSettlement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	caseID := c.Param("caseID")

	actor, ok := requireActor(c, logger)
	if !ok {
		return
	}

	updated, err := h.caseService.SubmitSettlement(c.Request.Context(), caseID, actor)
	if err != nil {
		respondError(c, logger, err, "Failed to submit settlement")
		return
	}

	logger.Info("Settlement submitted", slog.String("case_id", caseID))
	c.JSON(http.StatusOK, dto.TransitionResponse{Case: dto.ToCaseResponse(updated)})
}

// issueDB godoc
// @Summary Issue the disbursement bill
// @Description Issues the DB document for the actual settled amount and moves the case to DB_ISSUED. Issuer only.
// @Tags cases
// @Accept json
// @Produce json
// @Param caseID path string true "Case ID"
// @Param payload body dto.IssueDBRequest true "Settled amount"
// @Success 200 {object} dto.TransitionResponse
// @Failure 400 {object} map[string]string "Invalid amount"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Role may not issue"
// @Failure 404 {object} map[string]string "Case not found"
// @Failure 409 {object} map[string]string "Invalid transition or duplicate document"
// @Failure 503 {object} map[string]string "Case locked by another operation"
// @Security BearerAuth
// @Router /cases/{caseID}/issue-db [post]
func (h *caseHandler) issueDB(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	caseID := c.Param("caseID")

	var req dto.IssueDBRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for IssueDB", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor, ok := requireActor(c, logger)
	if !ok {
		return
	}

	updated, doc, err := h.caseService.IssueDB(c.Request.Context(), caseID, req.Amount, actor)
	if err != nil {
		respondError(c, logger, err, "Failed to issue disbursement bill")
		return
	}

	logger.Info("Disbursement bill issued", slog.String("case_id", caseID), slog.String("doc_number", doc.DocNumber))
	resp := dto.TransitionResponse{Case: dto.ToCaseResponse(updated)}
	docResp := dto.ToDocumentResponse(doc)
	resp.Document = &docResp
	c.JSON(http.StatusOK, resp)
}

// closeCase godoc
// @Summary Close a settled case
// @Description Closes a DB_ISSUED case. Issuer or ADMIN.
// @Tags cases
// @Produce json
// @Param caseID path string true "Case ID"
// @Success 200 {object} dto.TransitionResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Role may not close"
// @Failure 404 {object} map[string]string "Case not found"
// @Failure 409 {object} map[string]string "Invalid transition"
// @Failure 503 {object} map[string]string "Case locked by another operation"
// @Security BearerAuth
// @Router /cases/{caseID}/close [post]
func (h *caseHandler) closeCase(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	caseID := c.Param("caseID")

	actor, ok := requireActor(c, logger)
	if !ok {
		return
	}

	updated, err := h.caseService.CloseCase(c.Request.Context(), caseID, actor)
	if err != nil {
		respondError(c, logger, err, "Failed to close case")
		return
	}

	logger.Info("Case closed", slog.String("case_id", caseID))
	c.JSON(http.StatusOK, dto.TransitionResponse{Case: dto.ToCaseResponse(updated)})
}

// cancelCase godoc
// @Summary Cancel a case
// @Description Cancels a DRAFT or SUBMITTED case, recording the optional reason. Owner or ADMIN.
// @Tags cases
// @Accept json
// @Produce json
// @Param caseID path string true "Case ID"
// @Param reason body dto.CancelCaseRequest false "Cancellation reason"
// @Success 200 {object} dto.TransitionResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Role may not cancel"
// @Failure 404 {object} map[string]string "Case not found"
// @Failure 409 {object} map[string]string "Invalid transition"
// @Failure 503 {object} map[string]string "Case locked by another operation"
// @Security BearerAuth
// @Router /cases/{caseID}/cancel [post]
func (h *caseHandler) cancelCase(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	caseID := c.Param("caseID")

	var req dto.CancelCaseRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.Warn("Failed to bind JSON for CancelCase", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
			return
		}
	}

	actor, ok := requireActor(c, logger)
	if !ok {
		return
	}

	updated, err := h.caseService.CancelCase(c.Request.Context(), caseID, req.Reason, actor)
	if err != nil {
		respondError(c, logger, err, "Failed to cancel case")
		return
	}

	logger.Info("Case cancelled", slog.String("case_id", caseID))
	c.JSON(http.StatusOK, dto.TransitionResponse{Case: dto.ToCaseResponse(updated)})
}

// addAttachment godoc
// @Summary Attach a stored artifact to a case
// @Description Stores an attachment reference (quote, receipt, invoice) against a non-terminal case. The blob itself lives with the external storage collaborator.
// @Tags cases
// @Accept json
// @Produce json
// @Param caseID path string true "Case ID"
// @Param attachment body dto.AddAttachmentRequest true "Attachment type and storage reference"
// @Success 201 {object} dto.AttachmentResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Case not found"
// @Failure 409 {object} map[string]string "Case is in a terminal status"
// @Security BearerAuth
// @Router /cases/{caseID}/attachments [post]
func (h *caseHandler) addAttachment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	caseID := c.Param("caseID")

	var req dto.AddAttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for AddAttachment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor, ok := requireActor(c, logger)
	if !ok {
		return
	}

	attachment, err := h.caseService.AddAttachment(c.Request.Context(), caseID, req, actor)
	if err != nil {
		respondError(c, logger, err, "Failed to add attachment")
		return
	}

	logger.Info("Attachment added", slog.String("case_id", caseID), slog.String("attachment_id", attachment.AttachmentID))
	c.JSON(http.StatusCreated, dto.ToAttachmentResponse(attachment))
}

// getCaseAudit godoc
// @Summary Get the case audit trail
// @Description Returns the case's audit entries, newest first, including rejected transition attempts.
// @Tags cases
// @Produce json
// @Param caseID path string true "Case ID"
// @Success 200 {object} dto.ListAuditResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Case not found"
// @Security BearerAuth
// @Router /cases/{caseID}/audit [get]
func (h *caseHandler) getCaseAudit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	caseID := c.Param("caseID")

	actor, ok := requireActor(c, logger)
	if !ok {
		return
	}

	entries, err := h.caseService.GetCaseAudit(c.Request.Context(), caseID, actor)
	if err != nil {
		respondError(c, logger, err, "Failed to get case audit")
		return
	}

	c.JSON(http.StatusOK, dto.ToListAuditResponse(entries))
}

// recordSettlementPayment godoc
// @Summary Record the post-settlement payment
// @Description Records the REFUND or ADDITIONAL payment for a DB_ISSUED case. The payment type is derived from the variance sign and the amount must equal the absolute variance. Disburser only.
// @Tags cases
// @Accept json
// @Produce json
// @Param caseID path string true "Case ID"
// @Param payment body dto.RecordSettlementPaymentRequest true "Payment amount and optional reference"
// @Success 201 {object} dto.PaymentResponse
// @Failure 400 {object} map[string]string "Amount does not match the variance, or no payment is due"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Role may not record settlement payments"
// @Failure 404 {object} map[string]string "Case not found"
// @Failure 409 {object} map[string]string "Case not in DB_ISSUED or payment already recorded"
// @Failure 503 {object} map[string]string "Case locked by another operation"
// @Security BearerAuth
// @Router /cases/{caseID}/settlement-payments [post]
func (h *caseHandler) recordSettlementPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	caseID := c.Param("caseID")

	var req dto.RecordSettlementPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RecordSettlementPayment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor, ok := requireActor(c, logger)
	if !ok {
		return
	}

	payment, err := h.caseService.RecordSettlementPayment(c.Request.Context(), caseID, req, actor)
	if err != nil {
		respondError(c, logger, err, "Failed to record settlement payment")
		return
	}

	logger.Info("Settlement payment recorded",
		slog.String("case_id", caseID),
		slog.String("payment_id", payment.PaymentID),
		slog.String("payment_type", string(payment.PaymentType)),
	)
	c.JSON(http.StatusCreated, dto.ToPaymentResponse(payment))
}
