package handlers

import (
	"log/slog"
	"net/http"

	"github.com/prtsw/caseflow_backend/internal/core/domain"
	portssvc "github.com/prtsw/caseflow_backend/internal/core/ports/services"
	"github.com/prtsw/caseflow_backend/internal/dto"
	"github.com/prtsw/caseflow_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// documentHandler handles HTTP requests for controlled documents.
type documentHandler struct {
	documentService portssvc.DocumentSvcFacade
}

// newDocumentHandler creates a new documentHandler.
func newDocumentHandler(ds portssvc.DocumentSvcFacade) *documentHandler {
	return &documentHandler{
		documentService: ds,
	}
}

// registerDocumentRoutes registers document routes. The content-ref callback
// is restricted to issuers and admins; the renderer authenticates with an API
// token minted by one of those users.
func registerDocumentRoutes(rg *gin.RouterGroup, documentService portssvc.DocumentSvcFacade) {
	h := newDocumentHandler(documentService)

	documents := rg.Group("/documents")
	{
		documents.GET("/:documentID", h.getDocument)
		documents.PATCH("/:documentID/content-ref",
			middleware.RequireRoles(domain.RoleIssuer, domain.RoleAdmin),
			h.updateContentRef,
		)
	}
}

// getDocument godoc
// @Summary Get a controlled document
// @Description Returns a single PS, CR or DB document by ID.
// @Tags documents
// @Produce json
// @Param documentID path string true "Document ID"
// @Success 200 {object} dto.DocumentResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Document not found"
// @Security BearerAuth
// @Router /documents/{documentID} [get]
func (h *documentHandler) getDocument(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	documentID := c.Param("documentID")

	doc, err := h.documentService.GetDocumentByID(c.Request.Context(), documentID)
	if err != nil {
		respondError(c, logger, err, "Failed to get document")
		return
	}

	c.JSON(http.StatusOK, dto.ToDocumentResponse(doc))
}

// updateContentRef godoc
// @Summary Attach a rendered artifact to a document
// @Description Stores the storage reference of the rendered PDF for an issued document. Called by the rendering pipeline after issuance; idempotent per reference.
// @Tags documents
// @Accept json
// @Produce json
// @Param documentID path string true "Document ID"
// @Param payload body dto.UpdateContentRefRequest true "Storage reference of the rendered artifact"
// @Success 200 {object} dto.DocumentResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Issuer or admin role required"
// @Failure 404 {object} map[string]string "Document not found"
// @Security BearerAuth
// @Router /documents/{documentID}/content-ref [patch]
func (h *documentHandler) updateContentRef(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	documentID := c.Param("documentID")

	var req dto.UpdateContentRefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateContentRef", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor, ok := requireActor(c, logger)
	if !ok {
		return
	}

	doc, err := h.documentService.AttachContentRef(c.Request.Context(), documentID, req.ContentRef, actor.UserID)
	if err != nil {
		respondError(c, logger, err, "Failed to attach content reference")
		return
	}

	logger.Info("Document content reference attached",
		slog.String("document_id", documentID),
		slog.String("doc_number", doc.DocNumber),
	)
	c.JSON(http.StatusOK, dto.ToDocumentResponse(doc))
}
