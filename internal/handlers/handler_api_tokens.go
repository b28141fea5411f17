package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/prtsw/caseflow_backend/internal/core/ports/services"
	"github.com/prtsw/caseflow_backend/internal/dto"
	"github.com/prtsw/caseflow_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// apiTokenHandler handles self-service management of machine tokens. These
// tokens let non-browser callers, above all the document renderer, hit the
// API via the x-api-key header with the issuing user's role.
type apiTokenHandler struct {
	tokenService portssvc.APITokenSvc
}

// newAPITokenHandler creates a new apiTokenHandler.
func newAPITokenHandler(ts portssvc.APITokenSvc) *apiTokenHandler {
	return &apiTokenHandler{
		tokenService: ts,
	}
}

// registerAPITokenRoutes registers the machine-token routes under /users/me.
func registerAPITokenRoutes(rg *gin.RouterGroup, tokenService portssvc.APITokenSvc) {
	h := newAPITokenHandler(tokenService)

	tokens := rg.Group("/users/me/tokens")
	{
		tokens.POST("", h.createToken)
		tokens.GET("", h.listTokens)
		tokens.DELETE("/:tokenID", h.revokeToken)
	}
}

// createToken godoc
// @Summary Create a machine token
// @Description Mints a new API token for the authenticated user. The plaintext token is returned exactly once; only its hash is stored.
// @Tags api-tokens
// @Accept json
// @Produce json
// @Param token body dto.CreateAPITokenRequest true "Token name and optional expiry"
// @Success 201 {object} dto.CreateAPITokenResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /users/me/tokens [post]
func (h *apiTokenHandler) createToken(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateAPITokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateToken", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor, ok := requireActor(c, logger)
	if !ok {
		return
	}

	tokenString, token, err := h.tokenService.CreateToken(c.Request.Context(), actor.UserID, req.Name, req.ExpiresIn)
	if err != nil {
		respondError(c, logger, err, "Failed to create API token")
		return
	}

	logger.Info("API token created", slog.String("token_id", token.ID), slog.String("token_name", token.Name))
	c.JSON(http.StatusCreated, dto.CreateAPITokenResponse{
		TokenString: tokenString,
		Details:     dto.ToAPITokenResponse(*token),
	})
}

// listTokens godoc
// @Summary List the caller's machine tokens
// @Description Returns all of the authenticated user's API tokens, revoked ones included. Token values are never returned.
// @Tags api-tokens
// @Produce json
// @Success 200 {object} dto.ListAPITokensResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /users/me/tokens [get]
func (h *apiTokenHandler) listTokens(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	actor, ok := requireActor(c, logger)
	if !ok {
		return
	}

	tokens, err := h.tokenService.ListTokens(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, logger, err, "Failed to list API tokens")
		return
	}

	c.JSON(http.StatusOK, dto.ToListAPITokensResponse(tokens))
}

// revokeToken godoc
// @Summary Revoke a machine token
// @Description Soft-revokes one of the caller's API tokens. Revoked tokens fail validation immediately.
// @Tags api-tokens
// @Produce json
// @Param tokenID path string true "Token ID"
// @Success 204 "Token revoked"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Token not found"
// @Security BearerAuth
// @Router /users/me/tokens/{tokenID} [delete]
func (h *apiTokenHandler) revokeToken(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tokenID := c.Param("tokenID")

	actor, ok := requireActor(c, logger)
	if !ok {
		return
	}

	if err := h.tokenService.RevokeToken(c.Request.Context(), actor.UserID, tokenID); err != nil {
		respondError(c, logger, err, "Failed to revoke API token")
		return
	}

	logger.Info("API token revoked", slog.String("token_id", tokenID))
	c.Status(http.StatusNoContent)
}
