package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prtsw/caseflow_backend/internal/apperrors"
	"github.com/prtsw/caseflow_backend/internal/core/domain"
	portssvc "github.com/prtsw/caseflow_backend/internal/core/ports/services"
	"github.com/prtsw/caseflow_backend/internal/dto"
	"github.com/prtsw/caseflow_backend/internal/middleware"
	"github.com/prtsw/caseflow_backend/internal/platform/config"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
)

// stateCookieName holds the CSRF state between the login redirect and the callback.
const stateCookieName = "oauth_state"

// googleOAuthHandler drives the Google sign-in redirect flow.
type googleOAuthHandler struct {
	googleOAuthService portssvc.GoogleOAuthHandlerSvcFacade
	userService        portssvc.UserSvcFacade
	tokenService       portssvc.TokenSvcFacade
	cfg                *config.Config
}

// newGoogleOAuthHandler creates a new googleOAuthHandler.
func newGoogleOAuthHandler(gs portssvc.GoogleOAuthHandlerSvcFacade, us portssvc.UserSvcFacade, ts portssvc.TokenSvcFacade, cfg *config.Config) *googleOAuthHandler {
	return &googleOAuthHandler{
		googleOAuthService: gs,
		userService:        us,
		tokenService:       ts,
		cfg:                cfg,
	}
}

// registerGoogleOAuthRoutes registers the Google sign-in routes on the public
// auth group. Both legs are unauthenticated; the CSRF state cookie ties them
// together.
func registerGoogleOAuthRoutes(public *gin.RouterGroup, cfg *config.Config, services *portssvc.ServiceContainer) {
	h := newGoogleOAuthHandler(services.GoogleOAuthHandler, services.User, services.TokenService, cfg)

	google := public.Group("/google")
	{
		google.GET("/login", h.loginGoogle)
		google.GET("/callback", h.callbackGoogle)
	}
}

// loginGoogle godoc
// @Summary Start Google sign-in
// @Description Generates a CSRF state, stores it in a short-lived cookie and redirects the browser to Google's consent screen.
// @Tags auth
// @Success 307 "Redirect to Google"
// @Failure 500 {object} map[string]string "Failed to generate state"
// @Router /auth/google/login [get]
func (h *googleOAuthHandler) loginGoogle(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	state, err := h.googleOAuthService.GenerateStateString(c.Request.Context())
	if err != nil {
		logger.Error("Failed to generate OAuth state", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start Google sign-in"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookieName, state, 600, "/api/v1/auth", "", h.cfg.IsProduction, true)

	loginURL := h.googleOAuthService.GetGoogleLoginURL(c.Request.Context(), state)
	c.Redirect(http.StatusTemporaryRedirect, loginURL)
}

// callbackGoogle godoc
// @Summary Google sign-in callback
// @Description Validates the CSRF state, exchanges the authorization code, verifies Google's ID token, provisions or resolves the user and issues application tokens. Redirects to the frontend with the access token in the URL fragment, or returns JSON when no frontend URL is configured.
// @Tags auth
// @Produce json
// @Param state query string true "CSRF state from the login redirect"
// @Param code query string true "Authorization code from Google"
// @Success 200 {object} dto.LoginResponse "JSON fallback when no frontend is configured"
// @Success 307 "Redirect to the frontend callback page"
// @Failure 400 {object} map[string]string "Missing code or state mismatch"
// @Failure 401 {object} map[string]string "Google token validation failed"
// @Failure 502 {object} map[string]string "Google did not return required data"
// @Router /auth/google/callback [get]
func (h *googleOAuthHandler) callbackGoogle(c *gin.Context) {
	ctx := c.Request.Context()
	logger := middleware.GetLoggerFromCtx(ctx)

	if errParam := c.Query("error"); errParam != "" {
		logger.Warn("Google sign-in denied", slog.String("error", errParam))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Google sign-in was denied: " + errParam})
		return
	}

	stateCookie, err := c.Cookie(stateCookieName)
	if err != nil || stateCookie == "" || c.Query("state") != stateCookie {
		logger.Warn("OAuth state mismatch")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid OAuth state"})
		return
	}
	// One-shot: the state cookie is spent either way.
	c.SetCookie(stateCookieName, "", -1, "/api/v1/auth", "", h.cfg.IsProduction, true)

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Authorization code is required"})
		return
	}

	oauth2Token, err := h.googleOAuthService.ExchangeCodeForToken(ctx, code)
	if err != nil {
		logger.Error("Failed to exchange authorization code with Google", slog.String("error", err.Error()))
		if strings.Contains(strings.ToLower(err.Error()), "invalid_grant") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired authorization code"})
			return
		}
		appErr := apperrors.NewGatewayTimeoutError("Failed to communicate with Google")
		c.JSON(appErr.Code, gin.H{"error": appErr.Message})
		return
	}

	info, err := h.userInfoFromToken(ctx, oauth2Token)
	if err != nil {
		logger.Error("Failed to resolve Google user info", slog.String("error", err.Error()))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Failed to verify Google identity"})
		return
	}

	user, err := h.userService.FindOrCreateUserByGoogleID(ctx, info)
	if err != nil {
		respondError(c, logger, err, "Failed to resolve user account")
		return
	}
	logger.Info("Google sign-in resolved", slog.String("user_id", user.UserID), slog.String("google_id", info.ID))

	accessToken, expiresAt, err := h.tokenService.GenerateAccessToken(ctx, user)
	if err != nil {
		logger.Error("Failed to generate access token", slog.String("error", err.Error()), slog.String("user_id", user.UserID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	refreshToken, refreshExpiresAt, err := h.tokenService.GenerateRefreshToken(ctx, user)
	if err != nil {
		logger.Error("Failed to generate refresh token", slog.String("error", err.Error()), slog.String("user_id", user.UserID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		h.cfg.RefreshTokenCookieName,
		refreshToken,
		int(time.Until(refreshExpiresAt).Seconds()),
		h.cfg.RefreshTokenCookiePath,
		"",
		h.cfg.IsProduction,
		true,
	)

	// Hand the browser back to the frontend with the access token in the URL
	// fragment; fragments never reach server logs. Without a frontend URL
	// (API-only deployments) respond with the usual login payload.
	if h.cfg.FrontendBaseURL != "" {
		fragment := url.Values{}
		fragment.Set("token", accessToken)
		fragment.Set("userID", user.UserID)
		fragment.Set("expiresAt", expiresAt.Format(time.RFC3339))
		c.Redirect(http.StatusTemporaryRedirect, h.cfg.FrontendBaseURL+"/auth/callback#"+fragment.Encode())
		return
	}

	c.JSON(http.StatusOK, dto.LoginResponse{
		Token:        accessToken,
		ExpiresAt:    expiresAt,
		RefreshToken: refreshToken,
		User:         dto.ToUserResponse(user),
	})
}

// userInfoFromToken extracts the Google identity from the token exchange.
// Preferred path is the ID token bundled with the exchange; when Google omits
// it the userinfo endpoint serves as fallback.
func (h *googleOAuthHandler) userInfoFromToken(ctx context.Context, oauth2Token *oauth2.Token) (*domain.GoogleUserInfo, error) {
	idTokenString, _ := oauth2Token.Extra("id_token").(string)
	if idTokenString == "" {
		return h.googleOAuthService.GetUserInfo(ctx, oauth2Token)
	}

	payload, err := h.googleOAuthService.ValidateGoogleIDToken(ctx, idTokenString)
	if err != nil {
		return nil, err
	}

	email, _ := payload.Claims["email"].(string)
	name, _ := payload.Claims["name"].(string)
	picture, _ := payload.Claims["picture"].(string)
	emailVerified, _ := payload.Claims["email_verified"].(bool)

	if payload.Subject == "" || email == "" {
		return nil, apperrors.NewInternalServerError("Essential claims missing from Google ID token")
	}

	return &domain.GoogleUserInfo{
		ID:            payload.Subject,
		Email:         email,
		VerifiedEmail: emailVerified,
		Name:          name,
		Picture:       picture,
	}, nil
}
