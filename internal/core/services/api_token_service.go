package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/prtsw/caseflow_backend/internal/apperrors"
	"github.com/prtsw/caseflow_backend/internal/core/domain"
	portsrepo "github.com/prtsw/caseflow_backend/internal/core/ports/repositories"
	portssvc "github.com/prtsw/caseflow_backend/internal/core/ports/services"
)

// apiTokenService implements the APITokenSvc interface. API tokens let
// machine collaborators, above all the document renderer posting back
// content references, authenticate without a browser login.
type apiTokenService struct {
	BaseService
	tokenRepo portsrepo.APITokenRepository
	userSvc   portssvc.UserSvcFacade
}

// NewAPITokenService creates a new instance of apiTokenService
func NewAPITokenService(tokenRepo portsrepo.APITokenRepository, userSvc portssvc.UserSvcFacade) portssvc.APITokenSvc {
	return &apiTokenService{
		tokenRepo: tokenRepo,
		userSvc:   userSvc,
	}
}

// Ensure apiTokenService implements the portssvc.APITokenSvc interface
var _ portssvc.APITokenSvc = (*apiTokenService)(nil)

// CreateToken generates a new API token for the user. The plaintext token is
// returned exactly once; only its hash is stored.
func (s *apiTokenService) CreateToken(ctx context.Context, userID, name string, expiresIn *time.Duration) (string, *domain.APIToken, error) {
	if userID == "" {
		return "", nil, errors.New("user ID is required")
	}
	if name == "" {
		return "", nil, errors.New("token name is required")
	}

	token, err := generateSecureToken(32) // 32 bytes = 256 bits
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	var expiresAt *time.Time
	if expiresIn != nil {
		expiry := time.Now().Add(*expiresIn)
		expiresAt = &expiry
	}

	now := time.Now()
	apiToken := &domain.APIToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		TokenHash: hashAPIToken(token),
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.tokenRepo.Create(ctx, apiToken); err != nil {
		s.LogError(ctx, err, "Failed to save API token",
			slog.String("user_id", userID))
		return "", nil, fmt.Errorf("failed to save token: %w", err)
	}

	return token, apiToken, nil
}

// ListTokens returns all API tokens issued by a user.
func (s *apiTokenService) ListTokens(ctx context.Context, userID string) ([]domain.APIToken, error) {
	if userID == "" {
		return nil, errors.New("user ID is required")
	}

	tokens, err := s.tokenRepo.FindByUserID(ctx, userID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list API tokens",
			slog.String("user_id", userID))
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	if tokens == nil {
		tokens = []domain.APIToken{}
	}
	return tokens, nil
}

// RevokeToken revokes a specific API token. The row stays behind for audit;
// revoking an already revoked token is a no-op.
func (s *apiTokenService) RevokeToken(ctx context.Context, userID, tokenID string) error {
	if userID == "" || tokenID == "" {
		return errors.New("user ID and token ID are required")
	}

	token, err := s.tokenRepo.FindByID(ctx, tokenID)
	if err != nil {
		return fmt.Errorf("failed to find token: %w", err)
	}
	if token.UserID != userID {
		// Obscure existence of other users' tokens.
		return fmt.Errorf("token %s not found: %w", tokenID, apperrors.ErrNotFound)
	}
	if token.IsRevoked() {
		return nil
	}

	if err := s.tokenRepo.Revoke(ctx, tokenID, time.Now()); err != nil {
		s.LogError(ctx, err, "Failed to revoke API token",
			slog.String("token_id", tokenID))
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	return nil
}

// ValidateToken checks a presented token and returns the issuing user. All
// failure modes collapse into ErrUnauthorized.
func (s *apiTokenService) ValidateToken(ctx context.Context, tokenString string) (*domain.User, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("token is required: %w", apperrors.ErrUnauthorized)
	}

	token, err := s.tokenRepo.FindByTokenHash(ctx, hashAPIToken(tokenString))
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to look up API token")
			return nil, fmt.Errorf("failed to validate token: %w", err)
		}
		return nil, fmt.Errorf("invalid token: %w", apperrors.ErrUnauthorized)
	}

	if token.IsRevoked() {
		return nil, fmt.Errorf("token revoked: %w", apperrors.ErrUnauthorized)
	}
	if token.IsExpired() {
		return nil, fmt.Errorf("token expired: %w", apperrors.ErrUnauthorized)
	}

	token.UpdateLastUsed()
	if err := s.tokenRepo.Update(ctx, token); err != nil {
		// Validation still succeeds; the timestamp is best effort.
		s.LogWarn(ctx, "Failed to update API token last-used timestamp",
			slog.String("token_id", token.ID),
			slog.String("error", err.Error()))
	}

	user, err := s.userSvc.GetUserByID(ctx, token.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user for token: %w", err)
	}
	if user.IsDisabled() {
		return nil, fmt.Errorf("issuing user disabled: %w", apperrors.ErrUnauthorized)
	}

	return user, nil
}

// hashAPIToken produces the deterministic SHA256 digest stored and looked up
// for API tokens.
func hashAPIToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// generateSecureToken generates a secure random token with a recognizable prefix.
func generateSecureToken(length int) (string, error) {
	b := make([]byte, length)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	// URL-safe base64 without padding
	return "cfb_" + base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(b), nil
}
