package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prtsw/caseflow_backend/internal/apperrors"
	"github.com/prtsw/caseflow_backend/internal/core/domain"
	portsrepo "github.com/prtsw/caseflow_backend/internal/core/ports/repositories"
	"github.com/prtsw/caseflow_backend/internal/models"
	"github.com/prtsw/caseflow_backend/internal/utils/mapping"
)

type PgxAPITokenRepository struct {
	BaseRepository
}

// newPgxAPITokenRepository creates a new repository for API tokens.
func newPgxAPITokenRepository(pool *pgxpool.Pool) portsrepo.APITokenRepository {
	return &PgxAPITokenRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxAPITokenRepository implements portsrepo.APITokenRepository
var _ portsrepo.APITokenRepository = (*PgxAPITokenRepository)(nil)

const (
	selectAPITokenFields = `
		id, user_id, name, token_hash,
		last_used_at, expires_at, created_at, updated_at, revoked_at
	`

	insertAPITokenQuery = `
		INSERT INTO api_tokens (
			id, user_id, name, token_hash, expires_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	findAPITokenByIDQuery = `
		SELECT ` + selectAPITokenFields + `
		FROM api_tokens
		WHERE id = $1
	`

	findAPITokensByUserIDQuery = `
		SELECT ` + selectAPITokenFields + `
		FROM api_tokens
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	findAPITokenByHashQuery = `
		SELECT ` + selectAPITokenFields + `
		FROM api_tokens
		WHERE token_hash = $1
	`

	updateAPITokenQuery = `
		UPDATE api_tokens
		SET last_used_at = $2,
		    updated_at = $3
		WHERE id = $1
	`

	revokeAPITokenQuery = `
		UPDATE api_tokens
		SET revoked_at = $2,
		    updated_at = $2
		WHERE id = $1 AND revoked_at IS NULL
	`

	deleteExpiredAPITokensQuery = `
		DELETE FROM api_tokens
		WHERE expires_at IS NOT NULL AND expires_at < $1
	`
)

// scanAPIToken scans an api_tokens row in selectAPITokenFields order.
func scanAPIToken(row pgx.Row) (*models.APIToken, error) {
	var m models.APIToken
	err := row.Scan(
		&m.ID,
		&m.UserID,
		&m.Name,
		&m.TokenHash,
		&m.LastUsedAt,
		&m.ExpiresAt,
		&m.CreatedAt,
		&m.UpdatedAt,
		&m.RevokedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create persists a new API token. Only the hash of the issued token ever
// reaches this layer.
func (r *PgxAPITokenRepository) Create(ctx context.Context, token *domain.APIToken) error {
	if token == nil {
		return errors.New("token cannot be nil")
	}

	m := mapping.ToModelAPIToken(*token)
	_, err := r.Pool.Exec(ctx, insertAPITokenQuery,
		m.ID,
		m.UserID,
		m.Name,
		m.TokenHash,
		m.ExpiresAt,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert API token %s: %w", m.ID, err)
	}
	return nil
}

// FindByID retrieves an API token by its ID.
func (r *PgxAPITokenRepository) FindByID(ctx context.Context, id string) (*domain.APIToken, error) {
	m, err := scanAPIToken(r.Pool.QueryRow(ctx, findAPITokenByIDQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find API token by ID %s: %w", id, err)
	}
	domainToken := mapping.ToDomainAPIToken(*m)
	return &domainToken, nil
}

// FindByUserID retrieves all API tokens issued by a user, newest first.
// Revoked tokens are included so owners can see their full token history.
func (r *PgxAPITokenRepository) FindByUserID(ctx context.Context, userID string) ([]domain.APIToken, error) {
	rows, err := r.Pool.Query(ctx, findAPITokensByUserIDQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query API tokens for user %s: %w", userID, err)
	}
	defer rows.Close()

	modelTokens := []models.APIToken{}
	for rows.Next() {
		m, scanErr := scanAPIToken(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan API token row for user %s: %w", userID, scanErr)
		}
		modelTokens = append(modelTokens, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating API token rows for user %s: %w", userID, err)
	}

	return mapping.ToDomainAPITokenSlice(modelTokens), nil
}

// FindByTokenHash retrieves a token by the digest of its presented plaintext.
func (r *PgxAPITokenRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*domain.APIToken, error) {
	m, err := scanAPIToken(r.Pool.QueryRow(ctx, findAPITokenByHashQuery, tokenHash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find API token by hash: %w", err)
	}
	domainToken := mapping.ToDomainAPIToken(*m)
	return &domainToken, nil
}

// Update persists the mutable fields of a token, currently its last-used time.
func (r *PgxAPITokenRepository) Update(ctx context.Context, token *domain.APIToken) error {
	if token == nil {
		return errors.New("token cannot be nil")
	}

	m := mapping.ToModelAPIToken(*token)
	now := time.Now()

	cmdTag, err := r.Pool.Exec(ctx, updateAPITokenQuery, m.ID, m.LastUsedAt, now)
	if err != nil {
		return fmt.Errorf("failed to update API token %s: %w", m.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("API token " + m.ID + " not found for update")
	}

	token.UpdatedAt = now
	return nil
}

// Revoke marks a token revoked. The row stays behind for audit.
func (r *PgxAPITokenRepository) Revoke(ctx context.Context, id string, revokedAt time.Time) error {
	cmdTag, err := r.Pool.Exec(ctx, revokeAPITokenQuery, id, revokedAt)
	if err != nil {
		return fmt.Errorf("failed to revoke API token %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("API token " + id + " not found or already revoked")
	}
	return nil
}

// DeleteExpired removes tokens whose expiry has passed and reports how many
// were deleted. Revoked but unexpired tokens are kept.
func (r *PgxAPITokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	if before.IsZero() {
		return 0, errors.New("invalid time provided")
	}

	cmdTag, err := r.Pool.Exec(ctx, deleteExpiredAPITokensQuery, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired API tokens: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}
