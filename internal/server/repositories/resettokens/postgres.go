package resettokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/keyfold/keyfold/internal/common"
	"github.com/keyfold/keyfold/internal/dbx"
	"github.com/keyfold/keyfold/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new reset-token row.
func (r *PostgresRepository) Create(ctx context.Context, token *models.ResetToken) error {
	query := `
		INSERT INTO password_reset_tokens (id, account_id, code_hash, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.ExecContext(ctx, query,
		token.ID, token.AccountID, token.CodeHash, token.CreatedAt, token.ExpiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// FindLatestByAccount returns the account's most recent reset token. The
// ordering is by expiry descending with creation time and id as stable
// tie-breaks, so duplicate expiries caused by clock skew still pick one row
// deterministically. If the account has no tokens, it returns
// common.ErrorNotFound.
func (r *PostgresRepository) FindLatestByAccount(ctx context.Context, accountID string) (*models.ResetToken, error) {
	query := `
		SELECT id, account_id, code_hash, created_at, expires_at
		FROM password_reset_tokens
		WHERE account_id = $1
		ORDER BY expires_at DESC, created_at DESC, id DESC
		LIMIT 1
	`
	token := &models.ResetToken{}
	err := r.db.QueryRowContext(ctx, query, accountID).
		Scan(&token.ID, &token.AccountID, &token.CodeHash, &token.CreatedAt, &token.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}

// DeleteByAccount removes every reset token belonging to the account.
func (r *PostgresRepository) DeleteByAccount(ctx context.Context, accountID string) error {
	query := `
		DELETE FROM password_reset_tokens
		WHERE account_id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, accountID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
