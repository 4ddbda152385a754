// Package resettokens provides a PostgreSQL-backed repository for the
// one-time password-reset codes issued by the recovery flow.
package resettokens

import (
	"context"

	"github.com/keyfold/keyfold/internal/server/models"
)

// Repository manages reset-token rows. Rows are never mutated: new requests
// insert fresh rows, a successful reset bulk-deletes every row the account
// accumulated.
type Repository interface {
	Create(ctx context.Context, token *models.ResetToken) error
	FindLatestByAccount(ctx context.Context, accountID string) (*models.ResetToken, error)
	DeleteByAccount(ctx context.Context, accountID string) error
}
