package accounts

import (
	"context"

	"github.com/keyfold/keyfold/internal/server/models"
)

// Repository is the account directory: exact-match lookups over normalized
// keys plus the write operations the services need. Lookups return
// common.ErrorNotFound when no account matches.
type Repository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByUsername(ctx context.Context, username string) (*models.Account, error)
	FindByID(ctx context.Context, id string) (*models.Account, error)
	UpdatePasswordHash(ctx context.Context, id string, passwordHash string) error
}
