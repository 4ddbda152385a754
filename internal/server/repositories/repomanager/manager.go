package repomanager

import (
	"context"
	"database/sql"

	"github.com/keyfold/keyfold/internal/dbx"
	"github.com/keyfold/keyfold/internal/server/repositories/accounts"
	"github.com/keyfold/keyfold/internal/server/repositories/resettokens"
)

// RepositoryManager vends repositories bound to a DBTX so services can
// re-bind them to a transaction handle inside a unit of work.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	ResetTokens(db dbx.DBTX) resettokens.Repository
}
