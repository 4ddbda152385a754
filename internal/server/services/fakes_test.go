package services

import (
	"context"
	"database/sql"
	"sort"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"golang.org/x/crypto/bcrypt"

	"github.com/keyfold/keyfold/internal/common"
	"github.com/keyfold/keyfold/internal/dbx"
	"github.com/keyfold/keyfold/internal/server/hashing"
	"github.com/keyfold/keyfold/internal/server/models"
	accountsrepo "github.com/keyfold/keyfold/internal/server/repositories/accounts"
	resettokensrepo "github.com/keyfold/keyfold/internal/server/repositories/resettokens"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func newTestHasher() *hashing.Hasher {
	return hashing.NewHasher(bcrypt.MinCost)
}

// memAccountsRepo is an in-memory accounts.Repository mirroring the database
// semantics the services rely on, unique email/username included.
type memAccountsRepo struct {
	byID map[string]*models.Account
}

func newMemAccountsRepo() *memAccountsRepo {
	return &memAccountsRepo{byID: map[string]*models.Account{}}
}

func (f *memAccountsRepo) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	for _, a := range f.byID {
		if a.Email == account.Email {
			return nil, common.ErrExistingEmail
		}
		if a.Username == account.Username {
			return nil, common.ErrUsernameTaken
		}
	}
	stored := *account
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	f.byID[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (f *memAccountsRepo) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	for _, a := range f.byID {
		if a.Email == email {
			out := *a
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *memAccountsRepo) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	for _, a := range f.byID {
		if a.Username == username {
			out := *a
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *memAccountsRepo) FindByID(ctx context.Context, id string) (*models.Account, error) {
	a, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *a
	return &out, nil
}

func (f *memAccountsRepo) UpdatePasswordHash(ctx context.Context, id string, passwordHash string) error {
	a, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	a.PasswordHash = passwordHash
	a.UpdatedAt = time.Now()
	return nil
}

// memResetTokensRepo is an in-memory resettokens.Repository with the same
// latest-by-expiry selection as the Postgres implementation.
type memResetTokensRepo struct {
	tokens []*models.ResetToken
}

func newMemResetTokensRepo() *memResetTokensRepo {
	return &memResetTokensRepo{}
}

func (f *memResetTokensRepo) Create(ctx context.Context, token *models.ResetToken) error {
	stored := *token
	f.tokens = append(f.tokens, &stored)
	return nil
}

func (f *memResetTokensRepo) FindLatestByAccount(ctx context.Context, accountID string) (*models.ResetToken, error) {
	var matching []*models.ResetToken
	for _, tok := range f.tokens {
		if tok.AccountID == accountID {
			matching = append(matching, tok)
		}
	}
	if len(matching) == 0 {
		return nil, common.ErrorNotFound
	}
	sort.Slice(matching, func(i, j int) bool {
		a, b := matching[i], matching[j]
		if !a.ExpiresAt.Equal(b.ExpiresAt) {
			return a.ExpiresAt.After(b.ExpiresAt)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	out := *matching[0]
	return &out, nil
}

func (f *memResetTokensRepo) DeleteByAccount(ctx context.Context, accountID string) error {
	kept := f.tokens[:0]
	for _, tok := range f.tokens {
		if tok.AccountID != accountID {
			kept = append(kept, tok)
		}
	}
	f.tokens = kept
	return nil
}

func (f *memResetTokensRepo) countForAccount(accountID string) int {
	n := 0
	for _, tok := range f.tokens {
		if tok.AccountID == accountID {
			n++
		}
	}
	return n
}

// fakeRepoManager hands out the in-memory repositories regardless of the
// DBTX it is given; the sqlmock DB still exercises the transaction
// boundaries around them.
type fakeRepoManager struct {
	accounts    *memAccountsRepo
	resetTokens *memResetTokensRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		accounts:    newMemAccountsRepo(),
		resetTokens: newMemResetTokensRepo(),
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *fakeRepoManager) Accounts(db dbx.DBTX) accountsrepo.Repository { return m.accounts }

func (m *fakeRepoManager) ResetTokens(db dbx.DBTX) resettokensrepo.Repository {
	return m.resetTokens
}
