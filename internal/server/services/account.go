// Package services contains server-side business logic. This file implements
// AccountService, which handles registration, credential verification, and
// issuing session tokens.
package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/keyfold/keyfold/internal/common"
	"github.com/keyfold/keyfold/internal/dbx"
	"github.com/keyfold/keyfold/internal/server/auth"
	"github.com/keyfold/keyfold/internal/server/hashing"
	"github.com/keyfold/keyfold/internal/server/models"
	"github.com/keyfold/keyfold/internal/server/repositories/repomanager"
)

// AccountService provides authentication-related operations:
// - Register: create accounts
// - Authenticate: verify credentials
// - Login: verify credentials and mint a session token
type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      *hashing.Hasher
	issuer      *auth.Issuer

	// decoyDigest is verified against when the account is absent, so a
	// lookup miss costs the same as a password mismatch.
	decoyDigest string
}

// NewAccountService constructs an AccountService using repositories, the
// credential hasher, and the token issuer.
func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, h *hashing.Hasher, i *auth.Issuer) (*AccountService, error) {
	decoy, err := h.Hash(uuid.NewString())
	if err != nil {
		return nil, err
	}
	return &AccountService{
		db:          db,
		repomanager: m,
		hasher:      h,
		issuer:      i,
		decoyDigest: decoy,
	}, nil
}

// normalizeEmail lowercases and trims an email for case-insensitive matching.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new active account. The email is checked before the
// username, so when both collide the caller sees ErrExistingEmail. The
// pre-checks and the insert run in one transaction; the database unique
// constraints remain the final authority (the repository translates a
// conflict into the same domain errors).
func (s *AccountService) Register(ctx context.Context, email, username, password string) (*models.Account, error) {
	email = normalizeEmail(email)

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, common.ErrorInternal
	}

	var account *models.Account
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Accounts(tx)

		if _, err := repo.FindByEmail(ctx, email); err == nil {
			return common.ErrExistingEmail
		} else if !errors.Is(err, common.ErrorNotFound) {
			return common.ErrorInternal
		}

		if _, err := repo.FindByUsername(ctx, username); err == nil {
			return common.ErrUsernameTaken
		} else if !errors.Is(err, common.ErrorNotFound) {
			return common.ErrorInternal
		}

		var createErr error
		account, createErr = repo.Create(ctx, &models.Account{
			ID:           uuid.NewString(),
			Email:        email,
			Username:     username,
			PasswordHash: passwordHash,
			IsActive:     true,
		})
		return createErr
	}); err != nil {
		return nil, err
	}

	return account, nil
}

// Authenticate verifies the email/password pair and returns the account.
// Every failure cause (unknown email, inactive account, wrong password)
// yields the same ErrInvalidCredentials, and the password digest comparison
// runs on all paths so the causes are not distinguishable by timing either.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*models.Account, error) {
	repo := s.repomanager.Accounts(s.db)

	account, err := repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.Verify(password, s.decoyDigest)
			return nil, common.ErrInvalidCredentials
		}
		return nil, common.ErrorInternal
	}

	ok := s.hasher.Verify(password, account.PasswordHash)
	if !ok || !account.IsActive {
		return nil, common.ErrInvalidCredentials
	}

	return account, nil
}

// Login verifies credentials and returns a signed session token carrying the
// account id. ErrInvalidCredentials propagates unchanged.
func (s *AccountService) Login(ctx context.Context, email, password string) (string, error) {
	account, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return "", err
	}

	token, err := s.issuer.Issue(account.ID)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}

// GetAccount returns the account with the given id, for callers resolving a
// validated session token back to an account.
func (s *AccountService) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	repo := s.repomanager.Accounts(s.db)

	account, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}
	return account, nil
}
