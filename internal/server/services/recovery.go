package services

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/keyfold/keyfold/internal/common"
	"github.com/keyfold/keyfold/internal/dbx"
	"github.com/keyfold/keyfold/internal/server/hashing"
	"github.com/keyfold/keyfold/internal/server/models"
	"github.com/keyfold/keyfold/internal/server/repositories/accounts"
	"github.com/keyfold/keyfold/internal/server/repositories/repomanager"
	"github.com/keyfold/keyfold/internal/server/repositories/resettokens"
)

// resetCodeDigits is the fixed width of a reset code.
const resetCodeDigits = 6

// RecoveryService owns the password-reset lifecycle: request a one-time
// code, verify it, and consume it to set a new password. Codes are stored
// hashed and expire after a fixed window; a successful reset invalidates
// every outstanding code for the account, not just the one used.
type RecoveryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      *hashing.Hasher
	codeTTL     time.Duration

	// failOnUnknownEmail selects the unknown-email policy for RequestReset:
	// loud ErrorNotFound outside production, silent no-op in production.
	failOnUnknownEmail bool

	now func() time.Time
}

// NewRecoveryService constructs a RecoveryService. codeTTL is the reset-code
// validity window; failOnUnknownEmail should be false in production so that
// recovery requests cannot be used to enumerate accounts.
func NewRecoveryService(db *sql.DB, m repomanager.RepositoryManager, h *hashing.Hasher, codeTTL time.Duration, failOnUnknownEmail bool) *RecoveryService {
	return &RecoveryService{
		db:                 db,
		repomanager:        m,
		hasher:             h,
		codeTTL:            codeTTL,
		failOnUnknownEmail: failOnUnknownEmail,
		now:                time.Now,
	}
}

// generateCode returns a fixed-width numeric code from a cryptographically
// secure source.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", resetCodeDigits, n), nil
}

// RequestReset generates a one-time code for the account with the given
// email, persists its hash with an expiry of now+TTL, and returns the
// plaintext code for out-of-band delivery. The caller decides whether the
// code may ever be echoed back to a client. For an unknown email the service
// either fails with ErrorNotFound or silently returns an empty code,
// depending on the configured policy.
func (s *RecoveryService) RequestReset(ctx context.Context, email string) (string, error) {
	account, err := s.repomanager.Accounts(s.db).FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			if s.failOnUnknownEmail {
				return "", common.ErrorNotFound
			}
			return "", nil
		}
		return "", common.ErrorInternal
	}

	code, err := generateCode()
	if err != nil {
		return "", common.ErrorInternal
	}

	codeHash, err := s.hasher.Hash(code)
	if err != nil {
		return "", common.ErrorInternal
	}

	now := s.now()
	token := &models.ResetToken{
		ID:        uuid.NewString(),
		AccountID: account.ID,
		CodeHash:  codeHash,
		CreatedAt: now,
		ExpiresAt: now.Add(s.codeTTL),
	}
	if err := s.repomanager.ResetTokens(s.db).Create(ctx, token); err != nil {
		return "", common.ErrorInternal
	}

	return code, nil
}

// checkCode runs the four recovery checks against the given repositories:
// account exists, a reset token exists, the latest token is unexpired, and
// the code matches its hash. Every failure collapses into ErrInvalidCode.
func (s *RecoveryService) checkCode(ctx context.Context, accountRepo accounts.Repository, tokenRepo resettokens.Repository, email, code string) (*models.Account, error) {
	account, err := accountRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCode
		}
		return nil, common.ErrorInternal
	}

	token, err := tokenRepo.FindLatestByAccount(ctx, account.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCode
		}
		return nil, common.ErrorInternal
	}

	// A token whose expiry is at or before now is dead.
	if !token.ExpiresAt.After(s.now()) {
		return nil, common.ErrInvalidCode
	}

	if !s.hasher.Verify(code, token.CodeHash) {
		return nil, common.ErrInvalidCode
	}

	return account, nil
}

// VerifyCode checks whether the code is currently valid for the account with
// the given email. It consumes nothing: the token stays usable until its
// expiry or until a successful reset.
func (s *RecoveryService) VerifyCode(ctx context.Context, email, code string) error {
	_, err := s.checkCode(ctx, s.repomanager.Accounts(s.db), s.repomanager.ResetTokens(s.db), email, code)
	return err
}

// ResetPassword repeats the VerifyCode checks and, on success, overwrites
// the account's password digest and deletes every outstanding reset token
// for the account in a single transaction. Either both happen or neither.
func (s *RecoveryService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return common.ErrorInternal
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		accountRepo := s.repomanager.Accounts(tx)
		tokenRepo := s.repomanager.ResetTokens(tx)

		account, err := s.checkCode(ctx, accountRepo, tokenRepo, email, code)
		if err != nil {
			return err
		}

		if err := accountRepo.UpdatePasswordHash(ctx, account.ID, passwordHash); err != nil {
			return common.ErrorInternal
		}
		if err := tokenRepo.DeleteByAccount(ctx, account.ID); err != nil {
			return common.ErrorInternal
		}
		return nil
	})
}
