package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/keyfold/keyfold/internal/common"
	"github.com/keyfold/keyfold/internal/server/models"
)

type ctxKey string

const accountKey ctxKey = "account"

// accountFrom extracts the authenticated account placed by requireAccount.
func accountFrom(ctx context.Context) (*models.Account, bool) {
	account, ok := ctx.Value(accountKey).(*models.Account)
	return account, ok
}

// requireAccount validates the bearer token, resolves the subject to an
// account, re-checks that the account is still active (token validity alone
// does not cover state changes after issuance), and stores the account in
// the request context.
func (s *Server) requireAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing bearer token")
			return
		}

		subject, err := s.tokens.Validate(token)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		account, err := s.accounts.GetAccount(r.Context(), subject)
		if err != nil || !account.IsActive {
			writeDomainError(w, common.ErrTokenInvalid)
			return
		}

		ctx := context.WithValue(r.Context(), accountKey, account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
