// Package httpapi exposes the authentication and recovery services over a
// JSON HTTP API and maps domain errors onto transport responses.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/keyfold/keyfold/internal/logging"
	"github.com/keyfold/keyfold/internal/server/models"
)

// AccountService is the authentication surface the API serves.
type AccountService interface {
	Register(ctx context.Context, email, username, password string) (*models.Account, error)
	Login(ctx context.Context, email, password string) (string, error)
	GetAccount(ctx context.Context, id string) (*models.Account, error)
}

// RecoveryService is the password-recovery surface the API serves.
type RecoveryService interface {
	RequestReset(ctx context.Context, email string) (string, error)
	VerifyCode(ctx context.Context, email, code string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}

// TokenValidator resolves a bearer token to its subject account id.
type TokenValidator interface {
	Validate(tokenString string) (string, error)
}

// Server serves the public HTTP endpoint.
type Server struct {
	address  string
	logger   logging.Logger
	accounts AccountService
	recovery RecoveryService
	tokens   TokenValidator

	// echoResetCodes enables the development-only affordance of returning
	// the plaintext reset code in the forgot-password response. Must be
	// false in any production configuration.
	echoResetCodes bool
}

// NewServer constructs a Server bound to the given address.
func NewServer(address string, l logging.Logger, as AccountService, rs RecoveryService, tv TokenValidator, echoResetCodes bool) *Server {
	return &Server{
		address:        address,
		logger:         l.With("module", "http_server"),
		accounts:       as,
		recovery:       rs,
		tokens:         tv,
		echoResetCodes: echoResetCodes,
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api/auth").Subrouter()

	api.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	api.Handle("/me", s.requireAccount(http.HandlerFunc(s.handleMe))).Methods(http.MethodGet)

	api.HandleFunc("/forgot-password", s.handleForgotPassword).Methods(http.MethodPost)
	api.HandleFunc("/verify-reset-code", s.handleVerifyResetCode).Methods(http.MethodPost)
	api.HandleFunc("/reset-password", s.handleResetPassword).Methods(http.MethodPost)

	return r
}

// Run starts the HTTP server and shuts it down gracefully when ctx is done.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	select {
	case <-ctx.Done():
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
