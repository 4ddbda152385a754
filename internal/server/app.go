// Package server initializes and runs the main application server.
// It wires configuration, storage, the authentication and recovery services,
// and the HTTP endpoint, and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/crypto/bcrypt"

	"github.com/keyfold/keyfold/internal/logging"
	"github.com/keyfold/keyfold/internal/server/auth"
	"github.com/keyfold/keyfold/internal/server/config"
	"github.com/keyfold/keyfold/internal/server/hashing"
	"github.com/keyfold/keyfold/internal/server/httpapi"
	"github.com/keyfold/keyfold/internal/server/repositories/repomanager"
	"github.com/keyfold/keyfold/internal/server/services"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	accounts    *services.AccountService
	recovery    *services.RecoveryService
	issuer      *auth.Issuer
}

func NewApp(cfg *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()

	issuer, err := auth.NewIssuer([]byte(cfg.SecretKey), cfg.SigningAlgorithm, cfg.AccessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("token issuer init error: %w", err)
	}

	hasher := hashing.NewHasher(bcrypt.DefaultCost)

	accounts, err := services.NewAccountService(db, rm, hasher, issuer)
	if err != nil {
		return nil, fmt.Errorf("account service init error: %w", err)
	}
	recovery := services.NewRecoveryService(db, rm, hasher, cfg.ResetCodeValidityDuration, !cfg.IsProduction())

	return &App{
		config:      cfg,
		logger:      logger,
		db:          db,
		repomanager: rm,
		accounts:    accounts,
		recovery:    recovery,
		issuer:      issuer,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := httpapi.NewServer(app.config.EndpointAddr, app.logger, app.accounts, app.recovery, app.issuer, !app.config.IsProduction())

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		app.logger.Error(ctx, "migration error", "error", err.Error())
		return
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

}
