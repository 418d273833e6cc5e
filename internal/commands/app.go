package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/IlyasAtabaev731/khata/internal/config"
	"github.com/IlyasAtabaev731/khata/internal/domain/models"
	"github.com/IlyasAtabaev731/khata/internal/ledger"
	"github.com/IlyasAtabaev731/khata/internal/reconcile"
	"github.com/IlyasAtabaev731/khata/internal/remote"
	"github.com/IlyasAtabaev731/khata/internal/session"
	"github.com/IlyasAtabaev731/khata/internal/storage/postgres"
	"github.com/shopspring/decimal"
)

var ErrNotLoggedIn = errors.New("not logged in: run `khata login` first")

type Ledger interface {
	CreateTransaction(ctx context.Context, p ledger.CreateTransactionParams) (*models.Transaction, error)
	Transactions(ctx context.Context) ([]models.Transaction, error)
	Transaction(ctx context.Context, id int64) (*models.Transaction, error)
	Search(ctx context.Context, query string) ([]models.Transaction, error)
	LastEndingNumber(ctx context.Context) (decimal.Decimal, error)
	UpdateTransaction(ctx context.Context, id int64, patch models.TransactionPatch) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
	Trolleys(ctx context.Context, transactionID int64) ([]models.Trolley, error)
	UpdateTrolley(ctx context.Context, id int64, patch models.TrolleyPatch) (*models.Trolley, error)
	AddExpense(ctx context.Context, transactionID int64, description string, amount decimal.Decimal) (*models.ExpenseLine, error)
	UpdateExpense(ctx context.Context, id int64, patch models.ExpensePatch) (*models.ExpenseLine, error)
	DeleteExpense(ctx context.Context, id int64) (*models.ExpenseLine, error)
}

type Gate interface {
	Register(ctx context.Context, name, email, password string) (*models.SessionUser, error)
	Login(ctx context.Context, email, password string) (*models.SessionUser, error)
	Load(ctx context.Context) (*models.SessionUser, error)
	Current() *models.SessionUser
	Clear() error
}

type Syncer interface {
	Reconcile(ctx context.Context) models.SyncResult
}

// App is everything a command may need, opened once per invocation.
type App struct {
	Ledger Ledger
	Gate   Gate
	Syncer Syncer
	Close  func() error
}

type Opener func(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error)

// OpenApp wires the Postgres record store, the session gate and the
// reconciliation engine.
func OpenApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	storage, err := postgres.New(cfg.Postgres.URL(), log)
	if err != nil {
		return nil, fmt.Errorf("opening record store: %w", err)
	}

	client, err := remote.NewClient(&http.Client{Timeout: cfg.Remote.Timeout}, cfg.Remote.URL)
	if err != nil {
		_ = storage.Stop()
		return nil, err
	}

	return &App{
		Ledger: ledger.NewService(storage, log),
		Gate: session.NewGate(storage, log, session.Options{
			CachePath: cfg.Session.CachePath,
			Secret:    cfg.Session.Secret,
			TTL:       cfg.Session.TTL,
		}),
		Syncer: reconcile.New(storage, client, log),
		Close:  storage.Stop,
	}, nil
}

// requireUser restores the cached session and fails when nobody is signed in.
func requireUser(ctx context.Context, app *App) (*models.SessionUser, error) {
	if user := app.Gate.Current(); user != nil {
		return user, nil
	}
	user, err := app.Gate.Load(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotLoggedIn
	}
	return user, nil
}
