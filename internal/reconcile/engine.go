// Package reconcile pushes the local ledger to the remote sync endpoint.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IlyasAtabaev731/khata/internal/domain/models"
	"github.com/IlyasAtabaev731/khata/internal/lib/logctx"
	"github.com/IlyasAtabaev731/khata/internal/remote"
	"github.com/IlyasAtabaev731/khata/internal/storage"
	"github.com/google/uuid"
)

type Store interface {
	ListTransactionsWithChildren(ctx context.Context) ([]models.Transaction, error)
	UpdateTransactionSyncState(ctx context.Context, id int64, state models.SyncState) error
}

type Endpoint interface {
	Existing(ctx context.Context, runID string, localIDs []int64) ([]remote.Transaction, error)
	Push(ctx context.Context, runID string, req remote.SyncRequest) error
}

// Engine runs one reconciliation per Reconcile call. It holds no lock: two
// concurrent runs may push the same record twice, which the remote absorbs
// because it upserts by id.
type Engine struct {
	store    Store
	endpoint Endpoint
	logger   *slog.Logger
	now      func() time.Time
	newRunID func() string
}

func New(store Store, endpoint Endpoint, logger *slog.Logger) *Engine {
	return &Engine{
		store:    store,
		endpoint: endpoint,
		logger:   logger,
		now:      time.Now,
		newRunID: func() string { return uuid.Must(uuid.NewV7()).String() },
	}
}

// Reconcile makes at most one existence query and one push. It never returns
// an error: every failure ends up in the result with Success false. Failures
// before the push succeeds leave local sync state untouched.
func (e *Engine) Reconcile(ctx context.Context) models.SyncResult {
	runID := e.newRunID()
	log := e.logger.With(slog.String("run", runID))
	ctx = logctx.WithLogger(ctx, log)

	result, err := e.reconcile(ctx, runID)
	if err != nil {
		log.Error("Sync failed", "error", err)
		return models.SyncResult{Success: false, Error: err.Error()}
	}

	log.Info("Sync finished", slog.Int("synced", result.Synced), slog.Int("deleted", result.Deleted))
	return result
}

func (e *Engine) reconcile(ctx context.Context, runID string) (models.SyncResult, error) {
	log := logctx.FromContext(ctx)

	local, err := e.store.ListTransactionsWithChildren(ctx)
	if err != nil {
		return models.SyncResult{}, fmt.Errorf("loading local transactions: %w", err)
	}

	existing, err := e.endpoint.Existing(ctx, runID, ids(local))
	if err != nil {
		return models.SyncResult{}, fmt.Errorf("fetching remote transactions: %w", err)
	}

	plan := NewPlan(local, existing)
	log.Debug("Sync plan",
		slog.Int("local", len(local)),
		slog.Int("remote", len(existing)),
		slog.Int("create", len(plan.Create)),
		slog.Int("update", len(plan.Update)),
		slog.Int("delete", len(plan.Delete)),
	)

	req, err := BuildRequest(plan)
	if err != nil {
		return models.SyncResult{}, err
	}

	if err := e.endpoint.Push(ctx, runID, req); err != nil {
		return models.SyncResult{}, fmt.Errorf("cloud sync failed: %w", err)
	}

	pushed := plan.Pushed()
	if err := e.markSynced(ctx, pushed); err != nil {
		return models.SyncResult{}, err
	}

	return models.SyncResult{Success: true, Synced: len(pushed), Deleted: len(plan.Delete)}, nil
}

// BuildRequest normalizes the plan into the push payload.
func BuildRequest(plan Plan) (remote.SyncRequest, error) {
	create, err := normalizeAll(plan.Create)
	if err != nil {
		return remote.SyncRequest{}, fmt.Errorf("normalizing creates: %w", err)
	}
	update, err := normalizeAll(plan.Update)
	if err != nil {
		return remote.SyncRequest{}, fmt.Errorf("normalizing updates: %w", err)
	}

	return remote.NewSyncRequest(create, update, plan.Delete), nil
}

// markSynced stamps every pushed transaction with one shared timestamp. A
// failure part way leaves the rest unsynced; they are pushed again next run.
// Rows edited since they were read stay dirty and are skipped.
func (e *Engine) markSynced(ctx context.Context, txns []models.Transaction) error {
	log := logctx.FromContext(ctx)
	now := e.now().UTC().Truncate(time.Microsecond)

	for i, txn := range txns {
		seen := txn.UpdatedAt
		state := models.SyncState{Synced: true, SyncedAt: &now, Seen: &seen}

		err := e.store.UpdateTransactionSyncState(ctx, txn.ID, state)
		if errors.Is(err, storage.ErrStale) {
			log.Info("Transaction changed during sync, left for next run", slog.Int64("id", txn.ID))
			continue
		}
		if err != nil {
			return fmt.Errorf("marking transaction %d synced (%d of %d done): %w", txn.ID, i, len(txns), err)
		}
	}

	return nil
}
