// Package worker runs the background maintenance loops: refreshing due
// dates on recurring expense plans, reconciling the in-memory store with
// the backend, and mirroring collections into durable local snapshots.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/localstore"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/store"
)

// Worker drives scheduled maintenance against a loaded store.
type Worker struct {
	store     *store.Store
	snapshots *localstore.RecordStore
	now       func() time.Time
}

// New creates a worker. snapshots may be nil, in which case snapshot
// maintenance is skipped.
func New(st *store.Store, snapshots *localstore.RecordStore) *Worker {
	return &Worker{
		store:     st,
		snapshots: snapshots,
		now:       time.Now,
	}
}

// RefreshDueExpenses advances NextDueDate for every active recurring
// expense whose schedule has come due, and returns how many were moved.
func (w *Worker) RefreshDueExpenses(ctx context.Context) (int, error) {
	today := core.DateOf(w.now())

	refreshed := 0
	for _, e := range w.store.Expenses() {
		if err := ctx.Err(); err != nil {
			return refreshed, err
		}
		if !services.IsDue(e, today) {
			continue
		}
		if err := w.store.UpdateExpense(e); err != nil {
			return refreshed, fmt.Errorf("refresh expense %s: %w", e.ID, err)
		}
		refreshed++
	}

	if refreshed > 0 {
		slog.InfoContext(ctx, "Refreshed due expenses", "count", refreshed)
	}
	return refreshed, nil
}

// SnapshotKind rewrites the durable local snapshot for one collection
// from current store state.
func (w *Worker) SnapshotKind(ctx context.Context, kind core.EntityKind) error {
	if w.snapshots == nil {
		return nil
	}
	records, err := w.store.ExportRecords(kind)
	if err != nil {
		return fmt.Errorf("export %s: %w", kind, err)
	}
	if err := w.snapshots.ReplaceAll(ctx, kind, w.store.Owner(), records); err != nil {
		return fmt.Errorf("snapshot %s: %w", kind, err)
	}
	return nil
}

// SnapshotAll rewrites the durable snapshots for every collection.
func (w *Worker) SnapshotAll(ctx context.Context) error {
	for _, kind := range core.EntityKinds() {
		if err := w.SnapshotKind(ctx, kind); err != nil {
			return err
		}
	}
	return nil
}

// Reconcile re-reads every collection from the backend. It is the
// backstop for missed change events.
func (w *Worker) Reconcile(ctx context.Context) error {
	return w.store.Load(ctx)
}

// Run blocks, performing due-date refresh, reconcile, and snapshot
// maintenance at the configured intervals until ctx is cancelled.
func (w *Worker) Run(ctx context.Context, reconcileEvery, snapshotEvery time.Duration) error {
	reconcile := time.NewTicker(reconcileEvery)
	defer reconcile.Stop()
	snapshot := time.NewTicker(snapshotEvery)
	defer snapshot.Stop()

	if _, err := w.RefreshDueExpenses(ctx); err != nil {
		slog.ErrorContext(ctx, "Initial due-date refresh failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-reconcile.C:
			if err := w.Reconcile(ctx); err != nil {
				slog.ErrorContext(ctx, "Reconcile failed", "op", applog.OpReload, "error", err)
			}
			if _, err := w.RefreshDueExpenses(ctx); err != nil {
				slog.ErrorContext(ctx, "Due-date refresh failed", "error", err)
			}
		case <-snapshot.C:
			if err := w.SnapshotAll(ctx); err != nil {
				slog.ErrorContext(ctx, "Snapshot maintenance failed", "op", applog.OpSnapshot, "error", err)
			}
		}
	}
}
