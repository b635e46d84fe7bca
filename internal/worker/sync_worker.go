// Package worker mirrors stored expenses into a spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/log"
	"expensetracker/internal/sheets"
)

// Store is the slice of the repository the worker needs.
type Store interface {
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
	GetPendingSyncExpenses(ctx context.Context, limit int) ([]core.Expense, error)
	SyncStatus(ctx context.Context, id int64) (syncedAt time.Time, failed bool, err error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64) error
}

// SyncWorker exports expenses once. Events drive the fast path and a periodic
// sweep of unsynced rows covers lost messages and failed exports.
type SyncWorker struct {
	store     Store
	sheets    sheets.ExpenseWriter
	batchSize int
	logger    *log.Logger

	// exportMu serializes exports so the event path and the sweep never
	// append the same row twice.
	exportMu sync.Mutex
}

func NewSyncWorker(store Store, writer sheets.ExpenseWriter, batchSize int, logger *log.Logger) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &SyncWorker{
		store:     store,
		sheets:    writer,
		batchSize: batchSize,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleExpenseCreated exports the expense named by msg. Redelivered or
// already swept expenses are skipped, and so are expenses that no longer
// exist. A failed export is recorded on the row and left to the sweep, so
// the message is not redelivered.
func (w *SyncWorker) HandleExpenseCreated(ctx context.Context, msg *amqp.ExpenseCreatedMessage) error {
	w.exportMu.Lock()
	defer w.exportMu.Unlock()

	pending, err := w.pending(ctx, msg.ID)
	if errors.Is(err, core.ErrExpenseNotFound) {
		w.logger.WarnContext(ctx, "Expense from message not found, dropping", log.FieldExpenseID, msg.ID)
		return nil
	}
	if err != nil {
		return err
	}
	if !pending {
		w.logger.DebugContext(ctx, "Expense already synced", log.FieldExpenseID, msg.ID)
		return nil
	}

	expense, err := w.store.GetExpense(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}
	if err := w.syncExpense(ctx, expense); err != nil {
		w.logger.WarnContext(ctx, "Export deferred to periodic sync", log.FieldExpenseID, msg.ID)
	}
	return nil
}

// pending reports whether the expense still needs exporting.
func (w *SyncWorker) pending(ctx context.Context, id int64) (bool, error) {
	syncedAt, _, err := w.store.SyncStatus(ctx, id)
	if err != nil {
		return false, fmt.Errorf("get sync status: %w", err)
	}
	return syncedAt.IsZero(), nil
}

// ProcessPendingExpenses exports one batch of unsynced expenses and reports
// how many succeeded.
func (w *SyncWorker) ProcessPendingExpenses(ctx context.Context) (int, error) {
	return w.processPending(ctx, w.batchSize)
}

// StartupSyncCheck exports a larger batch to catch up after downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	synced, err := w.processPending(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup sync check: %w", err)
	}
	w.logger.InfoContext(ctx, "Startup sync completed", "synced", synced)
	return nil
}

// Run sweeps for unsynced expenses every interval until ctx ends.
func (w *SyncWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := w.ProcessPendingExpenses(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Periodic sync failed", log.FieldError, err)
			}
		}
	}
}

func (w *SyncWorker) processPending(ctx context.Context, limit int) (int, error) {
	pending, err := w.store.GetPendingSyncExpenses(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("get pending expenses: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	w.logger.InfoContext(ctx, "Processing pending expenses", "count", len(pending))

	synced := 0
	for _, e := range pending {
		if ctx.Err() != nil {
			return synced, ctx.Err()
		}
		if w.exportPending(ctx, e) {
			synced++
		}
	}
	return synced, nil
}

// exportPending exports e unless another path exported it after the pending
// list was read.
func (w *SyncWorker) exportPending(ctx context.Context, e core.Expense) bool {
	w.exportMu.Lock()
	defer w.exportMu.Unlock()

	still, err := w.pending(ctx, e.ID)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to recheck sync status", log.FieldExpenseID, e.ID, log.FieldError, err)
		return false
	}
	if !still {
		return false
	}
	return w.syncExpense(ctx, e) == nil
}

func (w *SyncWorker) syncExpense(ctx context.Context, e core.Expense) error {
	ref, err := w.sheets.Append(ctx, e)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to sync expense",
			log.FieldOperation, log.OpSync,
			log.FieldExpenseID, e.ID,
			log.FieldError, err)
		if markErr := w.store.MarkSyncError(ctx, e.ID); markErr != nil {
			w.logger.ErrorContext(ctx, "Failed to mark sync error", log.FieldExpenseID, e.ID, log.FieldError, markErr)
		}
		return fmt.Errorf("append to sheets: %w", err)
	}

	// The row is written; a failed mark only means a later duplicate export.
	if err := w.store.MarkSynced(ctx, e.ID); err != nil {
		w.logger.ErrorContext(ctx, "Failed to mark as synced", log.FieldExpenseID, e.ID, log.FieldError, err)
	}

	w.logger.InfoContext(ctx, "Synced expense",
		log.FieldOperation, log.OpSync,
		log.FieldExpenseID, e.ID,
		log.FieldAccountID, e.AccountID,
		log.FieldSheetsRef, ref)
	return nil
}
