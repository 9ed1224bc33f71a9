package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cashflow/internal/amqp"
	"cashflow/internal/core"
	"cashflow/internal/sheets/google"
	"cashflow/internal/storage"
)

// Store is the slice of the storage layer the worker needs. The SQLite
// repository satisfies it. GetByID is deliberately unscoped: sync messages
// carry only the row id and the mirror spans every account.
type Store interface {
	GetByID(ctx context.Context, id int64) (core.Transaction, error)
	GetPendingSync(ctx context.Context, limit int) ([]storage.PendingSyncTransaction, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64) error
}

// SyncWorker reconciles ledger rows from storage into the Sheets mirror.
type SyncWorker struct {
	storage   Store
	mirror    google.Mirror
	batchSize int
}

func NewSyncWorker(st Store, mirror google.Mirror, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   st,
		mirror:    mirror,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single sync message from AMQP.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.SyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"message_id", msg.MessageID,
		"op", msg.Op,
		"id", msg.ID)

	switch msg.Op {
	case amqp.OpUpsert:
		return w.syncTransaction(ctx, msg.ID)
	case amqp.OpDelete:
		if err := w.mirror.Delete(ctx, msg.ID); err != nil {
			return fmt.Errorf("delete from mirror: %w", err)
		}
		return nil
	case amqp.OpClear:
		if err := w.mirror.Clear(ctx); err != nil {
			return fmt.Errorf("clear mirror: %w", err)
		}
		return nil
	default:
		// Unknown ops are dropped, not requeued: a newer producer may emit
		// ops this worker does not know.
		slog.WarnContext(ctx, "Ignoring unknown sync op",
			"op", msg.Op, "message_id", msg.MessageID)
		return nil
	}
}

// ProcessPending syncs rows that have no synced_at yet. This is the backup
// path for lost AMQP messages.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.GetPendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	for _, p := range pending {
		if err := w.syncTransaction(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction", "id", p.ID, "error", err)
			continue
		}
	}

	return nil
}

// StartupSyncCheck drains the pending backlog once at worker startup, with a
// larger batch, to recover from missed messages or worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.GetPendingSync(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending transactions for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending transactions found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending transactions on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0

	for _, p := range pending {
		if err := w.syncTransaction(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction during startup",
				"id", p.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)

	return nil
}

func (w *SyncWorker) syncTransaction(ctx context.Context, id int64) error {
	tx, err := w.storage.GetByID(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		// The row was deleted after the message was queued. The delete
		// message will trim the mirror; nothing to do here.
		slog.WarnContext(ctx, "Transaction no longer in storage, skipping sync", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	if err := w.mirror.Upsert(ctx, tx); err != nil {
		if markErr := w.storage.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("upsert to mirror: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", id, "error", err)
		// Don't return an error here - the sync actually worked
	}

	slog.InfoContext(ctx, "Successfully synced transaction",
		"id", id,
		"description", tx.Description,
		"amount_cents", tx.Amount.Cents)

	return nil
}
