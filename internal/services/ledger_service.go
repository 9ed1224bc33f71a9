package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"cashflow/internal/amqp"
	"cashflow/internal/core"
	"cashflow/internal/store"
)

// SyncPublisher publishes reconciliation messages for the Sheets mirror.
// *amqp.Client satisfies it; tests plug in a fake.
type SyncPublisher interface {
	PublishSync(ctx context.Context, op string, id int64) error
	Close() error
}

// LedgerService orchestrates ledger writes across storage and AMQP. Storage
// is the source of truth: a failed publish is logged and the write still
// succeeds, because the worker's pending-sync sweep catches up later.
type LedgerService struct {
	store     store.TransactionStore
	publisher SyncPublisher
}

func NewLedgerService(st store.TransactionStore, publisher SyncPublisher) *LedgerService {
	return &LedgerService{
		store:     st,
		publisher: publisher,
	}
}

// Add validates and saves a transaction, then publishes an upsert message.
func (s *LedgerService) Add(ctx context.Context, tx core.Transaction) (int64, error) {
	id, err := s.store.Add(ctx, tx)
	if err != nil {
		return 0, fmt.Errorf("save transaction: %w", err)
	}

	if err := s.publish(ctx, amqp.OpUpsert, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", id, "error", err)
		// Don't fail the request - the transaction is saved locally
	}

	return id, nil
}

// Update rewrites an existing transaction and publishes an upsert message.
func (s *LedgerService) Update(ctx context.Context, tx core.Transaction) error {
	if err := s.store.Update(ctx, tx); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	if err := s.publish(ctx, amqp.OpUpsert, tx.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", tx.ID, "error", err)
	}

	return nil
}

// Delete removes one of the user's transactions and publishes a delete
// message.
func (s *LedgerService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.store.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	if err := s.publish(ctx, amqp.OpDelete, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message",
			"id", id, "error", err)
	}

	return nil
}

// Clear wipes the user's ledger and publishes a clear message.
func (s *LedgerService) Clear(ctx context.Context, userID int64) error {
	if err := s.store.Clear(ctx, userID); err != nil {
		return fmt.Errorf("clear ledger: %w", err)
	}

	if err := s.publish(ctx, amqp.OpClear, 0); err != nil {
		slog.ErrorContext(ctx, "Failed to publish clear message", "error", err)
	}

	return nil
}

func (s *LedgerService) publish(ctx context.Context, op string, id int64) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message",
			"op", op, "id", id)
		return nil
	}

	return s.publisher.PublishSync(ctx, op, id)
}

// Close closes both storage and AMQP connections.
func (s *LedgerService) Close() error {
	var errs []error

	if closer, ok := s.store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}

	return nil
}
