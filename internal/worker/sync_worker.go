// Package worker mirrors persisted ledgers to an external exporter.
package worker

import (
	"context"
	"errors"
	"fmt"

	"ledger/internal/amqp"
	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/sheets"
)

// Loader reads an owner's persisted ledger.
type Loader interface {
	Load(ctx context.Context, owner string) ([]core.Transaction, error)
}

// OwnerLister is implemented by stores that can enumerate their owners.
type OwnerLister interface {
	Owners(ctx context.Context) ([]string, error)
}

// SyncWorker exports an owner's whole ledger each time it changes. Exports
// are idempotent, so redelivered or reordered messages converge on the
// latest persisted state.
type SyncWorker struct {
	store    Loader
	exporter sheets.LedgerExporter
	logger   *log.Logger
}

func NewSyncWorker(store Loader, exporter sheets.LedgerExporter, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &SyncWorker{
		store:    store,
		exporter: exporter,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleLedgerChanged processes a single ledger changed message from AMQP.
func (w *SyncWorker) HandleLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	w.logger.InfoContext(ctx, "Processing ledger changed message",
		log.FieldMessageID, msg.MessageID,
		log.FieldOwner, msg.Owner,
		log.FieldOperation, msg.Op,
		log.FieldTransactionID, msg.TransactionID)

	if err := w.SyncOwner(ctx, msg.Owner); err != nil {
		return fmt.Errorf("sync ledger of %q: %w", msg.Owner, err)
	}
	return nil
}

// SyncOwner exports the current persisted ledger of owner.
func (w *SyncWorker) SyncOwner(ctx context.Context, owner string) error {
	txs, err := w.store.Load(ctx, owner)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	if err := w.exporter.Export(ctx, owner, txs); err != nil {
		return fmt.Errorf("export ledger: %w", err)
	}
	w.logger.InfoContext(ctx, "Successfully synced ledger", log.FieldOwner, owner, log.FieldCount, len(txs))
	return nil
}

// StartupSync exports every known ledger once. It recovers from messages
// missed while the worker was down. Stores that cannot list owners are
// skipped. Per-owner failures are logged and joined into the result.
func (w *SyncWorker) StartupSync(ctx context.Context) error {
	lister, ok := w.store.(OwnerLister)
	if !ok {
		w.logger.InfoContext(ctx, "Store cannot list owners, skipping startup sync")
		return nil
	}
	owners, err := lister.Owners(ctx)
	if err != nil {
		return fmt.Errorf("list owners for startup sync: %w", err)
	}

	var errs []error
	for _, owner := range owners {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.SyncOwner(ctx, owner); err != nil {
			w.logger.ErrorContext(ctx, "Failed to sync ledger during startup", log.FieldOwner, owner, log.FieldError, err)
			errs = append(errs, fmt.Errorf("%s: %w", owner, err))
		}
	}

	w.logger.InfoContext(ctx, "Startup sync completed",
		"total", len(owners),
		"errors", len(errs))
	return errors.Join(errs...)
}
