package sheets

import (
	"context"

	"ledger/internal/core"
)

// Ports for outbound adapters.
type (
	// LedgerExporter replaces the exported copy of an owner's ledger with txs.
	LedgerExporter interface {
		Export(ctx context.Context, owner string, txs []core.Transaction) error
	}
)
