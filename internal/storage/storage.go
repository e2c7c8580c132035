// Package storage defines the port through which a ledger is persisted.
package storage

import (
	"context"

	"budget/internal/ledger"
)

// Store persists a whole ledger snapshot. Load returns a snapshot with no
// Participants when the underlying format only carries expenses; callers
// then import the expenses into their current roster.
type Store interface {
	Save(ctx context.Context, snap ledger.Snapshot) error
	Load(ctx context.Context) (ledger.Snapshot, error)
	Close() error
}
