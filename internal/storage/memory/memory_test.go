package memory

import (
	"context"
	"errors"
	"testing"

	"budget/internal/core"
	"budget/internal/ledger"
)

func TestMemoryStoreSaveAndLoad(t *testing.T) {
	s := New()
	if _, err := s.Load(context.Background()); !errors.Is(err, core.ErrPersistence) {
		t.Fatalf("expected persistence error before first save, got %v", err)
	}

	snap := ledger.Snapshot{SchemaVersion: ledger.SchemaVersion, Participants: []string{"A", "B"}}
	if err := s.Save(context.Background(), snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	snap.Participants[0] = "mutated"

	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Participants[0] != "A" || s.Saves() != 1 {
		t.Fatalf("unexpected snapshot %+v saves=%d", got, s.Saves())
	}
}
