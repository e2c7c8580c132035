package worker

import (
	"context"
	"fmt"

	"budget/internal/amqp"
	"budget/internal/backend"
	"budget/internal/log"
	"budget/internal/storage"
)

// SheetsMirror copies the saved ledger into a second store, normally the
// Google Sheets tab, whenever a save is announced on the event bus.
type SheetsMirror struct {
	source       backend.Opener
	mirror       storage.Store
	participants []string
	logger       *log.Logger
}

func NewSheetsMirror(source backend.Opener, mirror storage.Store, participants []string, logger *log.Logger) *SheetsMirror {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &SheetsMirror{
		source:       source,
		mirror:       mirror,
		participants: append([]string(nil), participants...),
		logger:       logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent mirrors the target named by a ledger.saved event. Other
// events are acknowledged without work: unsaved edits are not in the
// store yet.
func (w *SheetsMirror) HandleEvent(ctx context.Context, event *amqp.LedgerEvent) error {
	if event.Type != amqp.LedgerSaved {
		w.logger.DebugContext(ctx, "Ignoring event",
			log.FieldEventType, event.Type,
			log.FieldEventID, event.ID)
		return nil
	}

	store, err := w.source.Open(ctx, event.Target)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer store.Close()

	snap, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load source: %w", err)
	}
	if len(snap.Participants) == 0 {
		snap.Participants = w.participants
	}

	if err := w.mirror.Save(ctx, snap); err != nil {
		return fmt.Errorf("save mirror: %w", err)
	}

	w.logger.InfoContext(ctx, "Ledger mirrored",
		log.FieldOperation, log.OpMirror,
		log.FieldEventID, event.ID,
		log.FieldTarget, event.Target,
		log.FieldExpenses, len(snap.Expenses))
	return nil
}
