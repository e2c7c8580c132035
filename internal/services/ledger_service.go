package services

import (
	"context"
	"fmt"

	"budget/internal/amqp"
	"budget/internal/backend"
	"budget/internal/core"
	"budget/internal/ledger"
	"budget/internal/log"

	"github.com/shopspring/decimal"
)

// Publisher sends ledger events. *amqp.Client satisfies it.
type Publisher interface {
	PublishLedgerEvent(ctx context.Context, event *amqp.LedgerEvent) error
}

// LedgerService runs ledger operations against an in-memory ledger,
// persists it through a backend and announces changes on the event bus.
// Like the ledger it wraps, it is not safe for concurrent use.
type LedgerService struct {
	ledger    *ledger.Ledger
	stores    backend.Opener
	publisher Publisher
	logger    *log.Logger
}

// NewLedgerService wraps l. publisher may be nil to run without events.
func NewLedgerService(l *ledger.Ledger, stores backend.Opener, publisher Publisher, logger *log.Logger) *LedgerService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &LedgerService{
		ledger:    l,
		stores:    stores,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentLedger),
	}
}

// Ledger returns the current ledger. Load may replace it.
func (s *LedgerService) Ledger() *ledger.Ledger {
	return s.ledger
}

// DefaultTarget is the save/load target used when none is given.
func (s *LedgerService) DefaultTarget() string {
	return s.stores.DefaultTarget()
}

func (s *LedgerService) Add(ctx context.Context, name string, amount decimal.Decimal, paymentsPerYear, firstMonth int, shares core.Shares) (core.Expense, error) {
	e, err := s.ledger.AddExpense(name, amount, paymentsPerYear, firstMonth, shares)
	if err != nil {
		return core.Expense{}, err
	}
	s.logger.InfoContext(ctx, "Expense added",
		log.FieldExpenseName, e.Name,
		log.FieldAmount, e.Amount.String())
	s.publish(ctx, expenseEvent(amqp.ExpenseAdded, e))
	return e, nil
}

func (s *LedgerService) Edit(ctx context.Context, name string, u core.ExpenseUpdate) (core.Expense, error) {
	e, err := s.ledger.EditExpense(name, u)
	if err != nil {
		return core.Expense{}, err
	}
	s.logger.InfoContext(ctx, "Expense edited",
		log.FieldExpenseName, e.Name,
		log.FieldAmount, e.Amount.String())
	s.publish(ctx, expenseEvent(amqp.ExpenseEdited, e))
	return e, nil
}

func (s *LedgerService) Delete(ctx context.Context, name string) error {
	if err := s.ledger.DeleteExpense(name); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Expense deleted", log.FieldExpenseName, name)
	event := amqp.NewLedgerEvent(amqp.ExpenseDeleted)
	event.ExpenseName = name
	s.publish(ctx, event)
	return nil
}

// Save writes the whole ledger to target, or the default target when
// target is empty.
func (s *LedgerService) Save(ctx context.Context, target string) error {
	target = s.resolve(target)
	store, err := s.stores.Open(ctx, target)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Save(ctx, s.ledger.Snapshot()); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Ledger saved",
		log.FieldTarget, target,
		log.FieldExpenses, s.ledger.Len())

	event := amqp.NewLedgerEvent(amqp.LedgerSaved)
	event.Target = target
	s.publish(ctx, event)
	return nil
}

// Load replaces the ledger with the one stored at target. Snapshots that
// carry a roster restore it; expense-only formats import into the current
// roster. On error the current ledger is kept.
func (s *LedgerService) Load(ctx context.Context, target string) error {
	target = s.resolve(target)
	store, err := s.stores.Open(ctx, target)
	if err != nil {
		return err
	}
	defer store.Close()

	snap, err := store.Load(ctx)
	if err != nil {
		return err
	}
	l, err := Restore(snap, s.ledger.Participants())
	if err != nil {
		return err
	}
	s.ledger = l
	s.logger.InfoContext(ctx, "Ledger loaded",
		log.FieldTarget, target,
		log.FieldExpenses, l.Len())

	event := amqp.NewLedgerEvent(amqp.LedgerLoaded)
	event.Target = target
	s.publish(ctx, event)
	return nil
}

func (s *LedgerService) Summary() []ledger.ParticipantShare {
	return s.ledger.ShareSummary()
}

func (s *LedgerService) DueIn(month int) ([]ledger.DueExpense, error) {
	return s.ledger.ExpensesDueInMonth(month)
}

func (s *LedgerService) resolve(target string) string {
	if target == "" {
		return s.stores.DefaultTarget()
	}
	return target
}

// publish never fails the caller: the ledger change already happened.
func (s *LedgerService) publish(ctx context.Context, event *amqp.LedgerEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish ledger event",
			log.FieldEventType, event.Type,
			log.FieldEventID, event.ID,
			log.FieldError, err)
	}
}

// Restore builds a ledger from a stored snapshot. A snapshot without a
// roster is imported into a ledger with the given participants.
func Restore(snap ledger.Snapshot, participants []string) (*ledger.Ledger, error) {
	if len(snap.Participants) > 0 {
		return ledger.FromSnapshot(snap)
	}
	if snap.SchemaVersion != ledger.SchemaVersion {
		return nil, fmt.Errorf("version %d: %w", snap.SchemaVersion, core.ErrUnsupportedSchema)
	}
	l, err := ledger.New(participants...)
	if err != nil {
		return nil, err
	}
	if err := l.ImportAll(snap.Expenses); err != nil {
		return nil, err
	}
	return l, nil
}

func expenseEvent(t amqp.EventType, e core.Expense) *amqp.LedgerEvent {
	event := amqp.NewLedgerEvent(t)
	event.ExpenseName = e.Name
	event.Amount = e.Amount.String()
	return event
}
