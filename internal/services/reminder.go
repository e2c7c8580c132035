package services

import (
	"context"
	"time"

	"budget/internal/amqp"
	"budget/internal/backend"
	"budget/internal/ledger"
	"budget/internal/log"
)

// DueReminder reports the expenses that fall due in a given month.
type DueReminder struct {
	stores       backend.Opener
	participants []string
	publisher    Publisher
	logger       *log.Logger
}

func NewDueReminder(stores backend.Opener, participants []string, publisher Publisher, logger *log.Logger) *DueReminder {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DueReminder{
		stores:       stores,
		participants: append([]string(nil), participants...),
		publisher:    publisher,
		logger:       logger.WithComponent(log.ComponentScheduler),
	}
}

// Run loads the ledger from the default target and publishes one
// reminder.due event per expense due in now's month.
func (r *DueReminder) Run(ctx context.Context, now time.Time) ([]ledger.DueExpense, error) {
	store, err := r.stores.Open(ctx, "")
	if err != nil {
		return nil, err
	}
	defer store.Close()

	snap, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	l, err := Restore(snap, r.participants)
	if err != nil {
		return nil, err
	}

	month := int(now.Month())
	due, err := l.ExpensesDueInMonth(month)
	if err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "Expenses due this month",
		log.FieldOperation, log.OpRemind,
		log.FieldMonth, month,
		log.FieldExpenses, len(due))

	for _, d := range due {
		r.logger.InfoContext(ctx, "Expense due",
			log.FieldExpenseName, d.Name,
			log.FieldAmount, d.Amount.String(),
			log.FieldMonth, month)
		if r.publisher == nil {
			continue
		}
		event := amqp.NewLedgerEvent(amqp.ReminderDue)
		event.ExpenseName = d.Name
		event.Amount = d.Amount.String()
		event.Month = month
		if err := r.publisher.PublishLedgerEvent(ctx, event); err != nil {
			r.logger.WarnContext(ctx, "Failed to publish reminder",
				log.FieldExpenseName, d.Name,
				log.FieldError, err)
		}
	}
	return due, nil
}
