package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType names a change to the ledger.
type EventType string

const (
	ExpenseAdded   EventType = "expense.added"
	ExpenseEdited  EventType = "expense.edited"
	ExpenseDeleted EventType = "expense.deleted"
	LedgerSaved    EventType = "ledger.saved"
	LedgerLoaded   EventType = "ledger.loaded"
	ReminderDue    EventType = "reminder.due"
)

// BindingKey binds the ledger queue to every event on the exchange.
const BindingKey = "#"

// IsValid returns true if the event type is known.
func (t EventType) IsValid() bool {
	switch t {
	case ExpenseAdded, ExpenseEdited, ExpenseDeleted, LedgerSaved, LedgerLoaded, ReminderDue:
		return true
	}
	return false
}

// LedgerEvent is a small notification; consumers read the ledger itself
// from the store. Month is set only for reminders.
type LedgerEvent struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	ExpenseName string    `json:"expense_name,omitempty"`
	Amount      string    `json:"amount,omitempty"`
	Month       int       `json:"month,omitempty"`
	Target      string    `json:"target,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewLedgerEvent creates an event with a fresh ID.
func NewLedgerEvent(t EventType) *LedgerEvent {
	return &LedgerEvent{
		ID:        uuid.NewString(),
		Type:      t,
		Timestamp: time.Now().UTC(),
	}
}

// RoutingKey is the topic an event is published under: its type, e.g.
// "ledger.saved".
func RoutingKey(e *LedgerEvent) string {
	return string(e.Type)
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes an event and rejects unknown types.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if !e.Type.IsValid() {
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	if _, err := uuid.Parse(e.ID); err != nil {
		return nil, fmt.Errorf("event id %q: %w", e.ID, err)
	}
	return &e, nil
}
