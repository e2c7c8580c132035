package amqp

import (
	"strings"
	"testing"
	"time"
)

func TestNewLedgerEvent(t *testing.T) {
	a := NewLedgerEvent(ExpenseAdded)
	b := NewLedgerEvent(ExpenseAdded)

	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("expected distinct ids, got %q and %q", a.ID, b.ID)
	}
	if a.Type != ExpenseAdded {
		t.Errorf("type = %s", a.Type)
	}
	if time.Since(a.Timestamp) > time.Minute {
		t.Errorf("timestamp too old: %v", a.Timestamp)
	}
}

func TestLedgerEvent_JSON(t *testing.T) {
	e := NewLedgerEvent(ReminderDue)
	e.ExpenseName = "Insurance"
	e.Amount = "500"
	e.Month = 3

	data, err := e.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	if !strings.Contains(string(data), `"type":"reminder.due"`) {
		t.Errorf("unexpected body %s", data)
	}

	got, err := LedgerEventFromJSON(data)
	if err != nil {
		t.Fatalf("LedgerEventFromJSON: %v", err)
	}
	if got.ID != e.ID || got.ExpenseName != "Insurance" || got.Month != 3 || got.Amount != "500" {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if !got.Timestamp.Equal(e.Timestamp) {
		t.Errorf("timestamp: got %v want %v", got.Timestamp, e.Timestamp)
	}
}

func TestLedgerEventFromJSON_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{"id":`},
		{"unknown type", `{"id":"0b9e2c47-8f6c-4e3a-9f10-3c1d2b7a5e11","type":"expense.exploded"}`},
		{"bad id", `{"id":"42","type":"expense.added"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LedgerEventFromJSON([]byte(tt.body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestPublishing(t *testing.T) {
	e := NewLedgerEvent(LedgerSaved)
	e.Target = "expenses.json"

	msg, err := publishing(e)
	if err != nil {
		t.Fatalf("publishing: %v", err)
	}
	if msg.MessageId != e.ID || msg.Type != "ledger.saved" || msg.ContentType != "application/json" {
		t.Fatalf("unexpected headers: %+v", msg)
	}
	if msg.DeliveryMode != 2 {
		t.Errorf("expected persistent delivery, got %d", msg.DeliveryMode)
	}
	decoded, err := LedgerEventFromJSON(msg.Body)
	if err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if decoded.Target != "expenses.json" {
		t.Errorf("target = %q", decoded.Target)
	}
	if RoutingKey(e) != "ledger.saved" {
		t.Errorf("routing key = %q", RoutingKey(e))
	}
}
