package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/ledger"
	"budget/internal/log"
	"budget/internal/storage"
	"budget/internal/storage/memory"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// fakeOpener hands out one memory store per target.
type fakeOpener struct {
	mu     sync.Mutex
	stores map[string]*memory.Store
	err    error
}

func newFakeOpener() *fakeOpener {
	return &fakeOpener{stores: map[string]*memory.Store{}}
}

func (o *fakeOpener) Open(_ context.Context, target string) (storage.Store, error) {
	if o.err != nil {
		return nil, o.err
	}
	if target == "" {
		target = o.DefaultTarget()
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.stores[target]
	if !ok {
		s = memory.New()
		o.stores[target] = s
	}
	return s, nil
}

func (o *fakeOpener) DefaultTarget() string { return "expenses.json" }

type fakePublisher struct {
	events []*amqp.LedgerEvent
	err    error
}

func (p *fakePublisher) PublishLedgerEvent(_ context.Context, e *amqp.LedgerEvent) error {
	p.events = append(p.events, e)
	return p.err
}

func (p *fakePublisher) types() []amqp.EventType {
	out := make([]amqp.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func quietLogger(buf *bytes.Buffer) *log.Logger {
	return log.New(log.Config{Level: slog.LevelDebug, Component: log.ComponentApp, Output: buf})
}

func newService(t *testing.T, pub Publisher) (*LedgerService, *fakeOpener, *bytes.Buffer) {
	t.Helper()
	l, err := ledger.New("Naja", "David")
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	var buf bytes.Buffer
	opener := newFakeOpener()
	return NewLedgerService(l, opener, pub, quietLogger(&buf)), opener, &buf
}

func TestLedgerServicePublishesChanges(t *testing.T) {
	pub := &fakePublisher{}
	svc, _, _ := newService(t, pub)
	ctx := context.Background()

	if _, err := svc.Add(ctx, "Rent", d("1200"), 12, 1, core.Shares{"Naja": d("50"), "David": d("50")}); err != nil {
		t.Fatalf("add: %v", err)
	}
	amount := d("1300")
	if _, err := svc.Edit(ctx, "Rent", core.ExpenseUpdate{Amount: &amount}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if err := svc.Delete(ctx, "Rent"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	want := []amqp.EventType{amqp.ExpenseAdded, amqp.ExpenseEdited, amqp.ExpenseDeleted}
	got := pub.types()
	if len(got) != len(want) {
		t.Fatalf("events: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d: got %s want %s", i, got[i], want[i])
		}
	}
	if pub.events[1].Amount != "1300" || pub.events[2].ExpenseName != "Rent" {
		t.Fatalf("event payloads: %+v %+v", pub.events[1], pub.events[2])
	}
}

func TestLedgerServiceFailedOperationPublishesNothing(t *testing.T) {
	pub := &fakePublisher{}
	svc, _, _ := newService(t, pub)
	ctx := context.Background()

	_, err := svc.Add(ctx, "Rent", d("1200"), 12, 1, core.Shares{"Naja": d("50"), "David": d("40")})
	if !errors.Is(err, core.ErrSharesNotHundred) {
		t.Fatalf("expected share sum error, got %v", err)
	}
	if err := svc.Delete(ctx, "Gym"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Fatalf("expected no events, got %v", pub.types())
	}
}

func TestLedgerServicePublishFailureIsNotFatal(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	svc, _, buf := newService(t, pub)

	if _, err := svc.Add(context.Background(), "Gym", d("30"), 12, 1, core.Shares{"Naja": d("100")}); err != nil {
		t.Fatalf("add should succeed when publishing fails: %v", err)
	}
	if svc.Ledger().Len() != 1 {
		t.Fatalf("expense not added")
	}
	if !bytes.Contains(buf.Bytes(), []byte("Failed to publish ledger event")) {
		t.Fatalf("publish failure not logged: %s", buf.String())
	}
}

func TestLedgerServiceWithoutPublisher(t *testing.T) {
	svc, _, _ := newService(t, nil)
	if _, err := svc.Add(context.Background(), "Gym", d("30"), 12, 1, core.Shares{"David": d("100")}); err != nil {
		t.Fatalf("add: %v", err)
	}
}

func TestLedgerServiceSaveLoad(t *testing.T) {
	pub := &fakePublisher{}
	svc, opener, _ := newService(t, pub)
	ctx := context.Background()

	svc.Add(ctx, "Rent", d("1200"), 12, 1, core.Shares{"Naja": d("50"), "David": d("50")})
	if err := svc.Save(ctx, ""); err != nil {
		t.Fatalf("save: %v", err)
	}
	if opener.stores["expenses.json"].Saves() != 1 {
		t.Fatal("expected save on default target")
	}

	svc.Add(ctx, "Gym", d("30"), 12, 1, core.Shares{"Naja": d("100")})
	if err := svc.Load(ctx, "expenses.json"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if svc.Ledger().Len() != 1 {
		t.Fatalf("load should replace the ledger, got %d expenses", svc.Ledger().Len())
	}

	last := pub.events[len(pub.events)-1]
	if last.Type != amqp.LedgerLoaded || last.Target != "expenses.json" {
		t.Fatalf("last event: %+v", last)
	}
}

func TestLedgerServiceLoadErrorKeepsLedger(t *testing.T) {
	svc, _, _ := newService(t, nil)
	ctx := context.Background()
	svc.Add(ctx, "Rent", d("1200"), 12, 1, core.Shares{"Naja": d("50"), "David": d("50")})

	if err := svc.Load(ctx, "never-saved.json"); !errors.Is(err, core.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if svc.Ledger().Len() != 1 {
		t.Fatal("failed load must keep the current ledger")
	}
}

func TestLedgerServiceOpenError(t *testing.T) {
	svc, opener, _ := newService(t, nil)
	opener.err = core.Persistence("open", errors.New("disk gone"))
	if err := svc.Save(context.Background(), "x.json"); !errors.Is(err, core.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}

func TestRestore(t *testing.T) {
	l, _ := ledger.New("Naja", "David")
	l.AddExpense("Rent", d("1200"), 12, 1, core.Shares{"Naja": d("50"), "David": d("50")})

	withRoster, err := Restore(l.Snapshot(), []string{"X"})
	if err != nil {
		t.Fatalf("restore snapshot: %v", err)
	}
	if got := withRoster.Participants(); len(got) != 2 || got[0] != "Naja" {
		t.Fatalf("snapshot roster should win, got %v", got)
	}

	recordsOnly := ledger.Snapshot{SchemaVersion: ledger.SchemaVersion, Expenses: l.ExportAll()}
	imported, err := Restore(recordsOnly, []string{"Naja", "David"})
	if err != nil {
		t.Fatalf("restore records: %v", err)
	}
	if imported.Len() != 1 {
		t.Fatalf("expected 1 expense, got %d", imported.Len())
	}

	if _, err := Restore(ledger.Snapshot{SchemaVersion: 9}, nil); !errors.Is(err, core.ErrUnsupportedSchema) {
		t.Fatalf("expected unsupported schema, got %v", err)
	}
}

func TestDueReminder(t *testing.T) {
	l, _ := ledger.New("A", "B")
	l.AddExpense("Rent", d("1200"), 12, 1, core.Shares{"A": d("50"), "B": d("50")})
	l.AddExpense("Insurance", d("500"), 2, 3, core.Shares{"A": d("100")})
	l.AddExpense("Car tax", d("240"), 1, 4, core.Shares{"B": d("100")})

	opener := newFakeOpener()
	store, _ := opener.Open(context.Background(), "")
	store.Save(context.Background(), l.Snapshot())

	pub := &fakePublisher{}
	var buf bytes.Buffer
	r := NewDueReminder(opener, []string{"A", "B"}, pub, quietLogger(&buf))

	due, err := r.Run(context.Background(), time.Date(2026, time.September, 1, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(due) != 2 || due[0].Name != "Rent" || due[1].Name != "Insurance" {
		t.Fatalf("due: %+v", due)
	}
	if len(pub.events) != 2 {
		t.Fatalf("expected 2 reminders, got %d", len(pub.events))
	}
	for _, e := range pub.events {
		if e.Type != amqp.ReminderDue || e.Month != 9 {
			t.Fatalf("reminder: %+v", e)
		}
	}
	if pub.events[1].Amount != "500" {
		t.Fatalf("insurance amount: %s", pub.events[1].Amount)
	}
}

func TestDueReminderNothingSaved(t *testing.T) {
	r := NewDueReminder(newFakeOpener(), []string{"A"}, nil, quietLogger(&bytes.Buffer{}))
	if _, err := r.Run(context.Background(), time.Now()); !errors.Is(err, core.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}
