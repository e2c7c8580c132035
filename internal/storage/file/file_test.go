package file

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"budget/internal/core"
	"budget/internal/ledger"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	l, err := ledger.New("Naja", "David")
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	if _, err := l.AddExpense("Rent", d("1200"), 12, 1, core.Shares{"Naja": d("50"), "David": d("50")}); err != nil {
		t.Fatalf("add rent: %v", err)
	}
	if _, err := l.AddExpense("Insurance", d("500.50"), 2, 3, core.Shares{"Naja": d("33.33"), "David": d("66.67")}); err != nil {
		t.Fatalf("add insurance: %v", err)
	}
	return l
}

func assertSameExpenses(t *testing.T, got, want []core.Expense) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d expenses, want %d", len(got), len(want))
	}
	for i := range want {
		g, w := got[i], want[i]
		if g.Name != w.Name || g.PaymentsPerYear != w.PaymentsPerYear || g.FirstMonth != w.FirstMonth {
			t.Fatalf("expense %d: got %+v want %+v", i, g, w)
		}
		if !g.Amount.Equal(w.Amount) || !g.TotalPerYear.Equal(w.TotalPerYear) {
			t.Fatalf("expense %d amounts: got %s/%s want %s/%s", i, g.Amount, g.TotalPerYear, w.Amount, w.TotalPerYear)
		}
		if !reflect.DeepEqual(g.PaymentMonths, w.PaymentMonths) {
			t.Fatalf("expense %d months: got %v want %v", i, g.PaymentMonths, w.PaymentMonths)
		}
		if len(g.Shares) != len(w.Shares) {
			t.Fatalf("expense %d shares: got %v want %v", i, g.Shares, w.Shares)
		}
		for p, pct := range w.Shares {
			if !g.Shares[p].Equal(pct) {
				t.Fatalf("expense %d share %s: got %s want %s", i, p, g.Shares[p], pct)
			}
		}
	}
}

func TestRoundTripAllFormats(t *testing.T) {
	cases := []struct {
		name   string
		file   string
		format Format
	}{
		{"records json", "expenses.json", Records},
		{"snapshot json", "ledger.json", Snapshot},
		{"snapshot yaml", "ledger.yaml", Snapshot},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := sampleLedger(t)
			path := filepath.Join(t.TempDir(), tc.file)
			s, err := New(path, tc.format, l.Participants())
			if err != nil {
				t.Fatalf("new store: %v", err)
			}
			if err := s.Save(context.Background(), l.Snapshot()); err != nil {
				t.Fatalf("save: %v", err)
			}
			snap, err := s.Load(context.Background())
			if err != nil {
				t.Fatalf("load: %v", err)
			}

			restored, err := ledger.New(l.Participants()...)
			if err != nil {
				t.Fatalf("new ledger: %v", err)
			}
			if tc.format == Snapshot {
				if !reflect.DeepEqual(snap.Participants, l.Participants()) {
					t.Fatalf("participants: got %v", snap.Participants)
				}
				if restored, err = ledger.FromSnapshot(snap); err != nil {
					t.Fatalf("restore: %v", err)
				}
			} else {
				if snap.Participants != nil {
					t.Fatalf("records format must not carry a roster, got %v", snap.Participants)
				}
				if err := restored.ImportAll(snap.Expenses); err != nil {
					t.Fatalf("import: %v", err)
				}
			}
			assertSameExpenses(t, restored.Expenses(), l.Expenses())
		})
	}
}

func TestRecordsFileIsFlatArray(t *testing.T) {
	l := sampleLedger(t)
	path := filepath.Join(t.TempDir(), "expenses.json")
	s, _ := New(path, Records, l.Participants())
	if err := s.Save(context.Background(), l.Snapshot()); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	text := string(data)
	for _, want := range []string{`"name": "Rent"`, `"amount": 1200`, `"payments_per_year": 12`, `"total_per_year": 14400`, `"payment_months": [`, `"Naja": 7200`} {
		if !strings.Contains(text, want) {
			t.Fatalf("records file missing %s:\n%s", want, text)
		}
	}
	if !strings.HasPrefix(strings.TrimSpace(text), "[") {
		t.Fatalf("records file must be a JSON array:\n%s", text)
	}
}

func TestRecordsFileKeepsFlatShareFields(t *testing.T) {
	l := sampleLedger(t)
	path := filepath.Join(t.TempDir(), "expenses.json")
	s, _ := New(path, Records, l.Participants())
	if err := s.Save(context.Background(), l.Snapshot()); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, want := range []string{`"naja_share": 7200`, `"david_share": 7200`, `"naja_share": 333.6333`} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("records file missing %s:\n%s", want, data)
		}
	}

	// Drop the newer fields; the flat ones alone must restore the ledger.
	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, r := range raw {
		delete(r, "shares")
		delete(r, "share_percents")
	}
	flat, _ := json.Marshal(raw)
	if err := os.WriteFile(path, flat, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	snap, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load flat: %v", err)
	}
	restored, _ := ledger.New(l.Participants()...)
	if err := restored.ImportAll(snap.Expenses); err != nil {
		t.Fatalf("import flat: %v", err)
	}
	assertSameExpenses(t, restored.Expenses(), l.Expenses())
}

func TestLoadLegacyRecords(t *testing.T) {
	legacy := `[
  {"name": "Rent", "amount": 1200.0, "payments_per_year": 12, "first_month": 1,
   "naja_share": 7200.0, "david_share": 7200.0, "payment_months": [1,2,3,4,5,6,7,8,9,10,11,12], "total_per_year": 14400.0},
  {"name": "Insurance", "amount": 500, "payments_per_year": 2, "first_month": 3,
   "naja_share": 1000.0, "david_share": 0.0, "payment_months": [3, 9], "total_per_year": 1000}
]`
	path := filepath.Join(t.TempDir(), "expenses.json")
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, _ := New(path, Records, []string{"Naja", "David"})
	snap, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	l, _ := ledger.New("Naja", "David")
	if err := l.ImportAll(snap.Expenses); err != nil {
		t.Fatalf("import: %v", err)
	}
	ins, err := l.Expense("Insurance")
	if err != nil {
		t.Fatalf("insurance: %v", err)
	}
	if !ins.Shares["Naja"].Equal(d("100")) || !ins.Shares["David"].IsZero() {
		t.Fatalf("legacy shares not matched to roster: %v", ins.Shares)
	}
	summary := l.ShareSummary()
	if !summary[0].Yearly.Equal(d("8200")) || !summary[1].Monthly.Equal(d("600")) {
		t.Fatalf("summary: %+v", summary)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	missing, _ := New(filepath.Join(dir, "missing.json"), Records, nil)
	_, err := missing.Load(context.Background())
	if !errors.Is(err, core.ErrPersistence) || !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected persistence error wrapping not-exist, got %v", err)
	}

	corruptPath := filepath.Join(dir, "corrupt.json")
	os.WriteFile(corruptPath, []byte("{not json"), 0o644)
	corrupt, _ := New(corruptPath, Records, nil)
	if _, err := corrupt.Load(context.Background()); !errors.Is(err, core.ErrCorruptRecord) {
		t.Fatalf("expected corrupt record, got %v", err)
	}

	badNumberPath := filepath.Join(dir, "bad.json")
	os.WriteFile(badNumberPath, []byte(`[{"name": "x", "amount": "lots"}]`), 0o644)
	badNumber, _ := New(badNumberPath, Records, nil)
	if _, err := badNumber.Load(context.Background()); !errors.Is(err, core.ErrCorruptRecord) {
		t.Fatalf("expected corrupt record for bad amount, got %v", err)
	}

	futurePath := filepath.Join(dir, "future.yaml")
	os.WriteFile(futurePath, []byte("schema_version: 7\nparticipants: [A]\nexpenses: []\n"), 0o644)
	future, _ := New(futurePath, Snapshot, nil)
	if _, err := future.Load(context.Background()); !errors.Is(err, core.ErrUnsupportedSchema) {
		t.Fatalf("expected unsupported schema, got %v", err)
	}
}

func TestNewRejectsBadArguments(t *testing.T) {
	if _, err := New(" ", Records, nil); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error for empty path, got %v", err)
	}
	if _, err := New("x.json", Format("binary"), nil); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error for unknown format, got %v", err)
	}
}

func TestSaveReplacesFileAtomically(t *testing.T) {
	l := sampleLedger(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "ledger.yml")
	s, _ := New(path, Snapshot, l.Participants())
	for i := 0; i < 2; i++ {
		if err := s.Save(context.Background(), l.Snapshot()); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "ledger.yml" {
		t.Fatalf("unexpected files left behind: %v", entries)
	}
}
