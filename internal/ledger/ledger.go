// Package ledger holds the ordered collection of expenses shared by a
// fixed roster of participants, and aggregates their shares.
package ledger

import (
	"fmt"
	"strings"

	"budget/internal/core"

	"github.com/shopspring/decimal"
)

// SchemaVersion is the version written into every Snapshot.
const SchemaVersion = 1

// DefaultParticipants is the roster used when none is configured.
var DefaultParticipants = []string{"A", "B"}

var twelve = decimal.NewFromInt(12)

type (
	// Ledger owns the expenses in insertion order and the participant
	// roster. It is not safe for concurrent use.
	Ledger struct {
		participants []string
		expenses     []core.Expense
	}

	// ParticipantShare is one row of the share summary.
	ParticipantShare struct {
		Participant string
		Yearly      decimal.Decimal
		Monthly     decimal.Decimal
	}

	// DueExpense is an expense projected to the fields shown for a month.
	DueExpense struct {
		Name   string
		Amount decimal.Decimal
	}

	// Snapshot is the versioned whole-ledger form used for exact restore.
	Snapshot struct {
		SchemaVersion int
		Participants  []string
		Expenses      []core.Record
	}
)

// New creates an empty ledger. Names are trimmed; empty or repeated names
// are rejected. With no names the DefaultParticipants roster is used.
func New(participants ...string) (*Ledger, error) {
	if len(participants) == 0 {
		participants = DefaultParticipants
	}
	roster := make([]string, 0, len(participants))
	seen := make(map[string]struct{}, len(participants))
	for _, p := range participants {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, fmt.Errorf("participant: %w", core.ErrEmptyName)
		}
		if _, ok := seen[p]; ok {
			return nil, fmt.Errorf("%w: participant %q listed twice", core.ErrValidation, p)
		}
		seen[p] = struct{}{}
		roster = append(roster, p)
	}
	return &Ledger{participants: roster}, nil
}

// Participants returns a copy of the roster in order.
func (l *Ledger) Participants() []string {
	return append([]string(nil), l.participants...)
}

// Len returns the number of expenses.
func (l *Ledger) Len() int {
	return len(l.expenses)
}

// Expenses returns copies of all expenses in ledger order.
func (l *Ledger) Expenses() []core.Expense {
	out := make([]core.Expense, len(l.expenses))
	for i, e := range l.expenses {
		out[i] = e.Clone()
	}
	return out
}

// Expense returns a copy of the named expense.
func (l *Ledger) Expense(name string) (core.Expense, error) {
	i := l.indexOf(name)
	if i < 0 {
		return core.Expense{}, fmt.Errorf("%q: %w", name, core.ErrExpenseNotFound)
	}
	return l.expenses[i].Clone(), nil
}

// AddExpense appends a new expense. Participants of the roster missing
// from shares get a zero share; names outside the roster are rejected.
func (l *Ledger) AddExpense(name string, amount decimal.Decimal, paymentsPerYear, firstMonth int, shares core.Shares) (core.Expense, error) {
	name = strings.TrimSpace(name)
	if l.indexOf(name) >= 0 {
		return core.Expense{}, fmt.Errorf("%q: %w", name, core.ErrDuplicateName)
	}
	normalized, err := l.normalizeShares(shares, nil)
	if err != nil {
		return core.Expense{}, err
	}
	e, err := core.NewExpense(name, amount, paymentsPerYear, firstMonth, normalized)
	if err != nil {
		return core.Expense{}, err
	}
	l.expenses = append(l.expenses, e)
	return e.Clone(), nil
}

// DeleteExpense removes the named expense.
func (l *Ledger) DeleteExpense(name string) error {
	i := l.indexOf(name)
	if i < 0 {
		return fmt.Errorf("%q: %w", name, core.ErrExpenseNotFound)
	}
	l.expenses = append(l.expenses[:i], l.expenses[i+1:]...)
	return nil
}

// EditExpense applies u to the named expense. A rename may not collide
// with another expense. Shares may keep participants outside the roster
// that the expense already carries; new unknown names are rejected. On any
// error the ledger is unchanged.
func (l *Ledger) EditExpense(name string, u core.ExpenseUpdate) (core.Expense, error) {
	i := l.indexOf(name)
	if i < 0 {
		return core.Expense{}, fmt.Errorf("%q: %w", name, core.ErrExpenseNotFound)
	}
	if u.Name != nil {
		newName := strings.TrimSpace(*u.Name)
		if j := l.indexOf(newName); j >= 0 && j != i {
			return core.Expense{}, fmt.Errorf("%q: %w", newName, core.ErrDuplicateName)
		}
	}
	if u.Shares != nil {
		normalized, err := l.normalizeShares(u.Shares, l.expenses[i].Shares)
		if err != nil {
			return core.Expense{}, err
		}
		u.Shares = normalized
	}
	next := l.expenses[i].Clone()
	if err := next.Update(u); err != nil {
		return core.Expense{}, err
	}
	l.expenses[i] = next
	return next.Clone(), nil
}

// ShareSummary returns each participant's yearly total across all
// expenses and the monthly figure total/12, in roster order.
func (l *Ledger) ShareSummary() []ParticipantShare {
	out := make([]ParticipantShare, len(l.participants))
	for i, p := range l.participants {
		total := decimal.Zero
		for _, e := range l.expenses {
			total = total.Add(e.Allocation(p))
		}
		out[i] = ParticipantShare{Participant: p, Yearly: total, Monthly: total.Div(twelve)}
	}
	return out
}

// ExpensesDueInMonth returns, in ledger order, the expenses with a payment
// falling in month.
func (l *Ledger) ExpensesDueInMonth(month int) ([]DueExpense, error) {
	if err := core.ValidateMonth(month); err != nil {
		return nil, err
	}
	var out []DueExpense
	for _, e := range l.expenses {
		if e.DueIn(month) {
			out = append(out, DueExpense{Name: e.Name, Amount: e.Amount})
		}
	}
	return out, nil
}

// ExportAll serializes every expense in insertion order.
func (l *Ledger) ExportAll() []core.Record {
	out := make([]core.Record, len(l.expenses))
	for i, e := range l.expenses {
		out[i] = e.Record()
	}
	return out
}

// ImportAll replaces the expense list with records. Shares keyed to
// participants outside the roster are kept as they are. Nothing changes
// unless every record is valid and names are unique.
func (l *Ledger) ImportAll(records []core.Record) error {
	expenses, err := buildExpenses(records)
	if err != nil {
		return err
	}
	l.expenses = expenses
	return nil
}

// Snapshot returns the whole ledger in versioned form.
func (l *Ledger) Snapshot() Snapshot {
	return Snapshot{
		SchemaVersion: SchemaVersion,
		Participants:  l.Participants(),
		Expenses:      l.ExportAll(),
	}
}

// FromSnapshot restores a ledger written by Snapshot.
func FromSnapshot(s Snapshot) (*Ledger, error) {
	if s.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("version %d: %w", s.SchemaVersion, core.ErrUnsupportedSchema)
	}
	l, err := New(s.Participants...)
	if err != nil {
		return nil, err
	}
	if err := l.ImportAll(s.Expenses); err != nil {
		return nil, err
	}
	return l, nil
}

func buildExpenses(records []core.Record) ([]core.Expense, error) {
	expenses := make([]core.Expense, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for i, r := range records {
		e, err := core.FromRecord(r)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if _, ok := seen[e.Name]; ok {
			return nil, fmt.Errorf("record %d: %q: %w", i, e.Name, core.ErrDuplicateName)
		}
		seen[e.Name] = struct{}{}
		expenses = append(expenses, e)
	}
	return expenses, nil
}

// normalizeShares fills roster participants missing from shares with zero.
// Names outside the roster are accepted only when carried holds them.
func (l *Ledger) normalizeShares(shares, carried core.Shares) (core.Shares, error) {
	out := make(core.Shares, len(l.participants))
	for _, p := range l.participants {
		out[p] = decimal.Zero
	}
	for p, pct := range shares {
		if _, ok := out[p]; !ok {
			if _, held := carried[p]; !held {
				return nil, fmt.Errorf("%q: %w", p, core.ErrUnknownParticipant)
			}
		}
		out[p] = pct
	}
	return out, nil
}

// indexOf matches names the way AddExpense stores them, trimmed.
func (l *Ledger) indexOf(name string) int {
	name = strings.TrimSpace(name)
	for i, e := range l.expenses {
		if e.Name == name {
			return i
		}
	}
	return -1
}
