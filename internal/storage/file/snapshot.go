package file

import (
	"encoding/json"
	"fmt"

	"budget/internal/core"
	"budget/internal/ledger"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// snapshotDoc is the on-disk form of a ledger.Snapshot. Decimals are
// strings so YAML and JSON keep them exact.
type snapshotDoc struct {
	SchemaVersion int               `json:"schema_version" yaml:"schema_version"`
	Participants  []string          `json:"participants" yaml:"participants"`
	Expenses      []snapshotExpense `json:"expenses" yaml:"expenses"`
}

type snapshotExpense struct {
	Name            string          `json:"name" yaml:"name"`
	Amount          string          `json:"amount" yaml:"amount"`
	PaymentsPerYear int             `json:"payments_per_year" yaml:"payments_per_year"`
	FirstMonth      int             `json:"first_month" yaml:"first_month"`
	Shares          []snapshotShare `json:"shares" yaml:"shares"`
	PaymentMonths   []int           `json:"payment_months" yaml:"payment_months,flow"`
	TotalPerYear    string          `json:"total_per_year" yaml:"total_per_year"`
}

type snapshotShare struct {
	Participant string `json:"participant" yaml:"participant"`
	Percent     string `json:"percent" yaml:"percent"`
	Amount      string `json:"amount,omitempty" yaml:"amount,omitempty"`
}

func encodeSnapshotJSON(snap ledger.Snapshot) ([]byte, error) {
	return json.MarshalIndent(toDoc(snap), "", "  ")
}

func encodeSnapshotYAML(snap ledger.Snapshot) ([]byte, error) {
	return yaml.Marshal(toDoc(snap))
}

func decodeSnapshotJSON(data []byte) (ledger.Snapshot, error) {
	var doc snapshotDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return ledger.Snapshot{}, fmt.Errorf("%w: %v", core.ErrCorruptRecord, err)
	}
	return fromDoc(doc)
}

func decodeSnapshotYAML(data []byte) (ledger.Snapshot, error) {
	var doc snapshotDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return ledger.Snapshot{}, fmt.Errorf("%w: %v", core.ErrCorruptRecord, err)
	}
	return fromDoc(doc)
}

func toDoc(snap ledger.Snapshot) snapshotDoc {
	doc := snapshotDoc{
		SchemaVersion: snap.SchemaVersion,
		Participants:  snap.Participants,
		Expenses:      make([]snapshotExpense, len(snap.Expenses)),
	}
	for i, r := range snap.Expenses {
		e := snapshotExpense{
			Name:            r.Name,
			Amount:          r.Amount.String(),
			PaymentsPerYear: r.PaymentsPerYear,
			FirstMonth:      r.FirstMonth,
			PaymentMonths:   r.PaymentMonths,
			TotalPerYear:    r.TotalPerYear.String(),
		}
		for _, p := range shareOrder(snap.Participants, r.SharePercents) {
			share := snapshotShare{Participant: p, Percent: r.SharePercents[p].String()}
			if amt, ok := r.ShareAmounts[p]; ok {
				share.Amount = amt.String()
			}
			e.Shares = append(e.Shares, share)
		}
		doc.Expenses[i] = e
	}
	return doc
}

func fromDoc(doc snapshotDoc) (ledger.Snapshot, error) {
	if doc.SchemaVersion != ledger.SchemaVersion {
		return ledger.Snapshot{}, fmt.Errorf("version %d: %w", doc.SchemaVersion, core.ErrUnsupportedSchema)
	}
	snap := ledger.Snapshot{
		SchemaVersion: doc.SchemaVersion,
		Participants:  doc.Participants,
		Expenses:      make([]core.Record, len(doc.Expenses)),
	}
	for i, e := range doc.Expenses {
		r := core.Record{
			Name:            e.Name,
			PaymentsPerYear: e.PaymentsPerYear,
			FirstMonth:      e.FirstMonth,
			PaymentMonths:   e.PaymentMonths,
			SharePercents:   make(map[string]decimal.Decimal, len(e.Shares)),
		}
		var err error
		if r.Amount, err = decimal.NewFromString(e.Amount); err != nil {
			return ledger.Snapshot{}, fmt.Errorf("%w: expense %q amount: %v", core.ErrCorruptRecord, e.Name, err)
		}
		if e.TotalPerYear != "" {
			if r.TotalPerYear, err = decimal.NewFromString(e.TotalPerYear); err != nil {
				return ledger.Snapshot{}, fmt.Errorf("%w: expense %q total: %v", core.ErrCorruptRecord, e.Name, err)
			}
		}
		for _, s := range e.Shares {
			pct, err := decimal.NewFromString(s.Percent)
			if err != nil {
				return ledger.Snapshot{}, fmt.Errorf("%w: expense %q share %q: %v", core.ErrCorruptRecord, e.Name, s.Participant, err)
			}
			r.SharePercents[s.Participant] = pct
		}
		snap.Expenses[i] = r
	}
	return snap, nil
}

// shareOrder lists roster participants first, then any others sorted.
func shareOrder(roster []string, percents map[string]decimal.Decimal) []string {
	out := make([]string, 0, len(percents))
	seen := make(map[string]bool, len(roster))
	for _, p := range roster {
		if _, ok := percents[p]; ok {
			out = append(out, p)
			seen[p] = true
		}
	}
	rest := core.Shares(percents).Participants()
	for _, p := range rest {
		if !seen[p] {
			out = append(out, p)
		}
	}
	return out
}
