package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// percentPlaces bounds the precision of percentages recovered from share
// amounts. residueLimit is the largest rounding drift the biggest share
// may absorb.
const percentPlaces = 8

var residueLimit = decimal.New(1, -6)

// Record is the flat, storage-neutral form of an Expense. ShareAmounts is
// the value form and SharePercents the percentage form; either one is
// enough to rebuild the expense.
type Record struct {
	Name            string
	Amount          decimal.Decimal
	PaymentsPerYear int
	FirstMonth      int
	ShareAmounts    map[string]decimal.Decimal
	SharePercents   map[string]decimal.Decimal
	PaymentMonths   []int
	TotalPerYear    decimal.Decimal
}

// Record serializes the expense with both share forms.
func (e Expense) Record() Record {
	r := Record{
		Name:            e.Name,
		Amount:          e.Amount,
		PaymentsPerYear: e.PaymentsPerYear,
		FirstMonth:      e.FirstMonth,
		ShareAmounts:    make(map[string]decimal.Decimal, len(e.Allocations)),
		SharePercents:   make(map[string]decimal.Decimal, len(e.Shares)),
		PaymentMonths:   append([]int(nil), e.PaymentMonths...),
		TotalPerYear:    e.TotalPerYear,
	}
	for p, v := range e.Allocations {
		r.ShareAmounts[p] = v
	}
	for p, v := range e.Shares {
		r.SharePercents[p] = v
	}
	return r
}

// FromRecord rebuilds an expense, recomputing every derived field from the
// inputs. Percentages are taken as stored when present, otherwise they are
// derived from the share amounts as share / total_per_year * 100.
func FromRecord(r Record) (Expense, error) {
	shares := Shares(r.SharePercents)
	if len(shares) == 0 {
		derived, err := percentsFromAmounts(r)
		if err != nil {
			return Expense{}, err
		}
		shares = derived
	}
	e, err := NewExpense(r.Name, r.Amount, r.PaymentsPerYear, r.FirstMonth, shares)
	if err != nil {
		return Expense{}, fmt.Errorf("expense %q: %w", r.Name, err)
	}
	return e, nil
}

func percentsFromAmounts(r Record) (Shares, error) {
	if len(r.ShareAmounts) == 0 {
		return nil, fmt.Errorf("expense %q: %w: no shares", r.Name, ErrCorruptRecord)
	}
	total := r.TotalPerYear
	if total.IsZero() {
		total = r.Amount.Mul(decimal.NewFromInt(int64(r.PaymentsPerYear)))
	}
	if total.IsZero() {
		return nil, fmt.Errorf("expense %q: %w: share percentages cannot be recovered from a zero total", r.Name, ErrCorruptRecord)
	}

	shares := make(Shares, len(r.ShareAmounts))
	for p, amt := range r.ShareAmounts {
		shares[p] = amt.Div(total).Mul(hundred).Round(percentPlaces)
	}

	largest := ""
	for _, p := range shares.Participants() {
		if largest == "" || shares[p].GreaterThanOrEqual(shares[largest]) {
			largest = p
		}
	}
	residue := hundred.Sub(shares.Total())
	if !residue.IsZero() && residue.Abs().LessThanOrEqual(residueLimit) {
		shares[largest] = shares[largest].Add(residue)
	}
	return shares, nil
}
