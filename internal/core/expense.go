package core

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

const monthsPerYear = 12

var hundred = decimal.NewFromInt(100)

type (
	// Shares maps a participant name to a percentage of an expense.
	Shares map[string]decimal.Decimal

	// Expense is one recurring cost together with its derived schedule
	// and per-participant allocation. Derived fields are recomputed by
	// NewExpense and Update and must not be edited directly.
	Expense struct {
		Name            string
		Amount          decimal.Decimal // per payment
		PaymentsPerYear int
		FirstMonth      int // 1-12
		Shares          Shares

		TotalPerYear  decimal.Decimal
		PaymentMonths []int
		Allocations   map[string]decimal.Decimal // yearly amount per participant
	}

	// ExpenseUpdate carries the fields of an edit. Nil fields keep their
	// current value; a nil Shares keeps the current shares.
	ExpenseUpdate struct {
		Name            *string
		Amount          *decimal.Decimal
		PaymentsPerYear *int
		FirstMonth      *int
		Shares          Shares
	}
)

// Schedule returns the months on which payments fall, starting at
// firstMonth and spaced 12/paymentsPerYear months apart, wrapping past
// December. The interval uses integer division, so a frequency that does
// not divide 12 yields repeated months.
func Schedule(firstMonth, paymentsPerYear int) []int {
	if paymentsPerYear < 1 {
		return nil
	}
	interval := monthsPerYear / paymentsPerYear
	months := make([]int, paymentsPerYear)
	for i := range months {
		months[i] = ((firstMonth-1)+i*interval)%monthsPerYear + 1
	}
	return months
}

// NewExpense validates the inputs and returns a fully derived expense.
func NewExpense(name string, amount decimal.Decimal, paymentsPerYear, firstMonth int, shares Shares) (Expense, error) {
	e := Expense{
		Name:            strings.TrimSpace(name),
		Amount:          amount,
		PaymentsPerYear: paymentsPerYear,
		FirstMonth:      firstMonth,
		Shares:          shares.Clone(),
	}
	if err := e.Validate(); err != nil {
		return Expense{}, err
	}
	e.recompute()
	return e, nil
}

// Validate checks the input fields of the expense.
func (e Expense) Validate() error {
	if e.Name == "" {
		return ErrEmptyName
	}
	if e.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	if err := ValidateFrequency(e.PaymentsPerYear); err != nil {
		return err
	}
	if err := ValidateMonth(e.FirstMonth); err != nil {
		return err
	}
	return e.Shares.Validate()
}

// ValidateMonth reports whether month is a calendar month.
func ValidateMonth(month int) error {
	if month < 1 || month > monthsPerYear {
		return ErrInvalidMonth
	}
	return nil
}

// ValidateFrequency accepts only payment counts that divide the year evenly.
func ValidateFrequency(paymentsPerYear int) error {
	if paymentsPerYear < 1 {
		return ErrInvalidFrequency
	}
	if monthsPerYear%paymentsPerYear != 0 {
		return ErrUnevenFrequency
	}
	return nil
}

// Update applies u to the expense. The whole candidate is validated first;
// on error the expense is left untouched.
func (e *Expense) Update(u ExpenseUpdate) error {
	next := e.Clone()
	if u.Name != nil {
		next.Name = strings.TrimSpace(*u.Name)
	}
	if u.Amount != nil {
		next.Amount = *u.Amount
	}
	if u.PaymentsPerYear != nil {
		next.PaymentsPerYear = *u.PaymentsPerYear
	}
	if u.FirstMonth != nil {
		next.FirstMonth = *u.FirstMonth
	}
	if u.Shares != nil {
		next.Shares = u.Shares.Clone()
	}
	if err := next.Validate(); err != nil {
		return err
	}
	next.recompute()
	*e = next
	return nil
}

// Allocation returns the yearly amount owed by participant.
func (e Expense) Allocation(participant string) decimal.Decimal {
	return e.Allocations[participant]
}

// DueIn reports whether a payment falls in month.
func (e Expense) DueIn(month int) bool {
	for _, m := range e.PaymentMonths {
		if m == month {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers cannot alias ledger state.
func (e Expense) Clone() Expense {
	out := e
	out.Shares = e.Shares.Clone()
	out.PaymentMonths = append([]int(nil), e.PaymentMonths...)
	if e.Allocations != nil {
		out.Allocations = make(map[string]decimal.Decimal, len(e.Allocations))
		for p, v := range e.Allocations {
			out.Allocations[p] = v
		}
	}
	return out
}

func (e *Expense) recompute() {
	e.TotalPerYear = e.Amount.Mul(decimal.NewFromInt(int64(e.PaymentsPerYear)))
	e.PaymentMonths = Schedule(e.FirstMonth, e.PaymentsPerYear)
	e.Allocations = make(map[string]decimal.Decimal, len(e.Shares))
	for p, pct := range e.Shares {
		e.Allocations[p] = pct.Div(hundred).Mul(e.TotalPerYear)
	}
}

// Total returns the sum of all percentages.
func (s Shares) Total() decimal.Decimal {
	total := decimal.Zero
	for _, pct := range s {
		total = total.Add(pct)
	}
	return total
}

// Validate requires at least one non-negative share and a total of exactly 100.
func (s Shares) Validate() error {
	if len(s) == 0 {
		return ErrNoShares
	}
	for _, pct := range s {
		if pct.IsNegative() {
			return ErrNegativeShare
		}
	}
	if total := s.Total(); !total.Equal(hundred) {
		return &ShareSumError{Total: total}
	}
	return nil
}

// Participants returns the participant names in sorted order.
func (s Shares) Participants() []string {
	names := make([]string, 0, len(s))
	for p := range s {
		names = append(names, p)
	}
	sort.Strings(names)
	return names
}

func (s Shares) Clone() Shares {
	if s == nil {
		return nil
	}
	out := make(Shares, len(s))
	for p, pct := range s {
		out[p] = pct
	}
	return out
}
