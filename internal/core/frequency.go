package core

import "fmt"

// Frequency names a payments-per-year count that divides the year evenly.
type Frequency string

const (
	Yearly         Frequency = "yearly"
	Semiannual     Frequency = "semiannual"
	EveryFourMonth Frequency = "every four months"
	Quarterly      Frequency = "quarterly"
	Bimonthly      Frequency = "bimonthly"
	Monthly        Frequency = "monthly"
)

// frequencies maps payments per year to their label.
var frequencies = map[int]Frequency{
	1:  Yearly,
	2:  Semiannual,
	3:  EveryFourMonth,
	4:  Quarterly,
	6:  Bimonthly,
	12: Monthly,
}

// FrequencyOf returns the label for a payments-per-year count.
func FrequencyOf(paymentsPerYear int) (Frequency, error) {
	f, ok := frequencies[paymentsPerYear]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnevenFrequency, paymentsPerYear)
	}
	return f, nil
}

// Label returns the frequency label, or "N/year" for counts without one.
func Label(paymentsPerYear int) string {
	if f, err := FrequencyOf(paymentsPerYear); err == nil {
		return string(f)
	}
	return fmt.Sprintf("%d/year", paymentsPerYear)
}

// Interval returns the number of months between payments.
func (e Expense) Interval() int {
	if e.PaymentsPerYear < 1 {
		return 0
	}
	return monthsPerYear / e.PaymentsPerYear
}
