package google

import (
	"fmt"
	"strconv"
	"strings"

	"budget/internal/core"
	"budget/internal/ledger"

	"github.com/shopspring/decimal"
)

const (
	colName          = "Name"
	colAmount        = "Amount"
	colPaymentsYear  = "Payments per year"
	colFrequency     = "Frequency"
	colFirstMonth    = "First month"
	colPaymentMonths = "Payment months"
	colTotalYear     = "Total per year"

	percentSuffix = " %"
	amountSuffix  = " share"
)

// renderLedgerRows lays the snapshot out as a header row plus one row per
// expense. Each participant gets a percent column and a yearly amount column.
func renderLedgerRows(snap ledger.Snapshot) [][]interface{} {
	participants := columnParticipants(snap)

	header := []interface{}{colName, colAmount, colPaymentsYear, colFrequency, colFirstMonth, colPaymentMonths, colTotalYear}
	for _, p := range participants {
		header = append(header, p+percentSuffix, p+amountSuffix)
	}

	rows := make([][]interface{}, 0, len(snap.Expenses)+1)
	rows = append(rows, header)
	for _, r := range snap.Expenses {
		row := []interface{}{
			r.Name,
			r.Amount.String(),
			r.PaymentsPerYear,
			core.Label(r.PaymentsPerYear),
			r.FirstMonth,
			joinMonths(r.PaymentMonths),
			r.TotalPerYear.String(),
		}
		for _, p := range participants {
			row = append(row, cellValue(r.SharePercents, p), cellValue(r.ShareAmounts, p))
		}
		rows = append(rows, row)
	}
	return rows
}

// parseLedgerRows reads rows written by renderLedgerRows. Rows without a
// name are skipped. An empty sheet is an empty ledger with no roster.
func parseLedgerRows(values [][]interface{}) (ledger.Snapshot, error) {
	snap := ledger.Snapshot{SchemaVersion: ledger.SchemaVersion}
	if len(values) == 0 {
		return snap, nil
	}

	header := toStrings(values[0])
	idx := map[string]int{}
	for _, col := range []string{colName, colAmount, colPaymentsYear, colFirstMonth} {
		i := indexOf(header, col)
		if i < 0 {
			return ledger.Snapshot{}, fmt.Errorf("%w: header missing %q", core.ErrCorruptRecord, col)
		}
		idx[col] = i
	}
	idx[colPaymentMonths] = indexOf(header, colPaymentMonths)
	idx[colTotalYear] = indexOf(header, colTotalYear)

	type shareCols struct{ percent, amount int }
	shares := map[string]shareCols{}
	for i, h := range header {
		if p, ok := strings.CutSuffix(h, percentSuffix); ok && p != "" {
			snap.Participants = append(snap.Participants, p)
			shares[p] = shareCols{percent: i, amount: indexOf(header, p+amountSuffix)}
		}
	}

	for n, raw := range values[1:] {
		row := toStrings(raw)
		name := safeGet(row, idx[colName])
		if name == "" {
			continue
		}
		line := n + 2

		r := core.Record{
			Name:          name,
			SharePercents: map[string]decimal.Decimal{},
			ShareAmounts:  map[string]decimal.Decimal{},
		}
		var err error
		if r.Amount, err = parseCellDecimal(safeGet(row, idx[colAmount])); err != nil {
			return ledger.Snapshot{}, rowError(line, colAmount, err)
		}
		if r.PaymentsPerYear, err = parseCellInt(safeGet(row, idx[colPaymentsYear])); err != nil {
			return ledger.Snapshot{}, rowError(line, colPaymentsYear, err)
		}
		if r.FirstMonth, err = parseCellInt(safeGet(row, idx[colFirstMonth])); err != nil {
			return ledger.Snapshot{}, rowError(line, colFirstMonth, err)
		}
		if r.PaymentMonths, err = splitMonths(safeGet(row, idx[colPaymentMonths])); err != nil {
			return ledger.Snapshot{}, rowError(line, colPaymentMonths, err)
		}
		if total := safeGet(row, idx[colTotalYear]); total != "" {
			if r.TotalPerYear, err = parseCellDecimal(total); err != nil {
				return ledger.Snapshot{}, rowError(line, colTotalYear, err)
			}
		}

		for _, p := range snap.Participants {
			cols := shares[p]
			if pct := safeGet(row, cols.percent); pct != "" {
				v, err := parseCellDecimal(pct)
				if err != nil {
					return ledger.Snapshot{}, rowError(line, p+percentSuffix, err)
				}
				r.SharePercents[p] = v
			}
			if amt := safeGet(row, cols.amount); amt != "" {
				v, err := parseCellDecimal(amt)
				if err != nil {
					return ledger.Snapshot{}, rowError(line, p+amountSuffix, err)
				}
				r.ShareAmounts[p] = v
			}
		}
		snap.Expenses = append(snap.Expenses, r)
	}
	return snap, nil
}

// columnParticipants lists the roster, then any share holders outside it.
func columnParticipants(snap ledger.Snapshot) []string {
	out := append([]string(nil), snap.Participants...)
	seen := map[string]bool{}
	for _, p := range out {
		seen[p] = true
	}
	for _, r := range snap.Expenses {
		for _, p := range core.Shares(r.SharePercents).Participants() {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}

func rowError(line int, col string, err error) error {
	return fmt.Errorf("row %d %s: %w", line, col, err)
}

func cellValue(m map[string]decimal.Decimal, p string) interface{} {
	v, ok := m[p]
	if !ok {
		return ""
	}
	return v.String()
}

func parseCellDecimal(s string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", core.ErrCorruptRecord, s)
	}
	return v, nil
}

func parseCellInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a whole number", core.ErrCorruptRecord, s)
	}
	return n, nil
}

func joinMonths(months []int) string {
	parts := make([]string, len(months))
	for i, m := range months {
		parts[i] = strconv.Itoa(m)
	}
	return strings.Join(parts, " ")
}

func splitMonths(s string) ([]int, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' || r == ';' })
	if len(fields) == 0 {
		return nil, nil
	}
	out := make([]int, len(fields))
	for i, f := range fields {
		m, err := parseCellInt(f)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

// toStrings renders cells as trimmed text. Unformatted numbers come back
// as float64 and are printed without an exponent.
func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch x := v.(type) {
		case float64:
			out[i] = strconv.FormatFloat(x, 'f', -1, 64)
		default:
			out[i] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
