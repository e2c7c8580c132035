package file

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"budget/internal/core"

	"github.com/shopspring/decimal"
)

// legacyShareSuffix marks the per-participant share amount fields of
// files that predate the shares object, e.g. "naja_share".
const legacyShareSuffix = "_share"

// recordJSON is one flat element of the records array. Numbers are
// written as JSON numbers without passing through float64.
type recordJSON struct {
	Name            string                 `json:"name"`
	Amount          json.Number            `json:"amount"`
	PaymentsPerYear int                    `json:"payments_per_year"`
	FirstMonth      int                    `json:"first_month"`
	Shares          map[string]json.Number `json:"shares,omitempty"`
	SharePercents   map[string]json.Number `json:"share_percents,omitempty"`
	PaymentMonths   []int                  `json:"payment_months"`
	TotalPerYear    json.Number            `json:"total_per_year"`
}

// encodeRecords writes each record with its shares object and, for older
// readers, one flat "<participant>_share" amount field per participant.
func encodeRecords(records []core.Record) ([]byte, error) {
	out := make([]flatRecord, len(records))
	for i, r := range records {
		out[i] = flatRecord{
			recordJSON: recordJSON{
				Name:            r.Name,
				Amount:          json.Number(r.Amount.String()),
				PaymentsPerYear: r.PaymentsPerYear,
				FirstMonth:      r.FirstMonth,
				Shares:          numbers(r.ShareAmounts),
				SharePercents:   numbers(r.SharePercents),
				PaymentMonths:   r.PaymentMonths,
				TotalPerYear:    json.Number(r.TotalPerYear.String()),
			},
			legacy: legacyFields(r.ShareAmounts),
		}
	}
	return json.MarshalIndent(out, "", "  ")
}

type flatRecord struct {
	recordJSON
	legacy map[string]json.Number
}

func (f flatRecord) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(f.recordJSON)
	if err != nil {
		return nil, err
	}
	if len(f.legacy) == 0 {
		return data, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for k, v := range f.legacy {
		if _, taken := fields[k]; !taken {
			fields[k] = json.RawMessage(v)
		}
	}
	return json.Marshal(fields)
}

// legacyFields keys share amounts as lower-case "<participant>_share".
// Names that collide once lower-cased keep the first in sorted order.
func legacyFields(amounts map[string]decimal.Decimal) map[string]json.Number {
	if len(amounts) == 0 {
		return nil
	}
	out := make(map[string]json.Number, len(amounts))
	for _, p := range core.Shares(amounts).Participants() {
		key := strings.ToLower(p) + legacyShareSuffix
		if _, ok := out[key]; !ok {
			out[key] = json.Number(amounts[p].String())
		}
	}
	return out
}

func decodeRecords(data []byte, participants []string) ([]core.Record, error) {
	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrCorruptRecord, err)
	}
	records := make([]core.Record, 0, len(raw))
	for i, fields := range raw {
		r, err := decodeRecord(fields, participants)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, r)
	}
	return records, nil
}

func decodeRecord(fields map[string]json.RawMessage, participants []string) (core.Record, error) {
	var wire recordJSON
	known, err := json.Marshal(fields)
	if err != nil {
		return core.Record{}, fmt.Errorf("%w: %v", core.ErrCorruptRecord, err)
	}
	dec := json.NewDecoder(bytes.NewReader(known))
	dec.UseNumber()
	if err := dec.Decode(&wire); err != nil {
		return core.Record{}, fmt.Errorf("%w: %v", core.ErrCorruptRecord, err)
	}
	if wire.Name == "" {
		return core.Record{}, fmt.Errorf("%w: missing name", core.ErrCorruptRecord)
	}

	r := core.Record{
		Name:            wire.Name,
		PaymentsPerYear: wire.PaymentsPerYear,
		FirstMonth:      wire.FirstMonth,
		PaymentMonths:   wire.PaymentMonths,
	}
	if r.Amount, err = parseNumber("amount", wire.Amount); err != nil {
		return core.Record{}, err
	}
	if wire.TotalPerYear != "" {
		if r.TotalPerYear, err = parseNumber("total_per_year", wire.TotalPerYear); err != nil {
			return core.Record{}, err
		}
	}
	if r.SharePercents, err = parseNumbers(wire.SharePercents); err != nil {
		return core.Record{}, err
	}
	if r.ShareAmounts, err = parseNumbers(wire.Shares); err != nil {
		return core.Record{}, err
	}
	if len(r.ShareAmounts) == 0 {
		if r.ShareAmounts, err = legacyShares(fields, participants); err != nil {
			return core.Record{}, err
		}
	}
	return r, nil
}

// legacyShares collects "<participant>_share" fields, matching the prefix
// to a roster name case-insensitively and keeping it as-is otherwise.
func legacyShares(fields map[string]json.RawMessage, participants []string) (map[string]decimal.Decimal, error) {
	out := map[string]decimal.Decimal{}
	for key, raw := range fields {
		if !strings.HasSuffix(key, legacyShareSuffix) || key == legacyShareSuffix {
			continue
		}
		var n json.Number
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&n); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", core.ErrCorruptRecord, key, err)
		}
		v, err := parseNumber(key, n)
		if err != nil {
			return nil, err
		}
		out[rosterName(strings.TrimSuffix(key, legacyShareSuffix), participants)] = v
	}
	return out, nil
}

func rosterName(prefix string, participants []string) string {
	for _, p := range participants {
		if strings.EqualFold(p, prefix) {
			return p
		}
	}
	return prefix
}

func numbers(in map[string]decimal.Decimal) map[string]json.Number {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]json.Number, len(in))
	for k, v := range in {
		out[k] = json.Number(v.String())
	}
	return out
}

func parseNumbers(in map[string]json.Number) (map[string]decimal.Decimal, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[string]decimal.Decimal, len(in))
	for k, n := range in {
		v, err := parseNumber(k, n)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

func parseNumber(field string, n json.Number) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(string(n))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %v", core.ErrCorruptRecord, field, err)
	}
	return v, nil
}
