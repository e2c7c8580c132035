// Package core provides the expense model and its parsing helpers.
//
// This file contains functions for parsing amounts and whole numbers typed
// by a user, tolerating both dot and comma decimal separators.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseDecimal converts a decimal string to a non-negative decimal.
//
// It accepts both dot (12.34) and comma (12,34) separators. Signs,
// exponents and thousands separators are rejected with ErrMalformedInput.
//
// Examples:
//
//	ParseDecimal("12.34") -> 12.34, nil
//	ParseDecimal("12,34") -> 12.34, nil
//	ParseDecimal(",5")    -> 0.5, nil
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty number", ErrMalformedInput)
	}
	s = strings.ReplaceAll(s, ",", ".")
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrMalformedInput, s)
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" && fracPart == "" {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrMalformedInput, s)
	}
	if !allDigits(intPart) || !allDigits(fracPart) {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrMalformedInput, s)
	}
	if intPart == "" {
		intPart = "0"
	}
	if fracPart != "" {
		intPart += "." + fracPart
	}
	d, err := decimal.NewFromString(intPart)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	return d, nil
}

// ParseWholeNumber accepts ASCII digits only; signs and spaces inside the
// number are rejected.
func ParseWholeNumber(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" || !allDigits(s) {
		return 0, fmt.Errorf("%w: %q is not a whole number", ErrMalformedInput, s)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	return n, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) || r > unicode.MaxASCII {
			return false
		}
	}
	return true
}
