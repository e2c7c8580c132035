package core

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Error kinds. Every error returned by the ledger and its stores wraps
// exactly one of these, so callers can classify with errors.Is.
var (
	ErrValidation     = errors.New("validation error")
	ErrNotFound       = errors.New("not found")
	ErrMalformedInput = errors.New("malformed input")
	ErrPersistence    = errors.New("persistence error")
)

var (
	ErrEmptyName          = fmt.Errorf("%w: empty name", ErrValidation)
	ErrNegativeAmount     = fmt.Errorf("%w: amount cannot be negative", ErrValidation)
	ErrInvalidFrequency   = fmt.Errorf("%w: payments per year must be at least 1", ErrValidation)
	ErrUnevenFrequency    = fmt.Errorf("%w: payments per year must divide 12", ErrValidation)
	ErrInvalidMonth       = fmt.Errorf("%w: month must be between 1 and 12", ErrValidation)
	ErrNegativeShare      = fmt.Errorf("%w: share percentage cannot be negative", ErrValidation)
	ErrNoShares           = fmt.Errorf("%w: no shares given", ErrValidation)
	ErrSharesNotHundred   = fmt.Errorf("%w: shares must sum to 100", ErrValidation)
	ErrUnknownParticipant = fmt.Errorf("%w: unknown participant", ErrValidation)
	ErrDuplicateName      = fmt.Errorf("%w: expense already exists", ErrValidation)
	ErrExpenseNotFound    = fmt.Errorf("%w: expense not found", ErrNotFound)
	ErrCorruptRecord      = fmt.Errorf("%w: corrupt record", ErrPersistence)
	ErrUnsupportedSchema  = fmt.Errorf("%w: unsupported snapshot schema", ErrPersistence)
)

// ShareSumError reports a share set whose percentages do not add up to 100.
type ShareSumError struct {
	Total decimal.Decimal
}

func (e *ShareSumError) Error() string {
	return fmt.Sprintf("shares must sum to 100, got %s", e.Total.String())
}

// Is makes a ShareSumError match ErrSharesNotHundred and ErrValidation.
func (e *ShareSumError) Is(target error) bool {
	return target == ErrSharesNotHundred || target == ErrValidation
}

// Persistence wraps a storage failure so it classifies as ErrPersistence
// while keeping the underlying cause reachable.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrPersistence) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
