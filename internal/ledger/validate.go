package ledger

import (
	"errors"
	"fmt"

	"github.com/IlyasAtabaev731/khata/internal/lib/script"
	"github.com/shopspring/decimal"
)

var ErrSerialOrder = errors.New("ending number is before starting number")

// FieldError ties a validation failure to the field that caused it.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Field, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// urduField normalizes value and checks it is Urdu script.
func urduField(field, value string) (string, error) {
	normalized := script.Normalize(value)
	if !script.IsUrdu(normalized) {
		return "", &FieldError{Field: field, Value: value, Err: ErrInvalidScript}
	}
	return normalized, nil
}

// checkAmount enforces the non-negative whole-unit rule on money and serials.
func checkAmount(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return &FieldError{Field: field, Value: v.String(), Err: ErrNegativeAmount}
	}
	if !v.IsInteger() {
		return &FieldError{Field: field, Value: v.String(), Err: ErrFractionalAmount}
	}
	return nil
}

func checkSerials(start, end decimal.Decimal) error {
	if err := checkAmount("StartingNum", start); err != nil {
		return err
	}
	if err := checkAmount("EndingNum", end); err != nil {
		return err
	}
	if end.LessThan(start) {
		return &FieldError{Field: "EndingNum", Value: end.String(), Err: ErrSerialOrder}
	}
	return nil
}
