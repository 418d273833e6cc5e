package reconcile

import (
	"errors"
	"fmt"

	"github.com/IlyasAtabaev731/khata/internal/domain/models"
	"github.com/IlyasAtabaev731/khata/internal/remote"
	"github.com/shopspring/decimal"
)

// MaxSafeInteger is the largest integer a JSON consumer reading numbers as
// IEEE-754 doubles can hold exactly (2^53 - 1).
const MaxSafeInteger int64 = 1<<53 - 1

var (
	ErrOutOfRange = errors.New("value outside the safe integer range")

	maxSafe = decimal.NewFromInt(MaxSafeInteger)
	minSafe = decimal.NewFromInt(-MaxSafeInteger)
)

// OutOfRangeError names the field whose value cannot cross the transport
// boundary without losing precision.
type OutOfRangeError struct {
	TransactionID int64
	Field         string
	Value         decimal.Decimal
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("transaction %d: %s = %s: %v", e.TransactionID, e.Field, e.Value.String(), ErrOutOfRange)
}

func (e *OutOfRangeError) Unwrap() error {
	return ErrOutOfRange
}

// safeInt converts v to int64, failing for fractions and anything beyond
// ±MaxSafeInteger.
func safeInt(txnID int64, field string, v decimal.Decimal) (int64, error) {
	if !v.IsInteger() || v.GreaterThan(maxSafe) || v.LessThan(minSafe) {
		return 0, &OutOfRangeError{TransactionID: txnID, Field: field, Value: v}
	}
	return v.IntPart(), nil
}

// Normalize converts a stored transaction into its wire form.
func Normalize(txn models.Transaction) (remote.Transaction, error) {
	out := remote.Transaction{
		ID:        txn.ID,
		UserID:    txn.UserID,
		ZoneName:  txn.ZoneName,
		KhdaName:  txn.KhdaName,
		Date:      txn.Date,
		Synced:    txn.Synced,
		SyncedAt:  txn.SyncedAt,
		CreatedAt: txn.CreatedAt,
		UpdatedAt: txn.UpdatedAt,
		Trollies:  make([]remote.Trolley, 0, len(txn.Trollies)),
		Expenses:  make([]remote.ExpenseLine, 0, len(txn.Expenses)),
	}

	var err error
	aggregates := []struct {
		field string
		src   decimal.Decimal
		dst   *int64
	}{
		{"KulAmdan", txn.GrossIncome, &out.GrossIncome},
		{"KulAkhrajat", txn.GrossExpenses, &out.GrossExpenses},
		{"SaafiAmdan", txn.NetIncome, &out.NetIncome},
		{"Exercise", txn.Levy, &out.Levy},
		{"KulMaizan", txn.Balance, &out.Balance},
	}
	for _, a := range aggregates {
		if *a.dst, err = safeInt(txn.ID, a.field, a.src); err != nil {
			return remote.Transaction{}, err
		}
	}

	for i, t := range txn.Trollies {
		wt := remote.Trolley{ID: t.ID, TransactionID: t.TransactionID, Total: t.Total}
		if wt.StartingNum, err = safeInt(txn.ID, fmt.Sprintf("trollies[%d].StartingNum", i), t.StartingNum); err != nil {
			return remote.Transaction{}, err
		}
		if wt.EndingNum, err = safeInt(txn.ID, fmt.Sprintf("trollies[%d].EndingNum", i), t.EndingNum); err != nil {
			return remote.Transaction{}, err
		}
		out.Trollies = append(out.Trollies, wt)
	}

	for i, e := range txn.Expenses {
		we := remote.ExpenseLine{ID: e.ID, TransactionID: e.TransactionID, Description: e.Description}
		if we.Amount, err = safeInt(txn.ID, fmt.Sprintf("akhrajat[%d].amount", i), e.Amount); err != nil {
			return remote.Transaction{}, err
		}
		out.Expenses = append(out.Expenses, we)
	}

	return out, nil
}

func normalizeAll(txns []models.Transaction) ([]remote.Transaction, error) {
	out := make([]remote.Transaction, 0, len(txns))
	for _, txn := range txns {
		n, err := Normalize(txn)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
