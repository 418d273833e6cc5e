package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/IlyasAtabaev731/khata/internal/ledger"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
)

const dateLayout = "2006-01-02"

func parseID(what, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, s)
	}
	return id, nil
}

// parseAmount reads a decimal flag value; empty means zero.
func parseAmount(flag, s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("--%s: %q is not a number", flag, s)
	}
	return d, nil
}

// parseDate reads a YYYY-MM-DD flag value in local time; empty means the zero time.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("--date: %q is not a YYYY-MM-DD date", s)
	}
	return t, nil
}

// parseExpense reads "description=amount". The split is on the last '=' so
// descriptions may contain one.
func parseExpense(s string) (ledger.ExpenseInput, error) {
	i := strings.LastIndex(s, "=")
	if i < 0 {
		return ledger.ExpenseInput{}, fmt.Errorf("--expense: %q must look like description=amount", s)
	}
	amount, err := parseAmount("expense", s[i+1:])
	if err != nil {
		return ledger.ExpenseInput{}, err
	}
	return ledger.ExpenseInput{Description: s[:i], Amount: amount}, nil
}

// changedAmount returns a pointer to the parsed flag value when the flag was set.
func changedAmount(flags *pflag.FlagSet, name, value string) (*decimal.Decimal, error) {
	if !flags.Changed(name) {
		return nil, nil
	}
	d, err := parseAmount(name, value)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func changedString(flags *pflag.FlagSet, name, value string) *string {
	if !flags.Changed(name) {
		return nil
	}
	return &value
}
