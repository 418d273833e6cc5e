package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionPatch is a partial update; nil fields are left unchanged.
type TransactionPatch struct {
	ZoneName      *string
	KhdaName      *string
	Date          *time.Time
	GrossIncome   *decimal.Decimal
	GrossExpenses *decimal.Decimal
	NetIncome     *decimal.Decimal
	Levy          *decimal.Decimal
	Balance       *decimal.Decimal
}

type TrolleyPatch struct {
	StartingNum *decimal.Decimal
	EndingNum   *decimal.Decimal
	Total       *int
}

type ExpensePatch struct {
	Description *string
	Amount      *decimal.Decimal
}

// SyncState is the per-transaction synchronization cursor.
type SyncState struct {
	Synced   bool
	SyncedAt *time.Time
	// Seen is the updated_at of the copy that was pushed. When set, a row
	// edited after that is left as it is.
	Seen *time.Time
}
