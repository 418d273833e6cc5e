package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Transaction struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"userID"`
	ZoneName      string          `json:"ZoneName"`
	KhdaName      string          `json:"KhdaName"`
	Date          time.Time       `json:"date"`
	GrossIncome   decimal.Decimal `json:"KulAmdan"`
	GrossExpenses decimal.Decimal `json:"KulAkhrajat"`
	NetIncome     decimal.Decimal `json:"SaafiAmdan"`
	Levy          decimal.Decimal `json:"Exercise"`
	Balance       decimal.Decimal `json:"KulMaizan"`
	Synced        bool            `json:"Synced"`
	SyncedAt      *time.Time      `json:"SyncedAt"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	Trollies      []Trolley       `json:"trollies"`
	Expenses      []ExpenseLine   `json:"akhrajat"`
}

// ModifiedSinceSync reports whether a synced transaction was edited after its
// last successful push.
func (t Transaction) ModifiedSinceSync() bool {
	return t.Synced && t.SyncedAt != nil && t.UpdatedAt.After(*t.SyncedAt)
}

type Trolley struct {
	ID            int64           `json:"id"`
	TransactionID int64           `json:"transactionId"`
	StartingNum   decimal.Decimal `json:"StartingNum"`
	EndingNum     decimal.Decimal `json:"EndingNum"`
	Total         int             `json:"total"`
}

// ExpenseLine is one itemized expense (akhrajat) of a transaction.
type ExpenseLine struct {
	ID            int64           `json:"id"`
	TransactionID int64           `json:"transactionId"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
}
