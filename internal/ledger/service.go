package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/IlyasAtabaev731/khata/internal/domain/models"
	"github.com/IlyasAtabaev731/khata/internal/lib/script"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidScript    = errors.New("must be written in Urdu only")
	ErrNegativeAmount   = errors.New("amount must not be negative")
	ErrFractionalAmount = errors.New("amount must be a whole number")
	ErrMissingField     = errors.New("required field missing")
	ErrEmptyQuery       = errors.New("search query is empty")
)

type Storage interface {
	CreateTransaction(ctx context.Context, txn models.Transaction) (*models.Transaction, error)
	ListTransactionsWithChildren(ctx context.Context) ([]models.Transaction, error)
	TransactionByID(ctx context.Context, id int64) (*models.Transaction, error)
	SearchTransactions(ctx context.Context, query string) ([]models.Transaction, error)
	UpdateTransaction(ctx context.Context, id int64, patch models.TransactionPatch) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
	LastEndingNumber(ctx context.Context) (decimal.Decimal, error)
	UpdateTrolley(ctx context.Context, id int64, patch models.TrolleyPatch) (*models.Trolley, error)
	TrolleyByID(ctx context.Context, id int64) (*models.Trolley, error)
	TrolleysByTransaction(ctx context.Context, transactionID int64) ([]models.Trolley, error)
	CreateExpense(ctx context.Context, e models.ExpenseLine) (*models.ExpenseLine, error)
	UpdateExpense(ctx context.Context, id int64, patch models.ExpensePatch) (*models.ExpenseLine, error)
	DeleteExpense(ctx context.Context, id int64) (*models.ExpenseLine, error)
}

// Service is the command surface the presentation layer uses for ledger CRUD.
// Unlike reconciliation, every method here returns its failure as an error.
type Service struct {
	storage Storage
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(storage Storage, logger *slog.Logger) *Service {
	return &Service{storage: storage, logger: logger, now: time.Now}
}

type ExpenseInput struct {
	Description string
	Amount      decimal.Decimal
}

type CreateTransactionParams struct {
	UserID        int64
	ZoneName      string
	KhdaName      string
	Date          time.Time // zero means now
	GrossIncome   decimal.Decimal
	GrossExpenses decimal.Decimal
	NetIncome     decimal.Decimal
	Levy          decimal.Decimal
	Balance       decimal.Decimal
	StartingNum   decimal.Decimal
	EndingNum     decimal.Decimal
	TrolleyTotal  int
	Expenses      []ExpenseInput
}

func (s *Service) CreateTransaction(ctx context.Context, p CreateTransactionParams) (*models.Transaction, error) {
	if p.UserID == 0 {
		return nil, fmt.Errorf("user: %w", ErrMissingField)
	}

	zone, err := urduField("zone name", p.ZoneName)
	if err != nil {
		return nil, err
	}
	khda, err := urduField("khda name", p.KhdaName)
	if err != nil {
		return nil, err
	}

	amounts := []struct {
		name  string
		value decimal.Decimal
	}{
		{"KulAmdan", p.GrossIncome},
		{"KulAkhrajat", p.GrossExpenses},
		{"SaafiAmdan", p.NetIncome},
		{"Exercise", p.Levy},
		{"KulMaizan", p.Balance},
	}
	for _, a := range amounts {
		if err := checkAmount(a.name, a.value); err != nil {
			return nil, err
		}
	}
	if err := checkSerials(p.StartingNum, p.EndingNum); err != nil {
		return nil, err
	}

	date := p.Date
	if date.IsZero() {
		date = s.now()
	}

	txn := models.Transaction{
		UserID:        p.UserID,
		ZoneName:      zone,
		KhdaName:      khda,
		Date:          date,
		GrossIncome:   p.GrossIncome,
		GrossExpenses: p.GrossExpenses,
		NetIncome:     p.NetIncome,
		Levy:          p.Levy,
		Balance:       p.Balance,
		Trollies: []models.Trolley{{
			StartingNum: p.StartingNum,
			EndingNum:   p.EndingNum,
			Total:       p.TrolleyTotal,
		}},
	}

	// Rows left half-filled in the form carry no description or no amount and are skipped.
	for _, e := range p.Expenses {
		if strings.TrimSpace(e.Description) == "" || e.Amount.IsZero() {
			continue
		}
		desc, err := urduField("expense description", e.Description)
		if err != nil {
			return nil, err
		}
		if err := checkAmount("amount", e.Amount); err != nil {
			return nil, err
		}
		txn.Expenses = append(txn.Expenses, models.ExpenseLine{Description: desc, Amount: e.Amount})
	}

	created, err := s.storage.CreateTransaction(ctx, txn)
	if err != nil {
		s.logger.Error("Transaction creation failed", "error", err)
		return nil, fmt.Errorf("creating transaction: %w", err)
	}

	s.logger.Info("Transaction created", slog.Int64("id", created.ID), slog.String("zone", created.ZoneName))

	return created, nil
}

func (s *Service) Transactions(ctx context.Context) ([]models.Transaction, error) {
	txns, err := s.storage.ListTransactionsWithChildren(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching transactions: %w", err)
	}
	return txns, nil
}

func (s *Service) Transaction(ctx context.Context, id int64) (*models.Transaction, error) {
	txn, err := s.storage.TransactionByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting transaction %d: %w", id, err)
	}
	return txn, nil
}

func (s *Service) Search(ctx context.Context, query string) ([]models.Transaction, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	txns, err := s.storage.SearchTransactions(ctx, script.Normalize(query))
	if err != nil {
		return nil, fmt.Errorf("searching transactions: %w", err)
	}
	return txns, nil
}

func (s *Service) LastEndingNumber(ctx context.Context) (decimal.Decimal, error) {
	last, err := s.storage.LastEndingNumber(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("getting last ending number: %w", err)
	}
	return last, nil
}

// UpdateTransaction applies a partial edit. Editing does not touch the sync
// flag; the store's updated_at is what marks the record for re-push.
func (s *Service) UpdateTransaction(ctx context.Context, id int64, patch models.TransactionPatch) (*models.Transaction, error) {
	if patch.ZoneName != nil {
		zone, err := urduField("zone name", *patch.ZoneName)
		if err != nil {
			return nil, err
		}
		patch.ZoneName = &zone
	}
	if patch.KhdaName != nil {
		khda, err := urduField("khda name", *patch.KhdaName)
		if err != nil {
			return nil, err
		}
		patch.KhdaName = &khda
	}

	amounts := []struct {
		name  string
		value *decimal.Decimal
	}{
		{"KulAmdan", patch.GrossIncome},
		{"KulAkhrajat", patch.GrossExpenses},
		{"SaafiAmdan", patch.NetIncome},
		{"Exercise", patch.Levy},
		{"KulMaizan", patch.Balance},
	}
	for _, a := range amounts {
		if a.value == nil {
			continue
		}
		if err := checkAmount(a.name, *a.value); err != nil {
			return nil, err
		}
	}

	txn, err := s.storage.UpdateTransaction(ctx, id, patch)
	if err != nil {
		s.logger.Error("Update transaction failed", slog.Int64("id", id), "error", err)
		return nil, fmt.Errorf("updating transaction %d: %w", id, err)
	}

	return txn, nil
}

// DeleteTransaction removes the transaction with its trollies and expense lines.
func (s *Service) DeleteTransaction(ctx context.Context, id int64) error {
	if err := s.storage.DeleteTransaction(ctx, id); err != nil {
		s.logger.Error("Delete transaction failed", slog.Int64("id", id), "error", err)
		return fmt.Errorf("deleting transaction %d: %w", id, err)
	}

	s.logger.Info("Transaction deleted", slog.Int64("id", id))
	return nil
}

func (s *Service) Trolleys(ctx context.Context, transactionID int64) ([]models.Trolley, error) {
	trollies, err := s.storage.TrolleysByTransaction(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("getting trollies of transaction %d: %w", transactionID, err)
	}
	return trollies, nil
}

// UpdateTrolley checks the serial order against the stored trolley when the
// patch only moves one end of the range.
func (s *Service) UpdateTrolley(ctx context.Context, id int64, patch models.TrolleyPatch) (*models.Trolley, error) {
	serials := []struct {
		name  string
		value *decimal.Decimal
	}{
		{"StartingNum", patch.StartingNum},
		{"EndingNum", patch.EndingNum},
	}
	for _, f := range serials {
		if f.value == nil {
			continue
		}
		if err := checkAmount(f.name, *f.value); err != nil {
			return nil, err
		}
	}
	if patch.Total != nil && *patch.Total < 0 {
		return nil, fmt.Errorf("total: %w", ErrNegativeAmount)
	}

	if patch.StartingNum != nil || patch.EndingNum != nil {
		start, end, err := s.mergedSerials(ctx, id, patch)
		if err != nil {
			return nil, err
		}
		if err := checkSerials(start, end); err != nil {
			return nil, err
		}
	}

	t, err := s.storage.UpdateTrolley(ctx, id, patch)
	if err != nil {
		s.logger.Error("Trolley update failed", slog.Int64("id", id), "error", err)
		return nil, fmt.Errorf("updating trolley %d: %w", id, err)
	}
	return t, nil
}

func (s *Service) mergedSerials(ctx context.Context, id int64, patch models.TrolleyPatch) (decimal.Decimal, decimal.Decimal, error) {
	if patch.StartingNum != nil && patch.EndingNum != nil {
		return *patch.StartingNum, *patch.EndingNum, nil
	}

	current, err := s.storage.TrolleyByID(ctx, id)
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, fmt.Errorf("getting trolley %d: %w", id, err)
	}

	start, end := current.StartingNum, current.EndingNum
	if patch.StartingNum != nil {
		start = *patch.StartingNum
	}
	if patch.EndingNum != nil {
		end = *patch.EndingNum
	}
	return start, end, nil
}

func (s *Service) AddExpense(ctx context.Context, transactionID int64, description string, amount decimal.Decimal) (*models.ExpenseLine, error) {
	if transactionID == 0 {
		return nil, fmt.Errorf("transaction: %w", ErrMissingField)
	}
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("description: %w", ErrMissingField)
	}

	desc, err := urduField("expense description", description)
	if err != nil {
		return nil, err
	}
	if err := checkAmount("amount", amount); err != nil {
		return nil, err
	}

	e, err := s.storage.CreateExpense(ctx, models.ExpenseLine{
		TransactionID: transactionID,
		Description:   desc,
		Amount:        amount,
	})
	if err != nil {
		s.logger.Error("Expense create failed", slog.Int64("transaction_id", transactionID), "error", err)
		return nil, fmt.Errorf("adding expense: %w", err)
	}
	return e, nil
}

func (s *Service) UpdateExpense(ctx context.Context, id int64, patch models.ExpensePatch) (*models.ExpenseLine, error) {
	if patch.Description != nil {
		desc, err := urduField("expense description", *patch.Description)
		if err != nil {
			return nil, err
		}
		patch.Description = &desc
	}
	if patch.Amount != nil {
		if err := checkAmount("amount", *patch.Amount); err != nil {
			return nil, err
		}
	}

	e, err := s.storage.UpdateExpense(ctx, id, patch)
	if err != nil {
		s.logger.Error("Expense update failed", slog.Int64("id", id), "error", err)
		return nil, fmt.Errorf("updating expense %d: %w", id, err)
	}
	return e, nil
}

func (s *Service) DeleteExpense(ctx context.Context, id int64) (*models.ExpenseLine, error) {
	e, err := s.storage.DeleteExpense(ctx, id)
	if err != nil {
		s.logger.Error("Expense delete failed", slog.Int64("id", id), "error", err)
		return nil, fmt.Errorf("deleting expense %d: %w", id, err)
	}
	return e, nil
}
