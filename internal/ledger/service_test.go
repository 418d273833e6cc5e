package ledger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/IlyasAtabaev731/khata/internal/domain/models"
	"github.com/IlyasAtabaev731/khata/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// FakeStorage keeps records in memory and remembers the last write it got.
type FakeStorage struct {
	txns        map[int64]*models.Transaction
	trollies    map[int64]models.Trolley
	nextID      int64
	created     *models.Transaction
	lastPatch   *models.TransactionPatch
	lastTrolley *models.TrolleyPatch
	lastExpense *models.ExpensePatch
	searched    string
	failWith    error
}

func NewFakeStorage() *FakeStorage {
	return &FakeStorage{
		txns:     make(map[int64]*models.Transaction),
		trollies: make(map[int64]models.Trolley),
		nextID:   1,
	}
}

func (fs *FakeStorage) CreateTransaction(ctx context.Context, txn models.Transaction) (*models.Transaction, error) {
	if fs.failWith != nil {
		return nil, fs.failWith
	}
	txn.ID = fs.nextID
	fs.nextID++
	fs.txns[txn.ID] = &txn
	fs.created = &txn
	return &txn, nil
}

func (fs *FakeStorage) ListTransactionsWithChildren(ctx context.Context) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, t := range fs.txns {
		out = append(out, *t)
	}
	return out, fs.failWith
}

func (fs *FakeStorage) TransactionByID(ctx context.Context, id int64) (*models.Transaction, error) {
	t, ok := fs.txns[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return t, nil
}

func (fs *FakeStorage) SearchTransactions(ctx context.Context, query string) ([]models.Transaction, error) {
	fs.searched = query
	return nil, nil
}

func (fs *FakeStorage) UpdateTransaction(ctx context.Context, id int64, patch models.TransactionPatch) (*models.Transaction, error) {
	fs.lastPatch = &patch
	t, ok := fs.txns[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return t, nil
}

func (fs *FakeStorage) DeleteTransaction(ctx context.Context, id int64) error {
	if _, ok := fs.txns[id]; !ok {
		return storage.ErrNotFound
	}
	delete(fs.txns, id)
	return nil
}

func (fs *FakeStorage) LastEndingNumber(ctx context.Context) (decimal.Decimal, error) {
	return decimal.NewFromInt(1050), nil
}

func (fs *FakeStorage) UpdateTrolley(ctx context.Context, id int64, patch models.TrolleyPatch) (*models.Trolley, error) {
	fs.lastTrolley = &patch
	return &models.Trolley{ID: id}, nil
}

func (fs *FakeStorage) TrolleyByID(ctx context.Context, id int64) (*models.Trolley, error) {
	t, ok := fs.trollies[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &t, nil
}

func (fs *FakeStorage) TrolleysByTransaction(ctx context.Context, transactionID int64) ([]models.Trolley, error) {
	return []models.Trolley{{ID: 1, TransactionID: transactionID}}, nil
}

func (fs *FakeStorage) CreateExpense(ctx context.Context, e models.ExpenseLine) (*models.ExpenseLine, error) {
	if _, ok := fs.txns[e.TransactionID]; !ok {
		return nil, storage.ErrNotFound
	}
	e.ID = 99
	return &e, nil
}

func (fs *FakeStorage) UpdateExpense(ctx context.Context, id int64, patch models.ExpensePatch) (*models.ExpenseLine, error) {
	fs.lastExpense = &patch
	return &models.ExpenseLine{ID: id}, nil
}

func (fs *FakeStorage) DeleteExpense(ctx context.Context, id int64) (*models.ExpenseLine, error) {
	return nil, storage.ErrNotFound
}

func newTestService() (*Service, *FakeStorage) {
	fs := NewFakeStorage()
	svc := NewService(fs, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC) }
	return svc, fs
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func ptr[T any](v T) *T {
	return &v
}

func validParams() CreateTransactionParams {
	return CreateTransactionParams{
		UserID:        1,
		ZoneName:      "شمالی زون",
		KhdaName:      "کھدہ",
		GrossIncome:   dec(50000),
		GrossExpenses: dec(12000),
		NetIncome:     dec(38000),
		Levy:          dec(500),
		Balance:       dec(37500),
		StartingNum:   dec(1001),
		EndingNum:     dec(1050),
		TrolleyTotal:  50,
		Expenses: []ExpenseInput{
			{Description: "مزدوری", Amount: dec(12000)},
			{Description: "", Amount: dec(300)},
			{Description: "ڈیزل", Amount: decimal.Zero},
		},
	}
}

func TestCreateTransaction(t *testing.T) {
	svc, fs := newTestService()

	txn, err := svc.CreateTransaction(context.Background(), validParams())
	require.NoError(t, err)

	assert.Equal(t, int64(1), txn.ID)
	assert.Equal(t, time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC), txn.Date, "zero date defaults to now")
	require.Len(t, fs.created.Trollies, 1)
	assert.Equal(t, 50, fs.created.Trollies[0].Total)
	require.Len(t, fs.created.Expenses, 1, "half-filled expense rows are dropped")
	assert.Equal(t, "مزدوری", fs.created.Expenses[0].Description)
}

func TestCreateTransactionValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *CreateTransactionParams)
		want   error
	}{
		{"latin zone", func(p *CreateTransactionParams) { p.ZoneName = "North" }, ErrInvalidScript},
		{"latin khda", func(p *CreateTransactionParams) { p.KhdaName = "K1" }, ErrInvalidScript},
		{"negative income", func(p *CreateTransactionParams) { p.GrossIncome = dec(-1) }, ErrNegativeAmount},
		{"fractional levy", func(p *CreateTransactionParams) { p.Levy = decimal.RequireFromString("10.5") }, ErrFractionalAmount},
		{"serials reversed", func(p *CreateTransactionParams) { p.EndingNum = dec(900) }, ErrSerialOrder},
		{"latin expense", func(p *CreateTransactionParams) {
			p.Expenses = []ExpenseInput{{Description: "diesel", Amount: dec(10)}}
		}, ErrInvalidScript},
		{"no user", func(p *CreateTransactionParams) { p.UserID = 0 }, ErrMissingField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, fs := newTestService()
			p := validParams()
			tt.mutate(&p)

			_, err := svc.CreateTransaction(context.Background(), p)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, fs.created, "nothing reaches the store")
		})
	}
}

func TestCreateTransactionFieldError(t *testing.T) {
	svc, _ := newTestService()
	p := validParams()
	p.ZoneName = "Zone"

	_, err := svc.CreateTransaction(context.Background(), p)

	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "zone name", fe.Field)
	assert.Equal(t, "Zone", fe.Value)
}

func TestCreateTransactionStoreFailure(t *testing.T) {
	svc, fs := newTestService()
	fs.failWith = errors.New("connection refused")

	_, err := svc.CreateTransaction(context.Background(), validParams())
	assert.ErrorContains(t, err, "connection refused")
}

func TestUpdateTransactionValidatesOnlyProvidedFields(t *testing.T) {
	svc, fs := newTestService()
	created, err := svc.CreateTransaction(context.Background(), validParams())
	require.NoError(t, err)

	income := dec(60000)
	_, err = svc.UpdateTransaction(context.Background(), created.ID, models.TransactionPatch{GrossIncome: &income})
	require.NoError(t, err)
	require.NotNil(t, fs.lastPatch)
	assert.Nil(t, fs.lastPatch.ZoneName)

	bad := "Zone 2"
	_, err = svc.UpdateTransaction(context.Background(), created.ID, models.TransactionPatch{ZoneName: &bad})
	assert.ErrorIs(t, err, ErrInvalidScript)

	_, err = svc.UpdateTransaction(context.Background(), 404, models.TransactionPatch{GrossIncome: &income})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteTransaction(t *testing.T) {
	svc, _ := newTestService()
	created, err := svc.CreateTransaction(context.Background(), validParams())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTransaction(context.Background(), created.ID))
	assert.ErrorIs(t, svc.DeleteTransaction(context.Background(), created.ID), storage.ErrNotFound)
}

func TestSearch(t *testing.T) {
	svc, fs := newTestService()

	_, err := svc.Search(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = svc.Search(context.Background(), " \u0627\u0653 ")
	require.NoError(t, err)
	assert.Equal(t, "\u0622", fs.searched, "query is trimmed and NFC-normalized")
}

func TestAddExpense(t *testing.T) {
	svc, _ := newTestService()
	created, err := svc.CreateTransaction(context.Background(), validParams())
	require.NoError(t, err)

	e, err := svc.AddExpense(context.Background(), created.ID, "ڈیزل", dec(800))
	require.NoError(t, err)
	assert.Equal(t, created.ID, e.TransactionID)

	_, err = svc.AddExpense(context.Background(), created.ID, "", dec(800))
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = svc.AddExpense(context.Background(), created.ID, "diesel", dec(800))
	assert.ErrorIs(t, err, ErrInvalidScript)

	_, err = svc.AddExpense(context.Background(), 404, "ڈیزل", dec(800))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpdateExpenseAndTrolley(t *testing.T) {
	svc, fs := newTestService()

	amount := dec(-5)
	_, err := svc.UpdateExpense(context.Background(), 1, models.ExpensePatch{Amount: &amount})
	assert.ErrorIs(t, err, ErrNegativeAmount)
	assert.Nil(t, fs.lastExpense)

	desc := "کرایہ"
	_, err = svc.UpdateExpense(context.Background(), 1, models.ExpensePatch{Description: &desc})
	require.NoError(t, err)

	start, end := dec(20), dec(10)
	_, err = svc.UpdateTrolley(context.Background(), 1, models.TrolleyPatch{StartingNum: &start, EndingNum: &end})
	assert.ErrorIs(t, err, ErrSerialOrder)

	total := 12
	_, err = svc.UpdateTrolley(context.Background(), 1, models.TrolleyPatch{Total: &total})
	require.NoError(t, err)
	assert.Equal(t, 12, *fs.lastTrolley.Total)

	_, err = svc.DeleteExpense(context.Background(), 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpdateTrolleyChecksOrderAgainstStoredRange(t *testing.T) {
	svc, fs := newTestService()
	fs.trollies[1] = models.Trolley{ID: 1, StartingNum: dec(100), EndingNum: dec(150), Total: 50}

	tests := []struct {
		name  string
		patch models.TrolleyPatch
		err   error
	}{
		{name: "end below stored start", patch: models.TrolleyPatch{EndingNum: ptr(dec(5))}, err: ErrSerialOrder},
		{name: "start above stored end", patch: models.TrolleyPatch{StartingNum: ptr(dec(151))}, err: ErrSerialOrder},
		{name: "end moved up", patch: models.TrolleyPatch{EndingNum: ptr(dec(180))}},
		{name: "start equal to stored end", patch: models.TrolleyPatch{StartingNum: ptr(dec(150))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs.lastTrolley = nil

			_, err := svc.UpdateTrolley(context.Background(), 1, tt.patch)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				assert.Nil(t, fs.lastTrolley)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, fs.lastTrolley)
		})
	}
}

func TestUpdateTrolleyMissing(t *testing.T) {
	svc, fs := newTestService()

	_, err := svc.UpdateTrolley(context.Background(), 404, models.TrolleyPatch{EndingNum: ptr(dec(5))})

	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Nil(t, fs.lastTrolley)
}

func TestUpdateTrolleyReportsStartingNumFirst(t *testing.T) {
	svc, _ := newTestService()

	for i := 0; i < 20; i++ {
		_, err := svc.UpdateTrolley(context.Background(), 1, models.TrolleyPatch{
			StartingNum: ptr(dec(-1)),
			EndingNum:   ptr(decimal.RequireFromString("1.5")),
		})

		var fe *FieldError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "StartingNum", fe.Field)
	}
}

func TestLastEndingNumber(t *testing.T) {
	svc, _ := newTestService()

	last, err := svc.LastEndingNumber(context.Background())
	require.NoError(t, err)
	assert.True(t, last.Equal(dec(1050)))
}
