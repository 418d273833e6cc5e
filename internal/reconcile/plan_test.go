package reconcile

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IlyasAtabaev731/khata/internal/domain/models"
	"github.com/IlyasAtabaev731/khata/internal/remote"
	"github.com/sebdah/goldie/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPlan(t *testing.T) {
	edited := syncedTxn(2)
	edited.UpdatedAt = t0.Add(time.Nanosecond)

	local := []models.Transaction{txn(1), edited, syncedTxn(3)}
	existing := []remote.Transaction{{ID: 2}, {ID: 3}, {ID: 8}, {ID: 6}, {ID: 8}}

	plan := NewPlan(local, existing)

	assert.Equal(t, []int64{1}, ids(plan.Create))
	assert.Equal(t, []int64{2}, ids(plan.Update))
	assert.Equal(t, []int64{8, 6}, plan.Delete)
	assert.Equal(t, []int64{1, 2}, ids(plan.Pushed()))
}

func TestNewPlanEmpty(t *testing.T) {
	plan := NewPlan(nil, nil)

	assert.NotNil(t, plan.Create)
	assert.NotNil(t, plan.Update)
	assert.NotNil(t, plan.Delete)
	assert.Empty(t, plan.Pushed())
}

func TestNewPlanSyncedWithoutTimestamp(t *testing.T) {
	odd := txn(1)
	odd.Synced = true

	plan := NewPlan([]models.Transaction{odd}, nil)

	assert.Empty(t, plan.Create)
	assert.Empty(t, plan.Update)
}

func TestNormalize(t *testing.T) {
	src := txn(4)
	src.Trollies = []models.Trolley{{ID: 1, TransactionID: 4, StartingNum: decimal.NewFromInt(100), EndingNum: decimal.NewFromInt(150), Total: 50}}
	src.Expenses = []models.ExpenseLine{{ID: 2, TransactionID: 4, Description: "ڈیزل", Amount: decimal.NewFromInt(200)}}

	got, err := Normalize(src)
	require.NoError(t, err)

	assert.Equal(t, int64(4), got.ID)
	assert.Equal(t, int64(1000), got.GrossIncome)
	assert.Equal(t, int64(750), got.Balance)
	assert.Equal(t, []remote.Trolley{{ID: 1, TransactionID: 4, StartingNum: 100, EndingNum: 150, Total: 50}}, got.Trollies)
	assert.Equal(t, []remote.ExpenseLine{{ID: 2, TransactionID: 4, Description: "ڈیزل", Amount: 200}}, got.Expenses)
}

func TestNormalizeBounds(t *testing.T) {
	tests := []struct {
		name  string
		value decimal.Decimal
		ok    bool
	}{
		{"max safe", decimal.NewFromInt(MaxSafeInteger), true},
		{"min safe", decimal.NewFromInt(-MaxSafeInteger), true},
		{"above max", decimal.NewFromInt(MaxSafeInteger + 1), false},
		{"below min", decimal.NewFromInt(-MaxSafeInteger - 1), false},
		{"huge", decimal.RequireFromString("123456789012345678901234567890"), false},
		{"fraction", decimal.RequireFromString("1.5"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := txn(1)
			src.Trollies = []models.Trolley{{StartingNum: decimal.Zero, EndingNum: tt.value}}

			got, err := Normalize(src)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, tt.value.IntPart(), got.Trollies[0].EndingNum)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrOutOfRange))

			var rangeErr *OutOfRangeError
			require.True(t, errors.As(err, &rangeErr))
			assert.Equal(t, int64(1), rangeErr.TransactionID)
			assert.Equal(t, "trollies[0].EndingNum", rangeErr.Field)
		})
	}
}

func TestNormalizeExpenseField(t *testing.T) {
	src := txn(3)
	src.Expenses = []models.ExpenseLine{
		{Amount: decimal.NewFromInt(1)},
		{Amount: decimal.NewFromInt(MaxSafeInteger + 10)},
	}

	_, err := Normalize(src)

	var rangeErr *OutOfRangeError
	require.True(t, errors.As(err, &rangeErr))
	assert.Equal(t, "akhrajat[1].amount", rangeErr.Field)
}

func TestBuildRequestGolden(t *testing.T) {
	created := txn(1)
	created.Trollies = []models.Trolley{{ID: 1, TransactionID: 1, StartingNum: decimal.NewFromInt(100), EndingNum: decimal.NewFromInt(150), Total: 50}}
	created.Expenses = []models.ExpenseLine{{ID: 1, TransactionID: 1, Description: "ڈیزل", Amount: decimal.NewFromInt(200)}}

	edited := syncedTxn(2)
	edited.GrossIncome = decimal.NewFromInt(MaxSafeInteger)
	edited.GrossExpenses = decimal.Zero
	edited.NetIncome = decimal.Zero
	edited.Levy = decimal.Zero
	edited.Balance = decimal.Zero
	edited.UpdatedAt = t0.Add(time.Hour)

	plan := NewPlan(
		[]models.Transaction{created, edited, syncedTxn(3)},
		[]remote.Transaction{{ID: 2}, {ID: 3}, {ID: 7}},
	)

	req, err := BuildRequest(plan)
	require.NoError(t, err)

	payload, err := json.MarshalIndent(req, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "sync_request", payload)
}
