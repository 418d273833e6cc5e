package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/IlyasAtabaev731/khata/internal/domain/models"
	"github.com/IlyasAtabaev731/khata/internal/storage"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const transactionColumns = `id, user_id, zone_name, khda_name, date,
	gross_income, gross_expenses, net_income, levy, balance,
	synced, synced_at, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (models.Transaction, error) {
	var (
		txn      models.Transaction
		syncedAt sql.NullTime
	)

	err := row.Scan(&txn.ID, &txn.UserID, &txn.ZoneName, &txn.KhdaName, &txn.Date,
		&txn.GrossIncome, &txn.GrossExpenses, &txn.NetIncome, &txn.Levy, &txn.Balance,
		&txn.Synced, &syncedAt, &txn.CreatedAt, &txn.UpdatedAt)
	if err != nil {
		return models.Transaction{}, err
	}

	if syncedAt.Valid {
		t := syncedAt.Time
		txn.SyncedAt = &t
	}
	txn.Trollies = []models.Trolley{}
	txn.Expenses = []models.ExpenseLine{}

	return txn, nil
}

// CreateTransaction inserts txn together with its trollies and expense lines.
// New transactions always start unsynced.
func (s *Storage) CreateTransaction(ctx context.Context, txn models.Transaction) (*models.Transaction, error) {
	const op = "storage.postgres.CreateTransaction"

	now := s.timestamp()
	created := txn
	created.Synced = false
	created.SyncedAt = nil
	created.CreatedAt = now
	created.UpdatedAt = now
	created.Trollies = make([]models.Trolley, 0, len(txn.Trollies))
	created.Expenses = make([]models.ExpenseLine, 0, len(txn.Expenses))

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `INSERT INTO transactions
			(user_id, zone_name, khda_name, date, gross_income, gross_expenses, net_income, levy, balance, synced, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE, $10, $10) RETURNING id`,
			txn.UserID, txn.ZoneName, txn.KhdaName, txn.Date,
			txn.GrossIncome, txn.GrossExpenses, txn.NetIncome, txn.Levy, txn.Balance, now,
		).Scan(&created.ID)
		if err != nil {
			return err
		}

		for _, t := range txn.Trollies {
			t.TransactionID = created.ID
			err := tx.QueryRowContext(ctx,
				"INSERT INTO trollies (transaction_id, starting_num, ending_num, total) VALUES ($1, $2, $3, $4) RETURNING id",
				t.TransactionID, t.StartingNum, t.EndingNum, t.Total,
			).Scan(&t.ID)
			if err != nil {
				return err
			}
			created.Trollies = append(created.Trollies, t)
		}

		for _, e := range txn.Expenses {
			e.TransactionID = created.ID
			err := tx.QueryRowContext(ctx,
				"INSERT INTO akhrajat (transaction_id, description, amount) VALUES ($1, $2, $3) RETURNING id",
				e.TransactionID, e.Description, e.Amount,
			).Scan(&e.ID)
			if err != nil {
				return err
			}
			created.Expenses = append(created.Expenses, e)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &created, nil
}

// ListTransactionsWithChildren returns every transaction ordered by id, each
// with its trollies and expense lines.
func (s *Storage) ListTransactionsWithChildren(ctx context.Context) ([]models.Transaction, error) {
	const op = "storage.postgres.ListTransactionsWithChildren"

	txns, err := s.queryTransactions(ctx, "SELECT "+transactionColumns+" FROM transactions ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.attachChildren(ctx, txns); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return txns, nil
}

func (s *Storage) TransactionByID(ctx context.Context, id int64) (*models.Transaction, error) {
	const op = "storage.postgres.TransactionByID"

	txn, err := scanTransaction(s.db.QueryRowContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	txns := []models.Transaction{txn}
	if err := s.attachChildren(ctx, txns); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &txns[0], nil
}

// SearchTransactions matches query as a case-insensitive substring of the zone
// or khda name.
func (s *Storage) SearchTransactions(ctx context.Context, query string) ([]models.Transaction, error) {
	const op = "storage.postgres.SearchTransactions"

	txns, err := s.queryTransactions(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE zone_name ILIKE $1 OR khda_name ILIKE $1 ORDER BY id",
		likePattern(query))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.attachChildren(ctx, txns); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return txns, nil
}

// UpdateTransaction applies patch and advances updated_at. The sync flag is
// left alone: an edit re-qualifies the record through updated_at > synced_at.
func (s *Storage) UpdateTransaction(ctx context.Context, id int64, patch models.TransactionPatch) (*models.Transaction, error) {
	const op = "storage.postgres.UpdateTransaction"

	res, err := s.db.ExecContext(ctx, `UPDATE transactions SET
		zone_name = COALESCE($2::text, zone_name),
		khda_name = COALESCE($3::text, khda_name),
		date = COALESCE($4::timestamptz, date),
		gross_income = COALESCE($5::numeric, gross_income),
		gross_expenses = COALESCE($6::numeric, gross_expenses),
		net_income = COALESCE($7::numeric, net_income),
		levy = COALESCE($8::numeric, levy),
		balance = COALESCE($9::numeric, balance),
		updated_at = $10
		WHERE id = $1`,
		id, nullable(patch.ZoneName), nullable(patch.KhdaName), nullable(patch.Date),
		nullable(patch.GrossIncome), nullable(patch.GrossExpenses), nullable(patch.NetIncome),
		nullable(patch.Levy), nullable(patch.Balance), s.timestamp(),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := expectRow(res); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.TransactionByID(ctx, id)
}

// DeleteTransaction removes the transaction after its expense lines and trollies.
func (s *Storage) DeleteTransaction(ctx context.Context, id int64) error {
	const op = "storage.postgres.DeleteTransaction"

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM akhrajat WHERE transaction_id = $1", id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM trollies WHERE transaction_id = $1", id); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, "DELETE FROM transactions WHERE id = $1", id)
		if err != nil {
			return err
		}
		return expectRow(res)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// UpdateTransactionSyncState records the sync cursor. updated_at moves together
// with synced_at so a freshly synced record compares as clean. A row changed
// after state.Seen is not touched and storage.ErrStale is returned.
func (s *Storage) UpdateTransactionSyncState(ctx context.Context, id int64, state models.SyncState) error {
	const op = "storage.postgres.UpdateTransactionSyncState"

	res, err := s.db.ExecContext(ctx, `UPDATE transactions
		SET synced = $2, synced_at = $3, updated_at = COALESCE($3, updated_at)
		WHERE id = $1 AND ($4::timestamptz IS NULL OR updated_at <= $4)`,
		id, state.Synced, nullable(state.SyncedAt), nullable(state.Seen))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	err = expectRow(res)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) || state.Seen == nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM transactions WHERE id = $1)", id).Scan(&exists); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return fmt.Errorf("%s: %w", op, storage.ErrStale)
	}
	return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
}

// LastEndingNumber returns the highest trolley ending serial, or zero.
func (s *Storage) LastEndingNumber(ctx context.Context) (decimal.Decimal, error) {
	const op = "storage.postgres.LastEndingNumber"

	var last decimal.Decimal
	err := s.db.QueryRowContext(ctx, "SELECT ending_num FROM trollies ORDER BY ending_num DESC LIMIT 1").Scan(&last)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("%s: %w", op, err)
	}

	return last, nil
}

func (s *Storage) queryTransactions(ctx context.Context, query string, args ...any) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer s.closeRows(rows, "transactions")

	txns := []models.Transaction{}
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}

	return txns, rows.Err()
}

// attachChildren loads the trollies and expense lines of txns in two queries.
func (s *Storage) attachChildren(ctx context.Context, txns []models.Transaction) error {
	if len(txns) == 0 {
		return nil
	}

	ids := make([]int64, len(txns))
	index := make(map[int64]int, len(txns))
	for i, txn := range txns {
		ids[i] = txn.ID
		index[txn.ID] = i
	}

	trollyRows, err := s.db.QueryContext(ctx,
		"SELECT id, transaction_id, starting_num, ending_num, total FROM trollies WHERE transaction_id = ANY($1) ORDER BY id",
		pq.Array(ids))
	if err != nil {
		return err
	}
	defer s.closeRows(trollyRows, "trollies")

	for trollyRows.Next() {
		var t models.Trolley
		if err := trollyRows.Scan(&t.ID, &t.TransactionID, &t.StartingNum, &t.EndingNum, &t.Total); err != nil {
			return err
		}
		i := index[t.TransactionID]
		txns[i].Trollies = append(txns[i].Trollies, t)
	}
	if err := trollyRows.Err(); err != nil {
		return err
	}

	expenseRows, err := s.db.QueryContext(ctx,
		"SELECT id, transaction_id, description, amount FROM akhrajat WHERE transaction_id = ANY($1) ORDER BY id",
		pq.Array(ids))
	if err != nil {
		return err
	}
	defer s.closeRows(expenseRows, "akhrajat")

	for expenseRows.Next() {
		var e models.ExpenseLine
		if err := expenseRows.Scan(&e.ID, &e.TransactionID, &e.Description, &e.Amount); err != nil {
			return err
		}
		i := index[e.TransactionID]
		txns[i].Expenses = append(txns[i].Expenses, e)
	}

	return expenseRows.Err()
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
