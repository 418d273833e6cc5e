package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/IlyasAtabaev731/khata/internal/domain/models"
	"github.com/IlyasAtabaev731/khata/internal/storage"
)

// Child mutations also advance the parent's updated_at, so an edited trolley or
// expense line gets the whole transaction re-pushed on the next sync.

func (s *Storage) UpdateTrolley(ctx context.Context, id int64, patch models.TrolleyPatch) (*models.Trolley, error) {
	const op = "storage.postgres.UpdateTrolley"

	var t models.Trolley
	err := s.db.QueryRowContext(ctx, `WITH t AS (
			UPDATE trollies SET
				starting_num = COALESCE($2::numeric, starting_num),
				ending_num = COALESCE($3::numeric, ending_num),
				total = COALESCE($4::integer, total)
			WHERE id = $1
			RETURNING id, transaction_id, starting_num, ending_num, total
		), p AS (
			UPDATE transactions SET updated_at = $5 WHERE id IN (SELECT transaction_id FROM t)
		)
		SELECT id, transaction_id, starting_num, ending_num, total FROM t`,
		id, nullable(patch.StartingNum), nullable(patch.EndingNum), nullable(patch.Total), s.timestamp(),
	).Scan(&t.ID, &t.TransactionID, &t.StartingNum, &t.EndingNum, &t.Total)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}
		if isCheckViolation(err) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrConstraint)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &t, nil
}

func (s *Storage) TrolleyByID(ctx context.Context, id int64) (*models.Trolley, error) {
	const op = "storage.postgres.TrolleyByID"

	var t models.Trolley
	err := s.db.QueryRowContext(ctx,
		"SELECT id, transaction_id, starting_num, ending_num, total FROM trollies WHERE id = $1", id,
	).Scan(&t.ID, &t.TransactionID, &t.StartingNum, &t.EndingNum, &t.Total)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &t, nil
}

func (s *Storage) TrolleysByTransaction(ctx context.Context, transactionID int64) ([]models.Trolley, error) {
	const op = "storage.postgres.TrolleysByTransaction"

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, transaction_id, starting_num, ending_num, total FROM trollies WHERE transaction_id = $1 ORDER BY id",
		transactionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer s.closeRows(rows, "trollies")

	trollies := []models.Trolley{}
	for rows.Next() {
		var t models.Trolley
		if err := rows.Scan(&t.ID, &t.TransactionID, &t.StartingNum, &t.EndingNum, &t.Total); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		trollies = append(trollies, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return trollies, nil
}

func (s *Storage) CreateExpense(ctx context.Context, e models.ExpenseLine) (*models.ExpenseLine, error) {
	const op = "storage.postgres.CreateExpense"

	var created models.ExpenseLine
	err := s.db.QueryRowContext(ctx, `WITH p AS (
			UPDATE transactions SET updated_at = $4 WHERE id = $1 RETURNING id
		)
		INSERT INTO akhrajat (transaction_id, description, amount)
		SELECT id, $2, $3 FROM p
		RETURNING id, transaction_id, description, amount`,
		e.TransactionID, e.Description, e.Amount, s.timestamp(),
	).Scan(&created.ID, &created.TransactionID, &created.Description, &created.Amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: transaction %d: %w", op, e.TransactionID, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &created, nil
}

func (s *Storage) UpdateExpense(ctx context.Context, id int64, patch models.ExpensePatch) (*models.ExpenseLine, error) {
	const op = "storage.postgres.UpdateExpense"

	var e models.ExpenseLine
	err := s.db.QueryRowContext(ctx, `WITH e AS (
			UPDATE akhrajat SET
				description = COALESCE($2::text, description),
				amount = COALESCE($3::numeric, amount)
			WHERE id = $1
			RETURNING id, transaction_id, description, amount
		), p AS (
			UPDATE transactions SET updated_at = $4 WHERE id IN (SELECT transaction_id FROM e)
		)
		SELECT id, transaction_id, description, amount FROM e`,
		id, nullable(patch.Description), nullable(patch.Amount), s.timestamp(),
	).Scan(&e.ID, &e.TransactionID, &e.Description, &e.Amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &e, nil
}

func (s *Storage) DeleteExpense(ctx context.Context, id int64) (*models.ExpenseLine, error) {
	const op = "storage.postgres.DeleteExpense"

	var e models.ExpenseLine
	err := s.db.QueryRowContext(ctx, `WITH e AS (
			DELETE FROM akhrajat WHERE id = $1
			RETURNING id, transaction_id, description, amount
		), p AS (
			UPDATE transactions SET updated_at = $2 WHERE id IN (SELECT transaction_id FROM e)
		)
		SELECT id, transaction_id, description, amount FROM e`,
		id, s.timestamp(),
	).Scan(&e.ID, &e.TransactionID, &e.Description, &e.Amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &e, nil
}
