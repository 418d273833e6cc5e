package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"
)

const (
	uniqueViolation = "23505"
	checkViolation  = "23514"
)

type Storage struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

func New(dbUrl string, logger *slog.Logger) (*Storage, error) {
	db, err := sql.Open("postgres", dbUrl)
	if err != nil {
		return nil, fmt.Errorf("database connection error %s", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect database error %s", err)
	}

	return newStorage(db, logger), nil
}

func newStorage(db *sql.DB, logger *slog.Logger) *Storage {
	if logger == nil {
		logger = slog.Default()
	}
	return &Storage{db: db, logger: logger, now: time.Now}
}

func (s *Storage) Stop() error {
	return s.db.Close()
}

// timestamp is the store's notion of "now". Postgres keeps microseconds, so
// values are truncated to make what is written equal to what is read back.
func (s *Storage) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *Storage) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("Failed to rollback transaction", "error", rbErr)
		}
		return err
	}

	return tx.Commit()
}

func (s *Storage) closeRows(rows *sql.Rows, what string) {
	if err := rows.Close(); err != nil {
		s.logger.Error("Failed to close rows", slog.String("rows", what), "error", err)
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func isCheckViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == checkViolation
}

// nullable turns an optional patch field into a query argument, nil meaning
// "keep the current column value".
func nullable[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}

// likePattern builds a substring ILIKE pattern with wildcards in q escaped.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}
