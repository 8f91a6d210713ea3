package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/n-r-w/uow"
)

// IQuerier - a subset of sql.DB, sql.Conn and sql.Tx for queries.
type IQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Args is a slice of values for binding.
type Args []any

// Exec - executes a modification query.
func Exec(ctx context.Context, db IQuerier, query string, args Args) (sql.Result, error) {
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sql exec: %w [%s]", err, uow.TruncSQL(query))
	}
	return result, nil
}

// Select - executes a query and scans all rows into dst.
func Select[T any](ctx context.Context, db IQuerier, query string, dst *[]T, args Args) error {
	if err := sqlscan.Select(ctx, db, dst, query, args...); err != nil {
		return fmt.Errorf("sql select: %w [%s]", err, uow.TruncSQL(query))
	}
	return nil
}

// SelectFunc - executes a query and passes each row to function f.
func SelectFunc(ctx context.Context, db IQuerier, query string, args Args, f func(*sql.Rows) error) (err error) {
	var rows *sql.Rows
	rows, err = db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("sql select: %w [%s]", err, uow.TruncSQL(query))
	}
	defer func() {
		err = errors.Join(err, rows.Close())
	}()

	for rows.Next() {
		if err = f(rows); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("sql rows: %w [%s]", err, uow.TruncSQL(query))
	}

	return nil
}

// Get - executes a query and scans a single row into dst.
// dst must contain a variable, not a slice. Returns sql.ErrNoRows as is.
func Get[T any](ctx context.Context, db IQuerier, query string, dst *T, args Args) error {
	if err := sqlscan.Get(ctx, db, dst, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sql.ErrNoRows
		}
		return fmt.Errorf("sql select: %w [%s]", err, uow.TruncSQL(query))
	}
	return nil
}

// NoRows matches sql.ErrNoRows. Use it in uow.Transactional rollback rules.
func NoRows() uow.ErrorMatcher {
	return uow.ErrorIs(sql.ErrNoRows)
}
