package px

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/n-r-w/uow"
)

// Args is a slice of values for binding.
// Used to explicitly separate query parameters from other arguments.
type Args []any

// Exec executes a modification query. Querier is usually the result of PxDB.Connection.
func Exec(ctx context.Context, querier IQuerier, sql string, args Args) (pgconn.CommandTag, error) {
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return tag, fmt.Errorf("sql exec: %w [%s]", err, uow.TruncSQL(sql))
	}

	return tag, nil
}

// Select executes a query and scans all rows into dst.
func Select[T any](ctx context.Context, querier IQuerier, sql string, dst *[]T, args Args) error {
	if err := pgxscan.Select(ctx, querier, dst, sql, args...); err != nil {
		return fmt.Errorf("sql select: %w [%s]", err, uow.TruncSQL(sql))
	}

	return nil
}

// Get executes a query and scans a single row into dst.
// dst must contain a variable, not a slice. Returns pgx.ErrNoRows as is.
func Get[T any](ctx context.Context, querier IQuerier, sql string, dst *T, args Args) error {
	if err := pgxscan.Get(ctx, querier, dst, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// we don't need the original error, it contains extra service information that will come in the response
			return pgx.ErrNoRows
		}

		return fmt.Errorf("sql select: %w [%s]", err, uow.TruncSQL(sql))
	}

	return nil
}

// SendBatch executes a batch of queries with error checking.
func SendBatch(ctx context.Context, tx IBatcher, batch *pgx.Batch) (rowsAffected int64, err error) {
	if batch.Len() == 0 {
		return 0, nil
	}

	br := tx.SendBatch(ctx, batch)
	defer func() {
		if errClose := br.Close(); errClose != nil && err == nil {
			err = fmt.Errorf("pgx.SendBatch close: %w", errClose)
		}
	}()

	for i := range batch.Len() {
		tag, err := br.Exec()
		if err != nil {
			return 0, fmt.Errorf("pgx.SendBatch exec at index %d: %w", i, err)
		}
		rowsAffected += tag.RowsAffected()
	}
	return rowsAffected, nil
}

// InsertValues executes a query to insert a group of values.
// sql should be in the form "INSERT INTO table (col1, col2)" without VALUES.
// VALUES is added automatically.
func InsertValues(ctx context.Context, querier IQuerier, sql string, values []Args) error {
	if len(values) == 0 {
		return nil
	}

	var (
		columnCount = len(values[0])
		args        = make(Args, 0, columnCount*len(values))
		sqlBuilder  strings.Builder
	)
	sqlBuilder.WriteString(sql)
	sqlBuilder.WriteString(" VALUES ")
	for i, v := range values {
		if len(v) != columnCount {
			return fmt.Errorf("px.InsertValues: all values must have the same length. sql: %s", uow.TruncSQL(sql))
		}
		args = append(args, v...)

		if i != 0 {
			sqlBuilder.WriteString(",")
		}
		sqlBuilder.WriteString("(")
		for j := range columnCount {
			if j != 0 {
				sqlBuilder.WriteString(",")
			}
			fmt.Fprintf(&sqlBuilder, "$%d", i*columnCount+j+1)
		}
		sqlBuilder.WriteString(")")
	}

	targetSQL := sqlBuilder.String()

	if _, err := querier.Exec(ctx, targetSQL, args...); err != nil {
		return fmt.Errorf("px.InsertValues: %w [%s]", err, uow.TruncSQL(targetSQL))
	}

	return nil
}
