package px

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/n-r-w/uow"
	"github.com/n-r-w/uow/txmgr"
)

// querier is implemented by pgx.Tx, *pgxpool.Conn and *pgxpool.Pool.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Wrapper is a wrapper over pgx.
type Wrapper struct {
	logQueries bool
	txOpts     uow.TxOptions
	db         *PxDB
	q          querier
	tx         pgx.Tx
}

var _ IConnection = (*Wrapper)(nil)

func newWrapper(db *PxDB, q querier, tx pgx.Tx, txOpts uow.TxOptions, logQueries bool) *Wrapper {
	return &Wrapper{
		db:         db,
		q:          q,
		tx:         tx,
		txOpts:     txOpts,
		logQueries: logQueries,
	}
}

// InTransaction returns true if transaction is started.
func (i *Wrapper) InTransaction() bool {
	return i.tx != nil
}

// TransactionOptions returns transaction parameters. If transaction is not started, returns zero options.
func (i *Wrapper) TransactionOptions() uow.TxOptions {
	if i.tx == nil {
		return uow.TxOptions{}
	}
	return i.txOpts
}

// WithoutTransaction returns context without transaction.
func (i *Wrapper) WithoutTransaction(ctx context.Context) context.Context {
	return txmgr.WithoutTransaction(ctx, i.db.unit)
}

// CopyFrom implements bulk data insertion into a table.
func (i *Wrapper) CopyFrom(ctx context.Context, tableName pgx.Identifier,
	columnNames []string, rowSrc pgx.CopyFromSource,
) (n int64, err error) {
	i.logQueryHelper(ctx, fmt.Sprintf("COPY %s (%s)", tableName.Sanitize(), strings.Join(columnNames, ", ")), "", nil,
		func() error {
			n, err = i.q.CopyFrom(ctx, tableName, columnNames, rowSrc)
			return err
		})

	return n, err
}

// Exec executes a query without returning data.
func (i *Wrapper) Exec(ctx context.Context, sql string, args ...any) (tag pgconn.CommandTag, err error) {
	i.logQueryHelper(ctx, "Exec", sql, args, func() error {
		tag, err = i.q.Exec(ctx, sql, args...)
		return err
	})

	return tag, err
}

// Query executes a query and returns the result.
func (i *Wrapper) Query(ctx context.Context, sql string, args ...any) (rows pgx.Rows, err error) {
	i.logQueryHelper(ctx, "Query", sql, args, func() error {
		rows, err = i.q.Query(ctx, sql, args...) //nolint:sqlclosecheck // will be closed by caller
		return err
	})

	return rows, err
}

// QueryRow executes a query that should return no more than one row.
// Errors are deferred until the pgx.Row.Scan method is called.
func (i *Wrapper) QueryRow(ctx context.Context, sql string, args ...any) (row pgx.Row) {
	i.logQueryHelper(ctx, "QueryRow", sql, args, func() error {
		row = i.q.QueryRow(ctx, sql, args...)
		return nil
	})

	return row
}

// SendBatch sends a set of queries for execution, combining all queries into one package.
func (i *Wrapper) SendBatch(ctx context.Context, b *pgx.Batch) (res pgx.BatchResults) {
	const batchSizeLogLimit = 10
	var queries strings.Builder

	if i.logQueries {
		for n, q := range b.QueuedQueries {
			if n >= batchSizeLogLimit {
				_, _ = queries.WriteString("...")
				break
			}
			// [SELECT * FROM users WHERE id IN ($1,$2); ARGS: 2,3]
			_, _ = queries.WriteString("[")
			_, _ = queries.WriteString(uow.TruncSQL(q.SQL))
			_, _ = queries.WriteString("; ARGS: ")
			for j, arg := range q.Arguments {
				if j > 0 {
					_, _ = queries.WriteString(",")
				}
				_, _ = fmt.Fprintf(&queries, "%v", arg)
			}
			_, _ = queries.WriteString("]")
		}
	}

	i.logQueryHelper(ctx, "SendBatch", queries.String(), nil, func() error {
		res = i.q.SendBatch(ctx, b)
		return nil
	})

	return res
}

// LargeObjects supports working with large objects and is only available within a transaction (PostgreSQL limitation).
// Outside of a transaction, it will panic.
func (i *Wrapper) LargeObjects() pgx.LargeObjects {
	if i.tx != nil {
		return i.tx.LargeObjects()
	}

	panic("LargeObjects() is not supported without transaction")
}

// logQueryHelper performs query logging and calls function f.
func (i *Wrapper) logQueryHelper(ctx context.Context, command, query string, args []any, f func() error) {
	if !i.logQueries || i.db.logger == nil {
		_ = f() // we're not interested in the result since it should be handled inside f
		return
	}

	start := time.Now()

	err := f()

	msg := fmt.Sprintf("dbquery database=%s unit_of_work=%s in_tx=%t command=%s latency=%s",
		i.db.name, txmgr.UnitOfWorkID(ctx, i.db.unit), i.tx != nil, command, time.Since(start))
	if query != "" {
		msg += fmt.Sprintf(" query=%q", uow.TruncSQL(query))
	}
	if len(args) > 0 {
		msg += fmt.Sprintf(" args=%v", args)
	}

	if err != nil {
		i.db.logger.Errorf(ctx, "%s error=%v", msg, err)
	} else {
		i.db.logger.Debugf(ctx, "%s", msg)
	}
}
