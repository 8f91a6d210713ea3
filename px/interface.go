package px

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/n-r-w/uow"
)

// IQuerier is a subset of pgxpool.Pool, pgx.Conn and pgx.Tx interfaces for queries
type IQuerier interface {
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error)
}

// IBatcher is a subset of pgxpool.Pool, pgx.Conn and pgx.Tx interfaces for batches
type IBatcher interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// IConnection includes methods from pgxpool.Pool, pgx.Conn and pgx.Tx + methods for checking transaction state.
type IConnection interface {
	IQuerier
	IBatcher

	// QueryRow gets a connection and executes a query that should return no more than one row.
	// Errors are deferred until the pgx.Row.Scan method is called.
	// If the query selects no rows, pgx.Row.Scan will return pgx.ErrNoRows.
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	// CopyFrom implements bulk data insertion into a table
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)

	// LargeObjects supports working with large objects and is only available
	// in a transaction (this is a PostgreSQL limitation).
	// Will panic if used outside a transaction.
	LargeObjects() pgx.LargeObjects

	// InTransaction returns true if a transaction has started.
	InTransaction() bool
	// TransactionOptions returns transaction options. If no transaction has started, returns zero options.
	TransactionOptions() uow.TxOptions
	// WithoutTransaction returns a context without a transaction.
	WithoutTransaction(ctx context.Context) context.Context
}

// IConnectionGetter interface for getting connections.
// Repositories depend on it instead of *PxDB.
type IConnectionGetter interface {
	Connection(ctx context.Context, opt ...ConnectionOption) IConnection
}

// IStartStopConnector - interface for a service that creates IConnection and can be started and stopped.
type IStartStopConnector interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Connection(ctx context.Context, opt ...ConnectionOption) IConnection
}

// ConnectionOption options for Connection.
type ConnectionOption func(*ConnectionOptionData)

// WithLogQueries enables query logging at the specific Connection call level.
func WithLogQueries() ConnectionOption {
	return func(o *ConnectionOptionData) {
		o.LogQueries = true
	}
}

// ConnectionOptionData option data for Connection.
type ConnectionOptionData struct {
	LogQueries bool
}
