package px

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/n-r-w/uow"
)

// ErrorWrapper implements the IConnection interface with error return.
// Connection returns it when the database cannot serve the context.
type ErrorWrapper struct {
	err error
}

var _ IConnection = (*ErrorWrapper)(nil)

// NewErrorWrapper creates an ErrorWrapper.
func NewErrorWrapper(err error) *ErrorWrapper {
	return &ErrorWrapper{
		err: err,
	}
}

// InTransaction always returns false.
func (i *ErrorWrapper) InTransaction() bool {
	return false
}

// TransactionOptions always returns zero options.
func (i *ErrorWrapper) TransactionOptions() uow.TxOptions {
	return uow.TxOptions{}
}

// WithoutTransaction returns ctx unchanged.
func (i *ErrorWrapper) WithoutTransaction(ctx context.Context) context.Context {
	return ctx
}

// CopyFrom returns an error.
func (i *ErrorWrapper) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, i.err
}

// Exec returns an error.
func (i *ErrorWrapper) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, i.err
}

// Query returns an error.
func (i *ErrorWrapper) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, i.err
}

// QueryRow returns a row whose Scan fails.
func (i *ErrorWrapper) QueryRow(context.Context, string, ...any) pgx.Row {
	return errRow{err: i.err}
}

// SendBatch returns batch results that fail.
func (i *ErrorWrapper) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults {
	return errBatchResults{err: i.err}
}

// LargeObjects panics because pgx.LargeObjects has no public constructor.
func (i *ErrorWrapper) LargeObjects() pgx.LargeObjects {
	panic(fmt.Sprintf("failed to get large objects: %v", i.err))
}

type errRow struct {
	err error
}

func (e errRow) Scan(...any) error {
	return e.err
}

type errBatchResults struct {
	err error
}

func (e errBatchResults) Exec() (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, e.err
}

func (e errBatchResults) Query() (pgx.Rows, error) {
	return nil, e.err
}

func (e errBatchResults) QueryRow() pgx.Row {
	return errRow(e)
}

func (e errBatchResults) Close() error {
	return e.err
}
