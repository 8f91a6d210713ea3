package txmgr

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/n-r-w/uow"
)

// resourceKey key for storing the unit of work resource in context.
type resourceKey struct {
	unit string
}

// txKey key for storing the active transaction in context.
type txKey struct {
	unit string
}

// detached replaces the binding in a context returned by WithoutTransaction.
type detached struct{}

// binding is a resource bound to a unit of work.
type binding struct {
	id     string
	unit   string
	res    IResource
	closed atomic.Bool
}

func newBinding(unit string, res IResource) *binding {
	if res == nil {
		panic("invalid arguments") // just in case
	}

	return &binding{
		id:   uuid.NewString(),
		unit: unit,
		res:  res,
	}
}

// toContext puts the binding in context.
func (b *binding) toContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, resourceKey{unit: b.unit}, b)
}

// close closes the resource once. Later calls do nothing and return false.
func (b *binding) close(ctx context.Context) (bool, error) {
	if !b.closed.CompareAndSwap(false, true) {
		return false, nil
	}

	if err := b.res.Close(ctx); err != nil {
		return true, fmt.Errorf("close resource: %w", err)
	}
	return true, nil
}

// bindingFromContext extracts an open binding from context.
func bindingFromContext(ctx context.Context, unit string) (*binding, bool) {
	b, ok := ctx.Value(resourceKey{unit: unit}).(*binding)
	if !ok || b == nil || b.closed.Load() {
		return nil, false
	}
	return b, true
}

// isDetached reports whether ctx was detached from the unit of work by WithoutTransaction.
func isDetached(ctx context.Context, unit string) bool {
	_, ok := ctx.Value(resourceKey{unit: unit}).(detached)
	return ok
}

// BindResource binds res as the current resource of the unit of work.
// The caller keeps ownership of res and must close it.
func BindResource(ctx context.Context, unit string, res IResource) (context.Context, error) {
	if res == nil {
		return ctx, errors.New("BindResource: resource cannot be nil")
	}

	if _, ok := bindingFromContext(ctx, unit); ok {
		return ctx, fmt.Errorf("%w: unit %q", uow.ErrAlreadyBound, unit)
	}

	return newBinding(unit, res).toContext(ctx), nil
}

// CurrentResource returns the open resource bound to the unit of work.
func CurrentResource(ctx context.Context, unit string) (IResource, bool) {
	b, ok := bindingFromContext(ctx, unit)
	if !ok {
		return nil, false
	}
	return b.res, true
}

// UnitOfWorkID returns the id of the unit of work or an empty string if nothing is bound.
func UnitOfWorkID(ctx context.Context, unit string) string {
	b, ok := bindingFromContext(ctx, unit)
	if !ok {
		return ""
	}
	return b.id
}

// transaction stores transaction information.
type transaction struct {
	tx   ITransaction
	opts uow.TxOptions
	done atomic.Bool
}

// withTransaction puts transaction in context.
func withTransaction(ctx context.Context, unit string, t *transaction) context.Context {
	return context.WithValue(ctx, txKey{unit: unit}, t)
}

// txFromContext extracts an unfinished transaction from context.
func txFromContext(ctx context.Context, unit string) (*transaction, bool) {
	t, ok := ctx.Value(txKey{unit: unit}).(*transaction)
	if !ok || t == nil || t.done.Load() {
		return nil, false
	}
	return t, true
}

// CurrentTransaction returns the active transaction of the unit.
// Providers use it to run queries inside the transaction.
func CurrentTransaction(ctx context.Context, unit string) (ITransaction, bool) {
	t, ok := txFromContext(ctx, unit)
	if !ok {
		return nil, false
	}
	return t.tx, true
}

// InTransaction returns true if transaction is started.
func InTransaction(ctx context.Context, unit string) bool {
	_, ok := txFromContext(ctx, unit)
	return ok
}

// TransactionOptions returns transaction parameters. If transaction is not started, returns zero options.
func TransactionOptions(ctx context.Context, unit string) uow.TxOptions {
	t, ok := txFromContext(ctx, unit)
	if !ok {
		return uow.TxOptions{}
	}
	return t.opts
}

// WithoutTransaction returns context detached from the active transaction of the unit.
// The resource of the transaction is hidden as well: providers fall back to their pool,
// and a transactional call on the returned context opens and owns a new resource
// whatever the scope of the unit of work is.
// If no transaction is active, ctx is returned unchanged.
func WithoutTransaction(ctx context.Context, unit string) context.Context {
	if _, ok := txFromContext(ctx, unit); !ok {
		return ctx
	}
	ctx = context.WithValue(ctx, resourceKey{unit: unit}, detached{})
	return context.WithValue(ctx, txKey{unit: unit}, nil)
}
