// Package txmgr implements the transaction interceptor and unit-of-work management.
package txmgr

import (
	"context"
	"errors"
	"fmt"

	"github.com/n-r-w/uow"
)

// Invocation describes an intercepted call.
type Invocation struct {
	// Method names the call. It is matched by MethodMatcher and used in logs.
	Method string
	// Transactional is the declared metadata of the call.
	Transactional uow.Transactional
	// Proceed runs the real call.
	Proceed func(ctx context.Context) (any, error)
}

// Interceptor wraps calls in a transaction on the resource of the current unit of work.
// It holds only immutable configuration and is safe for concurrent use.
type Interceptor struct {
	factory IResourceFactory
	scope   uow.UnitOfWork
	settings
}

// New creates a new Interceptor.
func New(factory IResourceFactory, scope uow.UnitOfWork, opts ...Option) *Interceptor {
	if factory == nil {
		panic("invalid arguments")
	}

	return &Interceptor{
		factory:  factory,
		scope:    scope,
		settings: newSettings(opts),
	}
}

// Scope returns the configured unit of work.
func (i *Interceptor) Scope() uow.UnitOfWork {
	return i.scope
}

// Invoke runs inv inside a transaction.
//
// A normal return commits. An error is evaluated with inv.Transactional.Decide,
// the transaction is rolled back or committed accordingly and the error is
// returned unchanged. Under the Transaction unit of work the resource opened
// for the call is closed on every exit path; under Request it is left to its owner.
func (i *Interceptor) Invoke(ctx context.Context, inv Invocation) (result any, err error) {
	if inv.Proceed == nil {
		return nil, errors.New("txmgr: invocation has no proceed function")
	}

	if inv.Transactional.Unit != i.unit || !i.matcher(inv.Method) {
		return inv.Proceed(ctx)
	}

	if err = i.scope.Validate(); err != nil {
		return nil, err
	}

	opts := inv.Transactional.TxOptions()

	if t, ok := txFromContext(ctx, i.unit); ok { // transaction is already started
		// we cannot change transaction level and mode
		if t.opts.Level != opts.Level {
			return nil, fmt.Errorf("%w: level %d != %d", uow.ErrTransactionMismatch, t.opts.Level, opts.Level)
		}
		if t.opts.Mode != opts.Mode {
			return nil, fmt.Errorf("%w: mode %d != %d", uow.ErrTransactionMismatch, t.opts.Mode, opts.Mode)
		}

		// just execute the function
		return inv.Proceed(ctx)
	}

	b, owned, err := i.acquire(ctx)
	if err != nil {
		return nil, err
	}

	if owned {
		ctx = b.toContext(ctx)

		defer func() {
			if _, errClose := b.close(ctx); errClose != nil {
				if err != nil {
					err = uow.WithSuppressed(err, errClose)
				} else {
					err = errClose
				}
			}
			i.debugf(ctx, "unit of work %s closed after %s", b.id, inv.Method)
		}()
	}

	tx, err := b.res.Begin(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	t := &transaction{tx: tx, opts: opts}

	// If panic occurs, rollback the transaction.
	defer func() {
		if p := recover(); p != nil {
			if t.done.CompareAndSwap(false, true) {
				if errRollback := tx.Rollback(ctx); errRollback != nil && i.logger != nil {
					i.logger.Errorf(ctx, "rollback after panic in %s: %v", inv.Method, errRollback)
				}
			}
			panic(p) // Re-throw panic after rollback.
		}
	}()

	result, err = inv.Proceed(withTransaction(ctx, i.unit, t))
	if err != nil {
		return nil, i.rollbackIfNecessary(ctx, inv, t, err)
	}

	// Commit is outside of the error handling above so that a commit failure
	// is never treated as a failure of the call itself.
	t.done.Store(true)
	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	i.debugf(ctx, "%s committed", inv.Method)

	return result, nil
}

// acquire returns the resource binding for the call and whether the call owns it.
func (i *Interceptor) acquire(ctx context.Context) (*binding, bool, error) {
	if b, ok := bindingFromContext(ctx, i.unit); ok {
		return b, false, nil
	}

	if i.scope == uow.Request && !isDetached(ctx, i.unit) {
		return nil, false, fmt.Errorf("%w: unit %q has no resource bound for the request", uow.ErrNoUnitOfWork, i.unit)
	}

	res, err := i.factory.OpenResource(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("open resource: %w", err)
	}

	b := newBinding(i.unit, res)
	i.debugf(ctx, "unit of work %s opened", b.id)

	return b, true, nil
}

// rollbackIfNecessary performs the terminal action for a call that failed with cause
// and returns cause, with the terminal action failure attached if there was one.
func (i *Interceptor) rollbackIfNecessary(ctx context.Context, inv Invocation, t *transaction, cause error) error {
	decision := inv.Transactional.Decide(cause)
	t.done.Store(true)

	var errAction error
	if decision == uow.Rollback {
		if err := t.tx.Rollback(ctx); err != nil {
			errAction = fmt.Errorf("rollback transaction: %w", err)
		}
	} else {
		if err := t.tx.Commit(ctx); err != nil {
			errAction = fmt.Errorf("commit transaction: %w", err)
		}
	}

	i.debugf(ctx, "%s failed, %s: %v", inv.Method, decision, cause)

	if errAction != nil {
		return uow.WithSuppressed(cause, errAction)
	}
	return cause
}

func (s *settings) debugf(ctx context.Context, format string, args ...any) {
	if s.logger != nil {
		s.logger.Debugf(ctx, format, args...)
	}
}

// Run runs f inside a transaction described by t.
func (i *Interceptor) Run(ctx context.Context, method string, t uow.Transactional, f func(ctx context.Context) error) error {
	_, err := i.Invoke(ctx, Invocation{
		Method:        method,
		Transactional: t,
		Proceed: func(ctx context.Context) (any, error) {
			return nil, f(ctx)
		},
	})
	return err
}

// Do runs f inside a transaction described by t and returns its result.
func Do[T any](ctx context.Context, i *Interceptor, method string, t uow.Transactional,
	f func(ctx context.Context) (T, error),
) (T, error) {
	res, err := i.Invoke(ctx, Invocation{
		Method:        method,
		Transactional: t,
		Proceed: func(ctx context.Context) (any, error) {
			return f(ctx)
		},
	})
	if err != nil {
		var zero T
		return zero, err
	}

	v, _ := res.(T)
	return v, nil
}

// Wrap returns f decorated with the interceptor, for building transactional facades once at startup.
func Wrap[A, T any](i *Interceptor, method string, t uow.Transactional,
	f func(ctx context.Context, arg A) (T, error),
) func(ctx context.Context, arg A) (T, error) {
	return func(ctx context.Context, arg A) (T, error) {
		return Do(ctx, i, method, t, func(ctx context.Context) (T, error) {
			return f(ctx, arg)
		})
	}
}
