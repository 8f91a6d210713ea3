package txmgr

import (
	"context"
	"fmt"

	"github.com/n-r-w/uow"
)

// WorkManager opens and closes units of work explicitly. It is used for the
// Request unit of work outside of HTTP, e.g. in background jobs, and by the
// reqscope filter for HTTP requests.
type WorkManager struct {
	factory IResourceFactory
	scope   uow.UnitOfWork
	settings
}

// NewWorkManager creates a new WorkManager.
func NewWorkManager(factory IResourceFactory, scope uow.UnitOfWork, opts ...Option) *WorkManager {
	if factory == nil {
		panic("invalid arguments")
	}

	return &WorkManager{
		factory:  factory,
		scope:    scope,
		settings: newSettings(opts),
	}
}

// Scope returns the configured unit of work.
func (w *WorkManager) Scope() uow.UnitOfWork {
	return w.scope
}

// Logger returns the logger set by WithLogger or nil.
func (w *WorkManager) Logger() uow.ILogger {
	return w.logger
}

// BeginWork opens a resource and binds it to the returned context.
// It fails with uow.ErrConfiguration unless the unit of work is Request,
// because under Transaction the interceptor owns every resource.
func (w *WorkManager) BeginWork(ctx context.Context) (context.Context, error) {
	if w.scope != uow.Request {
		return ctx, fmt.Errorf("%w: unit of work must be %s to begin work manually, got %s",
			uow.ErrConfiguration, uow.Request, w.scope)
	}

	if _, ok := bindingFromContext(ctx, w.unit); ok {
		return ctx, fmt.Errorf("%w: unit %q", uow.ErrAlreadyBound, w.unit)
	}

	res, err := w.factory.OpenResource(ctx)
	if err != nil {
		return ctx, fmt.Errorf("open resource: %w", err)
	}

	b := newBinding(w.unit, res)
	w.debugf(ctx, "unit of work %s started", b.id)

	return b.toContext(ctx), nil
}

// EndWork closes the resource bound by BeginWork. Only the first call closes it;
// later calls return nil. Without a bound resource it returns uow.ErrNoUnitOfWork.
func (w *WorkManager) EndWork(ctx context.Context) error {
	b, ok := ctx.Value(resourceKey{unit: w.unit}).(*binding)
	if !ok || b == nil {
		return fmt.Errorf("%w: unit %q", uow.ErrNoUnitOfWork, w.unit)
	}

	closed, err := b.close(ctx)
	if closed {
		w.debugf(ctx, "unit of work %s ended", b.id)
	}
	return err
}

// Do runs f inside a unit of work. The resource is closed exactly once on every exit path of f.
// An error from f is returned unchanged unless closing also failed, see uow.SuppressedError.
func (w *WorkManager) Do(ctx context.Context, f func(ctx context.Context) error) (err error) {
	ctxWork, err := w.BeginWork(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if errEnd := w.EndWork(ctxWork); errEnd != nil {
			if err != nil {
				err = uow.WithSuppressed(err, errEnd)
			} else {
				err = errEnd
			}
		}
	}()

	return f(ctxWork)
}
