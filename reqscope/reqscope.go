// Package reqscope binds one persistence resource to every incoming request.
//
// The filter is used with the Request unit of work: the resource is opened when
// the request starts, every transactional call of the request runs on it, and
// it is closed when the request ends.
package reqscope

import (
	"context"
	"net/http"

	"github.com/n-r-w/uow"
	"github.com/n-r-w/uow/txmgr"
)

// Filter is the request scope hook.
type Filter struct {
	wm *txmgr.WorkManager
}

// New creates a new Filter. scope must be uow.Request, otherwise every request fails
// with uow.ErrConfiguration. opts must use the same unit as the interceptor.
func New(factory txmgr.IResourceFactory, scope uow.UnitOfWork, opts ...txmgr.Option) *Filter {
	return &Filter{
		wm: txmgr.NewWorkManager(factory, scope, opts...),
	}
}

// Do opens a resource, calls next with a context carrying it and closes the resource
// on every exit path of next. Errors of next are returned unchanged; a close failure is
// attached with uow.WithSuppressed or returned alone.
func (f *Filter) Do(ctx context.Context, next func(ctx context.Context) error) error {
	return f.wm.Do(ctx, next)
}

// Serve is Do for handlers without an error result. called reports whether next ran:
// when it is false the request has not been answered yet.
func (f *Filter) Serve(ctx context.Context, next func(ctx context.Context)) (called bool, err error) {
	err = f.Do(ctx, func(ctx context.Context) error {
		called = true
		next(ctx)
		return nil
	})
	return called, err
}

// Middleware returns a net/http middleware. It works with any router built on
// http.Handler, e.g. chi. If the resource cannot be opened the request is answered
// with 500 Internal Server Error.
func (f *Filter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called, err := f.Serve(r.Context(), func(ctx context.Context) {
			next.ServeHTTP(w, r.WithContext(ctx))
		})
		if err == nil {
			return
		}

		f.errorf(r.Context(), "request %s %s: %v", r.Method, r.URL.Path, err)
		if !called {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	})
}

// LogError logs err with the logger set by txmgr.WithLogger.
func (f *Filter) LogError(ctx context.Context, err error) {
	f.errorf(ctx, "request scope: %v", err)
}

func (f *Filter) errorf(ctx context.Context, format string, args ...any) {
	if l := f.wm.Logger(); l != nil {
		l.Errorf(ctx, format, args...)
	}
}
