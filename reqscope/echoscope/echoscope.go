// Package echoscope adapts reqscope.Filter to echo.
package echoscope

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/n-r-w/uow/reqscope"
)

// Middleware returns an echo middleware that runs the next handler inside a unit of work.
// Handler errors are returned unchanged. A failure to open the resource is returned as
// 500 Internal Server Error with the cause as the internal error.
func Middleware(f *reqscope.Filter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			called := false
			err := f.Do(c.Request().Context(), func(ctx context.Context) error {
				called = true
				c.SetRequest(c.Request().WithContext(ctx))
				return next(c)
			})
			if err != nil && !called {
				f.LogError(c.Request().Context(), err)
				return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
			}
			return err
		}
	}
}
