// Package ginscope adapts reqscope.Filter to gin.
package ginscope

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/n-r-w/uow/reqscope"
)

// Middleware returns a gin middleware that runs the rest of the chain inside a unit of work.
// Failures are added to c.Errors. If the resource cannot be opened the chain is aborted
// with 500 Internal Server Error.
func Middleware(f *reqscope.Filter) gin.HandlerFunc {
	return func(c *gin.Context) {
		called, err := f.Serve(c.Request.Context(), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
		if err == nil {
			return
		}

		f.LogError(c.Request.Context(), err)
		_ = c.Error(err)
		if !called {
			c.AbortWithStatus(http.StatusInternalServerError)
		}
	}
}
