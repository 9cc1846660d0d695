// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"orgstruct/internal/core/apperror"
	"orgstruct/pkg/logger"
)

// Recovery turns a panic into a 500 INTERNAL_ERROR response.
// A panic unwinds past ErrorHandler, so the response is rendered here.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if v := recover(); v != nil {
				recoverPanic(c, v)
			}
		}()
		c.Next()
	}
}

func recoverPanic(c *gin.Context, v any) {
	logger.Error(c.Request.Context(), "panic recovered",
		"route", c.FullPath(),
		"panic", v,
		"stack", string(debug.Stack()),
	)

	appErr := apperror.NewInternal(fmt.Errorf("panic: %v", v))
	if rid := c.GetString(ctxKeyRequestID); rid != "" {
		appErr = appErr.WithDetail("request_id", rid)
	}
	_ = c.Error(appErr)
	c.Abort()
	writeError(c)
}
