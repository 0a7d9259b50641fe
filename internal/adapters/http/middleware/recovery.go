package middleware

import (
	"log/slog"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/account-gateway/internal/adapters/http/dto"
	"github.com/jsamuelsen/account-gateway/internal/platform/logging"
	"github.com/jsamuelsen/account-gateway/internal/platform/telemetry"
)

// Recovery returns middleware that recovers from panics.
// On panic, it:
//   - Logs the error with full stack trace at ERROR level
//   - Answers with the INTERNAL (50000) envelope unless a response was written
//
// This middleware should be applied first in the chain to catch panics
// from all subsequent handlers and middleware.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			ctx := c.Request.Context()

			logging.FromContext(ctx).ErrorContext(ctx, "panic recovered",
				slog.Any("error", r),
				slog.String("stack", string(debug.Stack())),
				slog.String("path", c.Request.URL.Path),
				slog.String("method", c.Request.Method),
				slog.String("trace_id", telemetry.TraceID(ctx)),
			)

			if c.Writer.Written() {
				c.Abort()
				return
			}

			resp := dto.BuildError(dto.CodeInternal, dto.CodeInternal.Message(),
				dto.WithHTTPStatus(dto.CodeInternal.HTTPStatus()),
			)
			c.AbortWithStatusJSON(resp.HTTPStatus, resp)
		}()

		c.Next()
	}
}
