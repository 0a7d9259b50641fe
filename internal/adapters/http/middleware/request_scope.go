package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	appctx "github.com/jsamuelsen/account-gateway/internal/app/context"
	"github.com/jsamuelsen/account-gateway/internal/platform/logging"
)

// RequestScope gives each request its own memo and staged actions. Staged
// actions run after a successful response and are dropped otherwise.
func RequestScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		rc := appctx.New()
		ctx := appctx.WithContext(c.Request.Context(), rc)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		// Later middleware may have replaced the request context with one
		// that is already cancelled by now.
		ctx = context.WithoutCancel(ctx)
		logger := logging.FromContext(ctx)

		if len(c.Errors) > 0 || c.Writer.Status() >= http.StatusBadRequest {
			if dropped := rc.Discard(); dropped > 0 {
				logger.DebugContext(ctx, "staged actions discarded", slog.Int("count", dropped))
			}

			return
		}

		if err := rc.Commit(ctx); err != nil {
			logger.WarnContext(ctx, "staged actions failed", slog.String("error", err.Error()))
		}
	}
}
