// Package middleware provides HTTP middleware for the Gin framework.
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jsamuelsen/account-gateway/internal/platform/logging"
)

// Header names for the tracing IDs. The request ID is per hop; the
// correlation ID follows one sign-in or account change across services.
const (
	HeaderRequestID     = "X-Request-ID"
	HeaderCorrelationID = "X-Correlation-ID"
)

// Gin context keys for the tracing IDs.
const (
	ContextKeyRequestID     = "request_id"
	ContextKeyCorrelationID = "correlation_id"
)

// maxTraceIDLength bounds caller-supplied IDs before they reach logs and
// the identity provider.
const maxTraceIDLength = 128

type traceIDKey struct{ name string }

// traceID describes one ID the gateway accepts from callers, echoes back
// and forwards to the identity provider.
type traceID struct {
	header string
	ginKey string
	ctxKey traceIDKey
	logger func(context.Context, string) context.Context
}

var (
	requestIDKind = traceID{
		header: HeaderRequestID,
		ginKey: ContextKeyRequestID,
		ctxKey: traceIDKey{"request_id"},
		logger: logging.WithRequestID,
	}
	correlationIDKind = traceID{
		header: HeaderCorrelationID,
		ginKey: ContextKeyCorrelationID,
		ctxKey: traceIDKey{"correlation_id"},
		logger: logging.WithCorrelationID,
	}
)

// RequestID accepts X-Request-ID or generates a UUID v4, echoes it on the
// response, and puts it on the gin context, the request context and the
// context logger.
func RequestID() gin.HandlerFunc { return requestIDKind.middleware() }

// CorrelationID does the same for X-Correlation-ID.
func CorrelationID() gin.HandlerFunc { return correlationIDKind.middleware() }

// GetRequestID returns the request ID, or "" outside RequestID.
func GetRequestID(c *gin.Context) string { return c.GetString(ContextKeyRequestID) }

// GetCorrelationID returns the correlation ID, or "" outside CorrelationID.
func GetCorrelationID(c *gin.Context) string { return c.GetString(ContextKeyCorrelationID) }

// RequestIDFromContext is read by outbound clients to propagate the ID.
func RequestIDFromContext(ctx context.Context) string { return requestIDKind.from(ctx) }

// CorrelationIDFromContext is read by outbound clients to propagate the ID.
func CorrelationIDFromContext(ctx context.Context) string { return correlationIDKind.from(ctx) }

// ContextWithRequestID stores a request ID for outbound propagation.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKind.ctxKey, id)
}

// ContextWithCorrelationID stores a correlation ID for outbound propagation.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKind.ctxKey, id)
}

func (k traceID) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(k.header)
		if !acceptableTraceID(id) {
			id = uuid.NewString()
		}

		c.Set(k.ginKey, id)
		c.Header(k.header, id)

		ctx := context.WithValue(c.Request.Context(), k.ctxKey, id)
		c.Request = c.Request.WithContext(k.logger(ctx, id))

		c.Next()
	}
}

func (k traceID) from(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(k.ctxKey).(string)

	return id
}

// acceptableTraceID reports whether a caller-supplied ID is non-empty,
// bounded and printable ASCII.
func acceptableTraceID(id string) bool {
	if id == "" || len(id) > maxTraceIDLength {
		return false
	}

	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}

	return true
}
