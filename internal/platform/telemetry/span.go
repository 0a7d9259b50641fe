package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attributes describing how the gateway answered a request.
const (
	AttrStatusCode = attribute.Key("account_gateway.status_code")
	AttrRule       = attribute.Key("account_gateway.rule")
)

// TraceID returns the active trace ID, or "" outside a recorded trace.
func TraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.HasTraceID() {
		return ""
	}

	return sc.TraceID().String()
}

// AnnotateResponse records the application status code and the rule that
// produced it on the active span. Internal failures mark the span as errored.
func AnnotateResponse(ctx context.Context, statusCode int, rule string) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(AttrStatusCode.Int(statusCode), AttrRule.String(rule))

	if statusCode >= 50000 {
		span.SetStatus(codes.Error, rule)
	}
}
