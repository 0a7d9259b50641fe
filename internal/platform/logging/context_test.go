package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	return entry
}

func TestFromContext(t *testing.T) {
	custom := slog.New(slog.NewTextHandler(io.Discard, nil))

	assert.Same(t, defaultLogger, FromContext(nil)) //nolint:staticcheck // nil guard
	assert.Same(t, defaultLogger, FromContext(context.Background()))
	assert.Same(t, custom, FromContext(WithContext(context.Background(), custom)))
}

func TestContextTags(t *testing.T) {
	tests := []struct {
		name  string
		tag   func(context.Context, string) context.Context
		key   string
		value string
	}{
		{"request id", WithRequestID, "request_id", "req-123"},
		{"correlation id", WithCorrelationID, "correlation_id", "corr-789"},
		{"trace id", WithTraceID, "trace_id", "4bf92f3577b34da6a3ce929d0e0e4736"},
		{"account id", WithAccountID, "account_id", "7d0f5c1e-acc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			ctx := WithContext(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))

			FromContext(tt.tag(ctx, tt.value)).InfoContext(ctx, "signed in")

			assert.Equal(t, tt.value, decodeLine(t, &buf)[tt.key])
		})
	}
}

func TestContextTags_Accumulate(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithContext(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))

	ctx = WithRequestID(ctx, "req-1")
	ctx = WithCorrelationID(ctx, "corr-1")
	ctx = WithAccountID(ctx, "acc-1")

	FromContext(ctx).Info("profile updated")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "corr-1", entry["correlation_id"])
	assert.Equal(t, "acc-1", entry["account_id"])
}

func TestSetDefault(t *testing.T) {
	original := defaultLogger
	t.Cleanup(func() { SetDefault(original) })

	custom := slog.New(slog.NewTextHandler(io.Discard, nil))
	SetDefault(custom)

	assert.Same(t, custom, FromContext(context.Background()))
	assert.Same(t, custom, slog.Default())
}
