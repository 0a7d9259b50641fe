package ports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	name     string
	err      error
	optional bool
}

func (s *stubChecker) Name() string                { return s.name }
func (s *stubChecker) Check(context.Context) error { return s.err }

type optionalStub struct{ stubChecker }

func (o *optionalStub) Optional() bool { return o.optional }

// slowChecker honours ctx and otherwise takes 100ms.
type slowChecker struct{ name string }

func (c *slowChecker) Name() string { return c.name }

func (c *slowChecker) Check(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

func TestRegister(t *testing.T) {
	registry := NewHealthRegistry()

	require.NoError(t, registry.Register(&stubChecker{name: "account-store"}))

	err := registry.Register(&stubChecker{name: "account-store"})
	require.ErrorIs(t, err, ErrDuplicateChecker)
	assert.Contains(t, err.Error(), "account-store")
	assert.Len(t, registry.checkers, 1)
}

func TestCheckAll(t *testing.T) {
	errPing := errors.New("dial tcp: connection refused")
	errOpen := errors.New("identity provider circuit open")

	tests := []struct {
		name       string
		checkers   []HealthChecker
		wantStatus HealthStatus
		wantChecks map[string]HealthStatus
	}{
		{
			name:       "no checkers",
			wantStatus: HealthStatusHealthy,
			wantChecks: map[string]HealthStatus{},
		},
		{
			name: "all healthy",
			checkers: []HealthChecker{
				&stubChecker{name: "account-store"},
				&optionalStub{stubChecker{name: "facebook", optional: true}},
			},
			wantStatus: HealthStatusHealthy,
			wantChecks: map[string]HealthStatus{"account-store": HealthStatusHealthy, "facebook": HealthStatusHealthy},
		},
		{
			name: "optional failure degrades",
			checkers: []HealthChecker{
				&stubChecker{name: "account-store"},
				&optionalStub{stubChecker{name: "facebook", err: errOpen, optional: true}},
			},
			wantStatus: HealthStatusDegraded,
			wantChecks: map[string]HealthStatus{"account-store": HealthStatusHealthy, "facebook": HealthStatusUnhealthy},
		},
		{
			name: "required failure wins over degraded",
			checkers: []HealthChecker{
				&optionalStub{stubChecker{name: "facebook", err: errOpen, optional: true}},
				&stubChecker{name: "account-store", err: errPing},
			},
			wantStatus: HealthStatusUnhealthy,
			wantChecks: map[string]HealthStatus{"account-store": HealthStatusUnhealthy, "facebook": HealthStatusUnhealthy},
		},
		{
			name: "optional method returning false is required",
			checkers: []HealthChecker{
				&optionalStub{stubChecker{name: "facebook", err: errOpen}},
			},
			wantStatus: HealthStatusUnhealthy,
			wantChecks: map[string]HealthStatus{"facebook": HealthStatusUnhealthy},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewHealthRegistry()
			for _, c := range tt.checkers {
				require.NoError(t, registry.Register(c))
			}

			result := registry.CheckAll(context.Background())

			assert.Equal(t, tt.wantStatus, result.Status)
			assert.False(t, result.Timestamp.IsZero())
			require.Len(t, result.Checks, len(tt.wantChecks))

			for name, want := range tt.wantChecks {
				assert.Equal(t, want, result.Checks[name].Status, name)
			}
		})
	}
}

func TestCheckAll_ReportsMessageAndOptional(t *testing.T) {
	registry := NewHealthRegistry()
	require.NoError(t, registry.Register(&optionalStub{stubChecker{
		name: "facebook", err: errors.New("identity provider circuit open"), optional: true,
	}}))

	check := registry.CheckAll(context.Background()).Checks["facebook"]

	assert.True(t, check.Optional)
	assert.Equal(t, "identity provider circuit open", check.Message)
}

func TestCheckAll_ContextCancelled(t *testing.T) {
	registry := NewHealthRegistry()
	require.NoError(t, registry.Register(&slowChecker{name: "account-store"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := registry.CheckAll(ctx)

	assert.Equal(t, HealthStatusUnhealthy, result.Status)
	assert.Contains(t, result.Checks["account-store"].Message, "context canceled")
}

func TestCheckAll_RunsConcurrently(t *testing.T) {
	registry := NewHealthRegistry()

	for _, name := range []string{"account-store", "facebook", "token-signer"} {
		require.NoError(t, registry.Register(&slowChecker{name: name}))
	}

	start := time.Now()
	result := registry.CheckAll(context.Background())

	assert.Equal(t, HealthStatusHealthy, result.Status)
	assert.Len(t, result.Checks, 3)
	assert.Less(t, time.Since(start), 250*time.Millisecond)
}
