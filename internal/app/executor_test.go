package app

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/account-gateway/internal/domain"
)

func TestExecute_RunsStepsInOrder(t *testing.T) {
	var calls []ExecutionStep

	op := Operation[int, int, string]{
		Name: "test.double",
		Validate: func(_ context.Context, in int) error {
			calls = append(calls, StepValidate)
			return nil
		},
		Perform: func(_ context.Context, in int) (int, error) {
			calls = append(calls, StepPerform)
			return in * 2, nil
		},
		Verify: func(_ context.Context, _ int, performed int) error {
			calls = append(calls, StepVerify)
			return nil
		},
		Archive: func(_ context.Context, _ int, verified int) (string, error) {
			calls = append(calls, StepArchive)
			return "ok", nil
		},
	}

	got, err := Execute(context.Background(), NewExecutor(ExecutorConfig{Logger: discardLogger()}), op, 21)

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, []ExecutionStep{StepValidate, StepPerform, StepVerify, StepArchive}, calls)
}

func TestExecute_StopsAtFailingStep(t *testing.T) {
	cause := domain.NewValidationError("Email is invalid")

	tests := []struct {
		name     string
		failAt   ExecutionStep
		wantRuns []ExecutionStep
	}{
		{name: "validate", failAt: StepValidate, wantRuns: []ExecutionStep{StepValidate}},
		{name: "perform", failAt: StepPerform, wantRuns: []ExecutionStep{StepValidate, StepPerform}},
		{name: "verify", failAt: StepVerify, wantRuns: []ExecutionStep{StepValidate, StepPerform, StepVerify}},
		{name: "archive", failAt: StepArchive, wantRuns: []ExecutionStep{StepValidate, StepPerform, StepVerify, StepArchive}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var runs []ExecutionStep

			step := func(s ExecutionStep) error {
				runs = append(runs, s)
				if s == tt.failAt {
					return cause
				}

				return nil
			}

			op := Operation[string, string, string]{
				Name:     "test.fail",
				Validate: func(context.Context, string) error { return step(StepValidate) },
				Perform:  func(context.Context, string) (string, error) { return "", step(StepPerform) },
				Verify:   func(context.Context, string, string) error { return step(StepVerify) },
				Archive:  func(context.Context, string, string) (string, error) { return "", step(StepArchive) },
			}

			_, err := Execute(context.Background(), NewExecutor(ExecutorConfig{}), op, "in")

			require.Error(t, err)
			assert.Equal(t, tt.wantRuns, runs)

			failed, ok := FailedStep(err)
			require.True(t, ok)
			assert.Equal(t, tt.failAt, failed)

			var verr *domain.ValidationError
			assert.ErrorAs(t, err, &verr, "domain error stays reachable")
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestExecute_NilStepsAreSkipped(t *testing.T) {
	got, err := Execute(context.Background(), NewExecutor(ExecutorConfig{}), Operation[int, int, int]{Name: "noop"}, 1)

	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestExecutor_RecordsDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	exec := NewExecutor(ExecutorConfig{Registerer: reg})

	ok := Operation[int, int, int]{Name: "test.metrics"}
	failing := Operation[int, int, int]{
		Name:    "test.metrics",
		Perform: func(context.Context, int) (int, error) { return 0, errors.New("boom") },
	}

	_, _ = Execute(context.Background(), exec, ok, 1)
	_, _ = Execute(context.Background(), exec, failing, 1)

	count, err := testutil.GatherAndCount(reg, "account_gateway_operation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per outcome")

	again := NewExecutor(ExecutorConfig{Registerer: reg})
	assert.NotNil(t, again.duration, "re-registration reuses the collector")
}

func TestFailedStep_NotExecutionError(t *testing.T) {
	_, ok := FailedStep(errors.New("plain"))
	assert.False(t, ok)
}
