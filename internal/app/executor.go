package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jsamuelsen/account-gateway/internal/platform/logging"
)

// Account operations run in four steps: Validate → Perform → Verify → Archive.
//
//  1. VALIDATE - check inputs before anything leaves the process
//  2. PERFORM  - ask the outside world (e.g. the identity provider)
//  3. VERIFY   - reject results that cannot be trusted
//  4. ARCHIVE  - write to the account store and produce the result
//
// Nothing is written unless the first three steps pass.

// ExecutionStep names a step of an operation.
type ExecutionStep string

const (
	StepValidate ExecutionStep = "validate"
	StepPerform  ExecutionStep = "perform"
	StepVerify   ExecutionStep = "verify"
	StepArchive  ExecutionStep = "archive"
)

// ExecutionError records the step an operation failed in. It unwraps to the
// cause, so domain errors stay visible to errors.Is and errors.As.
type ExecutionError struct {
	Operation string
	Step      ExecutionStep
	Cause     error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Operation, e.Step, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Operation is one use case split into steps. Nil steps are skipped; a nil
// Archive yields the zero O.
type Operation[I, P, O any] struct {
	Name string

	Validate func(ctx context.Context, input I) error
	Perform  func(ctx context.Context, input I) (P, error)
	Verify   func(ctx context.Context, input I, performed P) error
	Archive  func(ctx context.Context, input I, verified P) (O, error)
}

// Executor runs operations, logging each step and timing the whole.
type Executor struct {
	logger   *slog.Logger
	duration *prometheus.HistogramVec
}

// ExecutorConfig configures an Executor.
type ExecutorConfig struct {
	Logger *slog.Logger

	// Registerer receives the operation duration histogram. Nil disables it.
	Registerer prometheus.Registerer
}

// NewExecutor creates an Executor.
func NewExecutor(cfg ExecutorConfig) *Executor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := &Executor{logger: logger}

	if cfg.Registerer != nil {
		e.duration = registerDuration(cfg.Registerer)
	}

	return e
}

// Execute runs op against input.
func Execute[I, P, O any](ctx context.Context, exec *Executor, op Operation[I, P, O], input I) (O, error) {
	var zero O

	logger := logging.FromContext(ctx).With(slog.String("operation", op.Name))
	start := time.Now()

	fail := func(step ExecutionStep, err error) (O, error) {
		logger.DebugContext(ctx, "operation step failed",
			slog.String("step", string(step)),
			slog.String("error", err.Error()),
		)
		exec.observe(op.Name, step, start)

		return zero, &ExecutionError{Operation: op.Name, Step: step, Cause: err}
	}

	if op.Validate != nil {
		if err := op.Validate(ctx, input); err != nil {
			return fail(StepValidate, err)
		}
	}

	var performed P

	if op.Perform != nil {
		var err error

		performed, err = op.Perform(ctx, input)
		if err != nil {
			return fail(StepPerform, err)
		}
	}

	if op.Verify != nil {
		if err := op.Verify(ctx, input, performed); err != nil {
			return fail(StepVerify, err)
		}
	}

	result := zero

	if op.Archive != nil {
		var err error

		result, err = op.Archive(ctx, input, performed)
		if err != nil {
			return fail(StepArchive, err)
		}
	}

	exec.observe(op.Name, "", start)
	logger.DebugContext(ctx, "operation completed", slog.Duration("duration", time.Since(start)))

	return result, nil
}

func (e *Executor) observe(operation string, failedAt ExecutionStep, start time.Time) {
	if e == nil || e.duration == nil {
		return
	}

	outcome := "success"
	if failedAt != "" {
		outcome = string(failedAt) + "_failed"
	}

	e.duration.WithLabelValues(operation, outcome).Observe(time.Since(start).Seconds())
}

func registerDuration(reg prometheus.Registerer) *prometheus.HistogramVec {
	hist := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "account_gateway_operation_duration_seconds",
		Help:    "Duration of account operations, by outcome.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "outcome"})

	if err := reg.Register(hist); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing
			}
		}

		return nil
	}

	return hist
}

// FailedStep reports the step an operation failed in.
func FailedStep(err error) (ExecutionStep, bool) {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Step, true
	}

	return "", false
}
