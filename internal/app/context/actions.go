package context

import (
	"context"
	"errors"
	"fmt"
)

// Action is a side effect staged during a request and run only once the
// request has succeeded, e.g. publishing an account event.
type Action interface {
	Execute(ctx context.Context) error

	// Rollback undoes the action if possible.
	Rollback(ctx context.Context) error

	// Description is used in logs.
	Description() string
}

// AddAction stages an action. It fails once the context is committed or
// discarded.
func (rc *RequestContext) AddAction(action Action) error {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.committed {
		return ErrAlreadyCommitted
	}

	rc.actions = append(rc.actions, action)

	return nil
}

// Commit runs the staged actions in order. When one fails, the ones already
// run are rolled back in reverse order and every rollback failure is joined
// to the returned error.
func (rc *RequestContext) Commit(ctx context.Context) error {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.committed {
		return ErrAlreadyCommitted
	}

	rc.committed = true

	for i, action := range rc.actions {
		err := action.Execute(ctx)
		if err == nil {
			continue
		}

		errs := []error{fmt.Errorf("action %q failed: %w", action.Description(), err)}

		for j := i - 1; j >= 0; j-- {
			if rbErr := rc.actions[j].Rollback(ctx); rbErr != nil {
				errs = append(errs, fmt.Errorf("rollback %q: %w", rc.actions[j].Description(), rbErr))
			}
		}

		return errors.Join(errs...)
	}

	return nil
}

// Discard drops the staged actions without running them. Used when the
// request failed.
func (rc *RequestContext) Discard() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	n := len(rc.actions)
	rc.actions = nil
	rc.committed = true

	return n
}

// Actions returns a copy of staged actions (for inspection/testing).
func (rc *RequestContext) Actions() []Action {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	result := make([]Action, len(rc.actions))
	copy(result, rc.actions)

	return result
}
