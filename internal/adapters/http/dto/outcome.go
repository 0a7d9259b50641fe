package dto

import "errors"

// ErrHandled marks a failure whose response has already been written.
// The error classifier recognises it and emits nothing further.
var ErrHandled = errors.New("response already handled")

// Outcome is the result of a step that may have already answered the request.
// A Handled outcome means the caller must stop without writing anything.
type Outcome[T any] struct {
	value   T
	handled bool
}

// Continue wraps a value for the caller to proceed with.
func Continue[T any](v T) Outcome[T] {
	return Outcome[T]{value: v}
}

// Handled reports that the response has been written.
func Handled[T any]() Outcome[T] {
	return Outcome[T]{handled: true}
}

// Halted reports whether the caller must stop.
func (o Outcome[T]) Halted() bool {
	return o.handled
}

// Value returns the wrapped value. It is the zero value when Halted.
func (o Outcome[T]) Value() T {
	return o.value
}
