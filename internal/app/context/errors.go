package context

import (
	"errors"
	"fmt"
)

// ErrAlreadyCommitted is returned when trying to add actions or commit
// after the RequestContext has already been committed.
var ErrAlreadyCommitted = errors.New("request context already committed")

// TypeMismatchError means a memoised value under Key has a different type
// than the caller asked for. Two fetchers are sharing a key.
type TypeMismatchError struct {
	Key string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("request context: cached value for %q has unexpected type", e.Key)
}
