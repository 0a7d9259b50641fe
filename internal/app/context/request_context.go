package context

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

type ctxKey struct{}

// RequestContext holds per-request memoised lookups and staged side effects.
// It lives for a single HTTP request and is never shared across requests.
type RequestContext struct {
	cache  sync.Map
	flight singleflight.Group

	mu        sync.Mutex
	actions   []Action
	committed bool
}

// New creates an empty RequestContext.
func New() *RequestContext {
	return &RequestContext{}
}

// FromContext extracts RequestContext, returns nil if not present.
func FromContext(ctx context.Context) *RequestContext {
	if ctx == nil {
		return nil
	}

	if rc, ok := ctx.Value(ctxKey{}).(*RequestContext); ok {
		return rc
	}

	return nil
}

// WithContext stores RequestContext in the context.
func WithContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, rc)
}

// GetOrFetch returns the value cached under key, or runs fetchFn once and
// caches a successful result. Concurrent callers for the same key share one
// in-flight fetch. Failures are not cached, so a later call fetches again.
func (rc *RequestContext) GetOrFetch(ctx context.Context, key string, fetchFn func(ctx context.Context) (any, error)) (any, error) {
	if cached, ok := rc.cache.Load(key); ok {
		return cached, nil
	}

	value, err, _ := rc.flight.Do(key, func() (any, error) {
		if cached, ok := rc.cache.Load(key); ok {
			return cached, nil
		}

		v, err := fetchFn(ctx)
		if err != nil {
			return nil, err
		}

		rc.cache.Store(key, v)

		return v, nil
	})

	return value, err
}

// Fetch is the typed form of GetOrFetch. Without a RequestContext in ctx the
// value is fetched directly.
func Fetch[T any](ctx context.Context, key string, fetchFn func(ctx context.Context) (T, error)) (T, error) {
	rc := FromContext(ctx)
	if rc == nil {
		return fetchFn(ctx)
	}

	v, err := rc.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) {
		return fetchFn(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}

	typed, ok := v.(T)
	if !ok {
		var zero T
		return zero, &TypeMismatchError{Key: key}
	}

	return typed, nil
}
