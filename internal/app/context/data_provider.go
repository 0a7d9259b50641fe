package context

import "context"

// DataProvider is a named, memoisable lookup.
type DataProvider[T any] interface {
	// Key returns the cache key for this provider.
	Key() string

	// Fetch retrieves the data.
	Fetch(ctx context.Context) (T, error)
}

// FetchProvider memoises provider under its key for the current request.
func FetchProvider[T any](ctx context.Context, provider DataProvider[T]) (T, error) {
	return Fetch(ctx, provider.Key(), provider.Fetch)
}
