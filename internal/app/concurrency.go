package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jsamuelsen/account-gateway/internal/domain"
)

// accountLookup is a single store read.
type accountLookup func(ctx context.Context) (*domain.Account, error)

// findConcurrently runs the lookups in parallel and returns their results in
// order. A not found result leaves a nil slot; a nil lookup is skipped. Any
// other failure cancels the remaining lookups.
func findConcurrently(ctx context.Context, lookups ...accountLookup) ([]*domain.Account, error) {
	results := make([]*domain.Account, len(lookups))

	g, gctx := errgroup.WithContext(ctx)

	for i, lookup := range lookups {
		if lookup == nil {
			continue
		}

		g.Go(func() error {
			account, err := lookup(gctx)
			if domain.IsNotFound(err) {
				return nil
			}

			if err != nil {
				return err
			}

			results[i] = account

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("account lookup: %w", err)
	}

	return results, nil
}
