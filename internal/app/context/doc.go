// Package context carries request-scoped state for the application services.
//
// # Memoised lookups
//
// A profile fetched from an identity provider is reused for the rest of the
// request, however many steps ask for it:
//
//	profile, err := context.Fetch(ctx, "profile:facebook", func(ctx context.Context) (*domain.RemoteProfile, error) {
//	    return provider.FetchProfile(ctx, token)
//	})
//
// Failed fetches are not cached.
//
// # Staged side effects
//
// Services stage actions such as event publication while handling a request:
//
//	rc.AddAction(publish)
//
// The HTTP layer commits them after a successful response and discards them
// otherwise, so a rejected request never emits an event.
package context
