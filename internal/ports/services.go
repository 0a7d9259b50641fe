// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Context as first parameter (always) for cancellation and deadlines
//   - Return domain types, never external DTOs or infrastructure types
//   - Error returns use domain error types (ErrNotFound, ErrConflict, etc.)
//   - Keep interfaces small and focused (Interface Segregation Principle)
package ports

import (
	"context"

	"github.com/jsamuelsen/account-gateway/internal/domain"
)

// AccountRepository is the account store.
//
// Uniqueness of Email and of a non-empty ExternalID is enforced by the store
// itself, so concurrent check-then-act sequences in the application layer
// cannot produce two accounts for one identity.
type AccountRepository interface {
	// FindByID returns *domain.NotFoundError (by id) when absent.
	FindByID(ctx context.Context, id string) (*domain.Account, error)

	// FindByEmail looks up a normalised email.
	// Returns *domain.NotFoundError (by email) when absent.
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)

	// FindByExternalID returns *domain.NotFoundError (by external_id) when absent.
	FindByExternalID(ctx context.Context, externalID string) (*domain.Account, error)

	// Create inserts the account and assigns ID and timestamps.
	// Returns *domain.DuplicateRecordError on a uniqueness violation.
	Create(ctx context.Context, account *domain.Account) error

	// LinkExternalID sets the external identity of an account. The write only
	// succeeds while the account is unlinked or already linked to externalID,
	// unless force is set. Returns *domain.DuplicateRecordError (external_id)
	// when another account holds the identity or the account was linked
	// concurrently to a different one.
	LinkExternalID(ctx context.Context, id, externalID string, force bool) (*domain.Account, error)

	// Update persists email, password hash and verification state.
	// Returns *domain.DuplicateRecordError when the new email is taken.
	Update(ctx context.Context, account *domain.Account) error
}

// IdentityProvider resolves a provider access token into a profile.
//
// Key considerations:
//   - Handle timeouts via context deadline
//   - Map external errors to domain errors
//   - Transform external DTOs to domain types
type IdentityProvider interface {
	// Name is the machine name of the provider, e.g. "facebook".
	Name() string

	// DisplayName is used in client-facing messages, e.g. "Facebook".
	DisplayName() string

	// FetchProfile exchanges an access token for the owner's profile.
	// Any failure means the token cannot be trusted.
	FetchProfile(ctx context.Context, accessToken string) (*domain.RemoteProfile, error)
}

// PasswordHasher hashes and verifies account passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// EventPublisher defines the contract for publishing domain events.
// Implementations may use message queues, event buses, or other mechanisms.
type EventPublisher interface {
	// Publish sends an event to the configured destination.
	// Returns domain.ErrUnavailable if the messaging system is unreachable.
	Publish(ctx context.Context, event Event) error
}

// Event represents a domain event that can be published.
type Event interface {
	// EventType returns the type identifier for routing.
	EventType() string

	// Payload returns the event data for serialization.
	Payload() any
}
