package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	appctx "github.com/jsamuelsen/account-gateway/internal/app/context"
	"github.com/jsamuelsen/account-gateway/internal/domain"
	"github.com/jsamuelsen/account-gateway/internal/platform/logging"
	"github.com/jsamuelsen/account-gateway/internal/ports"
)

// IdentityService maps identity provider access tokens to accounts.
type IdentityService struct {
	accounts ports.AccountRepository
	provider ports.IdentityProvider
	hasher   ports.PasswordHasher
	events   ports.EventPublisher
	exec     *Executor
	logger   *slog.Logger
}

// IdentityServiceConfig contains the dependencies of IdentityService.
type IdentityServiceConfig struct {
	Accounts ports.AccountRepository
	Provider ports.IdentityProvider
	Hasher   ports.PasswordHasher

	// Events is optional.
	Events   ports.EventPublisher
	Executor *Executor
	Logger   *slog.Logger
}

// NewIdentityService creates an IdentityService. It panics when a required
// dependency is missing.
func NewIdentityService(cfg IdentityServiceConfig) *IdentityService {
	if cfg.Accounts == nil || cfg.Provider == nil || cfg.Hasher == nil {
		panic("app: identity service requires accounts, provider and hasher")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	exec := cfg.Executor
	if exec == nil {
		exec = NewExecutor(ExecutorConfig{Logger: logger})
	}

	return &IdentityService{
		accounts: cfg.Accounts,
		provider: cfg.Provider,
		hasher:   cfg.Hasher,
		events:   cfg.Events,
		exec:     exec,
		logger:   logger.With(slog.String("component", "identity_service")),
	}
}

// Provider returns the identity provider this service resolves against.
func (s *IdentityService) Provider() ports.IdentityProvider {
	return s.provider
}

// Authenticate returns the account for the owner of accessToken. An account
// already linked to the provider identity wins; otherwise an account with the
// provider's email is linked; otherwise a verified account is created.
func (s *IdentityService) Authenticate(ctx context.Context, accessToken string) (*domain.Account, error) {
	return Execute(ctx, s.exec, Operation[string, *domain.RemoteProfile, *domain.Account]{
		Name:     "identity.authenticate",
		Validate: s.validateToken,
		Perform:  s.profile,
		Verify:   s.verifyProfile,
		Archive: func(ctx context.Context, _ string, profile *domain.RemoteProfile) (*domain.Account, error) {
			return s.resolve(ctx, profile)
		},
	}, accessToken)
}

type linkInput struct {
	current     *domain.Account
	accessToken string
}

// LinkCurrentAccount links current to the owner of accessToken. It never
// creates accounts and never matches by email. current is not modified; the
// linked copy is returned.
func (s *IdentityService) LinkCurrentAccount(ctx context.Context, current *domain.Account, accessToken string) (*domain.Account, error) {
	return Execute(ctx, s.exec, Operation[linkInput, *domain.RemoteProfile, *domain.Account]{
		Name: "identity.link_current_account",
		Validate: func(ctx context.Context, in linkInput) error {
			if in.current == nil || in.current.ID == "" {
				return errors.New("no current account")
			}

			return s.validateToken(ctx, in.accessToken)
		},
		Perform: func(ctx context.Context, in linkInput) (*domain.RemoteProfile, error) {
			return s.profile(ctx, in.accessToken)
		},
		Verify: func(ctx context.Context, in linkInput, profile *domain.RemoteProfile) error {
			return s.verifyProfile(ctx, in.accessToken, profile)
		},
		Archive: func(ctx context.Context, in linkInput, profile *domain.RemoteProfile) (*domain.Account, error) {
			return s.link(ctx, in.current, profile)
		},
	}, linkInput{current: current, accessToken: accessToken})
}

func (s *IdentityService) validateToken(_ context.Context, accessToken string) error {
	if strings.TrimSpace(accessToken) == "" {
		return s.invalidToken()
	}

	return nil
}

// profile fetches the token owner's profile once per request. The cause of a
// failure is logged and replaced by an invalid token error.
func (s *IdentityService) profile(ctx context.Context, accessToken string) (*domain.RemoteProfile, error) {
	profile, err := appctx.FetchProvider[*domain.RemoteProfile](ctx, profileLookup{
		provider: s.provider,
		token:    accessToken,
	})
	if err != nil {
		logging.FromContext(ctx).InfoContext(ctx, "identity provider rejected token",
			slog.String("provider", s.provider.Name()),
			slog.String("error", err.Error()),
		)

		return nil, s.invalidToken()
	}

	return profile, nil
}

func (s *IdentityService) verifyProfile(_ context.Context, _ string, profile *domain.RemoteProfile) error {
	if profile == nil || profile.ExternalID == "" {
		return s.invalidToken()
	}

	return nil
}

func (s *IdentityService) resolve(ctx context.Context, profile *domain.RemoteProfile) (*domain.Account, error) {
	email := domain.NormalizeEmail(profile.Email)

	var byEmail accountLookup
	if email != "" {
		byEmail = func(ctx context.Context) (*domain.Account, error) {
			return s.accounts.FindByEmail(ctx, email)
		}
	}

	found, err := findConcurrently(ctx,
		func(ctx context.Context) (*domain.Account, error) {
			return s.accounts.FindByExternalID(ctx, profile.ExternalID)
		},
		byEmail,
	)
	if err != nil {
		return nil, err
	}

	if linked := found[0]; linked != nil {
		return linked, nil
	}

	if existing := found[1]; existing != nil {
		if existing.IsLinked() && !existing.LinkedTo(profile.ExternalID) {
			return nil, s.linkedDuplicate()
		}

		account, err := s.accounts.LinkExternalID(ctx, existing.ID, profile.ExternalID, false)
		if err != nil {
			return nil, s.mapWriteError(err)
		}

		emit(ctx, s.events, newAccountEvent(EventAccountLinked, account, s.provider.Name()))

		return account, nil
	}

	return s.provision(ctx, email, profile.ExternalID)
}

// provision creates a verified account for a first-time provider login. The
// password is random; the owner signs in through the provider or resets it.
func (s *IdentityService) provision(ctx context.Context, email, externalID string) (*domain.Account, error) {
	if email == "" {
		return nil, domain.NewValidationError("Email can't be blank")
	}

	hash, err := s.hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, err
	}

	account := &domain.Account{
		Email:        email,
		ExternalID:   externalID,
		PasswordHash: hash,
		Verified:     true,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, s.mapWriteError(err)
	}

	s.logger.InfoContext(ctx, "account provisioned from identity provider",
		slog.String("account_id", account.ID),
		slog.String("provider", s.provider.Name()),
	)

	emit(ctx, s.events, newAccountEvent(EventAccountProvisioned, account, s.provider.Name()))

	return account, nil
}

func (s *IdentityService) link(ctx context.Context, current *domain.Account, profile *domain.RemoteProfile) (*domain.Account, error) {
	owner, err := s.accounts.FindByExternalID(ctx, profile.ExternalID)

	switch {
	case err == nil && owner.ID != current.ID:
		return nil, s.linkedDuplicate()
	case err == nil:
		return owner, nil
	case !domain.IsNotFound(err):
		return nil, err
	}

	// A current account already linked elsewhere is relinked: the caller
	// holds both credentials.
	account, err := s.accounts.LinkExternalID(ctx, current.ID, profile.ExternalID, current.IsLinked())
	if err != nil {
		return nil, s.mapWriteError(err)
	}

	emit(ctx, s.events, newAccountEvent(EventAccountLinked, account, s.provider.Name()))

	return account, nil
}

// mapWriteError names the provider in external identity collisions.
func (s *IdentityService) mapWriteError(err error) error {
	var dup *domain.DuplicateRecordError
	if errors.As(err, &dup) && dup.Linked() {
		return s.linkedDuplicate()
	}

	return err
}

func (s *IdentityService) linkedDuplicate() error {
	return domain.NewLinkedDuplicateError(s.provider.DisplayName())
}

func (s *IdentityService) invalidToken() error {
	return domain.NewInvalidThirdPartyTokenError(s.provider.DisplayName())
}

// profileLookup memoises one provider profile per token.
type profileLookup struct {
	provider ports.IdentityProvider
	token    string
}

func (p profileLookup) Key() string {
	return "profile:" + p.provider.Name() + ":" + p.token
}

func (p profileLookup) Fetch(ctx context.Context) (*domain.RemoteProfile, error) {
	return p.provider.FetchProfile(ctx, p.token)
}
