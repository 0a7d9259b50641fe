package app

import (
	"context"
	"log/slog"

	"github.com/jsamuelsen/account-gateway/internal/domain"
	"github.com/jsamuelsen/account-gateway/internal/ports"
)

// AccountService handles first-party accounts: registration, password login,
// profile updates and reset requests.
type AccountService struct {
	accounts            ports.AccountRepository
	hasher              ports.PasswordHasher
	events              ports.EventPublisher
	requireConfirmation bool
	exec                *Executor
	logger              *slog.Logger
}

// AccountServiceConfig contains the dependencies of AccountService.
type AccountServiceConfig struct {
	Accounts ports.AccountRepository
	Hasher   ports.PasswordHasher
	Events   ports.EventPublisher

	// RequireConfirmation registers accounts unverified.
	RequireConfirmation bool

	Executor *Executor
	Logger   *slog.Logger
}

// NewAccountService creates an AccountService. It panics when a required
// dependency is missing.
func NewAccountService(cfg AccountServiceConfig) *AccountService {
	if cfg.Accounts == nil || cfg.Hasher == nil {
		panic("app: account service requires accounts and hasher")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	exec := cfg.Executor
	if exec == nil {
		exec = NewExecutor(ExecutorConfig{Logger: logger})
	}

	return &AccountService{
		accounts:            cfg.Accounts,
		hasher:              cfg.Hasher,
		events:              cfg.Events,
		requireConfirmation: cfg.RequireConfirmation,
		exec:                exec,
		logger:              logger.With(slog.String("component", "account_service")),
	}
}

type credentials struct {
	email    string
	password string
}

// Register creates a password account.
func (s *AccountService) Register(ctx context.Context, email, password string) (*domain.Account, error) {
	return Execute(ctx, s.exec, Operation[credentials, string, *domain.Account]{
		Name: "account.register",
		Validate: func(ctx context.Context, in credentials) error {
			if err := invalidWhen(emailProblems(in.email), passwordProblems("Password", in.password)); err != nil {
				return err
			}

			_, err := s.accounts.FindByEmail(ctx, in.email)
			switch {
			case err == nil:
				return domain.NewDuplicateEmailError()
			case !domain.IsNotFound(err):
				return err
			}

			return nil
		},
		Perform: func(_ context.Context, in credentials) (string, error) {
			return s.hasher.Hash(in.password)
		},
		Archive: func(ctx context.Context, in credentials, hash string) (*domain.Account, error) {
			account := &domain.Account{
				Email:        in.email,
				PasswordHash: hash,
				Verified:     !s.requireConfirmation,
			}

			if err := s.accounts.Create(ctx, account); err != nil {
				return nil, err
			}

			s.logger.InfoContext(ctx, "account registered", slog.String("account_id", account.ID))
			emit(ctx, s.events, newAccountEvent(EventAccountRegistered, account, ""))

			return account, nil
		},
	}, credentials{email: domain.NormalizeEmail(email), password: password})
}

// ForgetPassword requests reset instructions for the account holding email.
func (s *AccountService) ForgetPassword(ctx context.Context, email string) error {
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	emit(ctx, s.events, newAccountEvent(EventPasswordResetRequested, account, ""))

	return nil
}

// PasswordLogin checks a password credential. The lookup error comes first,
// then the password, then the verification state.
func (s *AccountService) PasswordLogin(ctx context.Context, email, password string) (*domain.Account, error) {
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if !s.hasher.Verify(account.PasswordHash, password) {
		return nil, domain.ErrInvalidPassword
	}

	if !account.Verified {
		return nil, domain.ErrUserNotVerified
	}

	return account, nil
}

// CurrentAccount loads the account a bearer token was issued for.
func (s *AccountService) CurrentAccount(ctx context.Context, id string) (*domain.Account, error) {
	return s.accounts.FindByID(ctx, id)
}

// UpdateRequest changes either the email or the password of an account. When
// Email is set the password fields are ignored.
type UpdateRequest struct {
	Email       string
	Password    string
	OldPassword string
}

type updateInput struct {
	account *domain.Account
	req     UpdateRequest
}

// Update applies req to account and returns the updated copy.
func (s *AccountService) Update(ctx context.Context, account *domain.Account, req UpdateRequest) (*domain.Account, error) {
	return Execute(ctx, s.exec, Operation[updateInput, *domain.Account, *domain.Account]{
		Name: "account.update",
		Validate: func(_ context.Context, in updateInput) error {
			if in.req.Email == "" && in.req.Password == "" {
				return domain.NewValidationError("Nothing is updated")
			}

			return nil
		},
		Perform: func(ctx context.Context, in updateInput) (*domain.Account, error) {
			if in.req.Email != "" {
				return s.changeEmail(ctx, in.account, in.req.Email)
			}

			return s.changePassword(in.account, in.req)
		},
		Archive: func(ctx context.Context, _ updateInput, changed *domain.Account) (*domain.Account, error) {
			if err := s.accounts.Update(ctx, changed); err != nil {
				if domain.IsConflict(err) {
					return nil, domain.NewValidationError("Email has already been taken")
				}

				return nil, err
			}

			emit(ctx, s.events, newAccountEvent(EventAccountUpdated, changed, ""))

			return changed, nil
		},
	}, updateInput{account: account, req: req})
}

func (s *AccountService) changeEmail(ctx context.Context, account *domain.Account, email string) (*domain.Account, error) {
	email = domain.NormalizeEmail(email)

	if email == account.Email {
		return nil, domain.NewValidationError("Trying to update the same email")
	}

	if err := invalidWhen(emailProblems(email)); err != nil {
		return nil, err
	}

	_, err := s.accounts.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, domain.NewValidationError("Email has already been taken")
	case !domain.IsNotFound(err):
		return nil, err
	}

	changed := account.Clone()
	changed.Email = email

	return changed, nil
}

func (s *AccountService) changePassword(account *domain.Account, req UpdateRequest) (*domain.Account, error) {
	if !s.hasher.Verify(account.PasswordHash, req.OldPassword) {
		return nil, domain.NewValidationError("Invalid old password")
	}

	if err := invalidWhen(passwordProblems("Password", req.Password)); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	changed := account.Clone()
	changed.PasswordHash = hash

	return changed, nil
}
