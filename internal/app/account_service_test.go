package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jsamuelsen/account-gateway/internal/adapters/security"
	"github.com/jsamuelsen/account-gateway/internal/adapters/store"
	"github.com/jsamuelsen/account-gateway/internal/domain"
	"github.com/jsamuelsen/account-gateway/internal/mocks"
)

const testPassword = "correct-horse"

type accountFixture struct {
	svc      *AccountService
	accounts *store.MemoryAccountRepository
	hasher   *security.Hasher
	existing *domain.Account
}

func newAccountFixture(t *testing.T, requireConfirmation bool) *accountFixture {
	t.Helper()

	repo := store.NewMemoryAccountRepository()
	hasher := security.NewHasher(bcrypt.MinCost)

	hash, err := hasher.Hash(testPassword)
	require.NoError(t, err)

	existing := &domain.Account{Email: "taken@example.com", PasswordHash: hash, Verified: true}
	require.NoError(t, repo.Create(context.Background(), existing))

	return &accountFixture{
		svc: NewAccountService(AccountServiceConfig{
			Accounts:            repo,
			Hasher:              hasher,
			RequireConfirmation: requireConfirmation,
			Logger:              discardLogger(),
		}),
		accounts: repo,
		hasher:   hasher,
		existing: existing,
	}
}

func validationMessages(t *testing.T, err error) []string {
	t.Helper()

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)

	return verr.FullMessages()
}

func TestNewAccountService_PanicsWithoutDependencies(t *testing.T) {
	assert.Panics(t, func() {
		NewAccountService(AccountServiceConfig{})
	})
}

func TestAccountService_Register(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		wantMsgs []string
		wantDup  bool
	}{
		{name: "creates account", email: " New@Example.com ", password: testPassword},
		{name: "invalid email", email: "not-an-email", password: testPassword, wantMsgs: []string{"Email is invalid"}},
		{
			name:     "short password",
			email:    "new@example.com",
			password: "short",
			wantMsgs: []string{"Password is too short (minimum is 8 characters)"},
		},
		{
			name:     "every problem reported",
			email:    "",
			password: "",
			wantMsgs: []string{"Email can't be blank", "Password can't be blank"},
		},
		{
			name:     "password longer than bcrypt accepts",
			email:    "new@example.com",
			password: strings.Repeat("p", 100),
			wantMsgs: []string{"Password is too long (maximum is 72 bytes)"},
		},
		{name: "existing email", email: "TAKEN@example.com", password: testPassword, wantDup: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAccountFixture(t, false)

			account, err := f.svc.Register(context.Background(), tt.email, tt.password)

			switch {
			case tt.wantMsgs != nil:
				assert.Equal(t, tt.wantMsgs, validationMessages(t, err))
			case tt.wantDup:
				var dup *domain.DuplicateRecordError
				require.ErrorAs(t, err, &dup)
				assert.False(t, dup.Linked())
			default:
				require.NoError(t, err)
				assert.Equal(t, "new@example.com", account.Email)
				assert.True(t, account.Verified)
				assert.NotEmpty(t, account.ID)
				assert.True(t, f.hasher.Verify(account.PasswordHash, tt.password))
			}
		})
	}
}

func TestAccountService_Register_RequireConfirmation(t *testing.T) {
	f := newAccountFixture(t, true)

	account, err := f.svc.Register(context.Background(), "new@example.com", testPassword)

	require.NoError(t, err)
	assert.False(t, account.Verified)
}

func TestAccountService_Register_PublishesEvent(t *testing.T) {
	events := mocks.NewMockEventPublisher(t)
	events.EXPECT().Publish(mock.Anything, mock.MatchedBy(func(e AccountEvent) bool {
		return e.Type == EventAccountRegistered && e.Email == "new@example.com"
	})).Return(errors.New("broker down"))

	svc := NewAccountService(AccountServiceConfig{
		Accounts: store.NewMemoryAccountRepository(),
		Hasher:   security.NewHasher(bcrypt.MinCost),
		Events:   events,
		Logger:   discardLogger(),
	})

	_, err := svc.Register(context.Background(), "new@example.com", testPassword)

	require.NoError(t, err, "a failed publish never fails the registration")
}

func TestAccountService_ForgetPassword(t *testing.T) {
	f := newAccountFixture(t, false)
	events := mocks.NewMockEventPublisher(t)
	events.EXPECT().Publish(mock.Anything, mock.MatchedBy(func(e AccountEvent) bool {
		return e.Type == EventPasswordResetRequested && e.AccountID == f.existing.ID
	})).Return(nil).Once()

	f.svc.events = events

	require.NoError(t, f.svc.ForgetPassword(context.Background(), "taken@example.com"))

	err := f.svc.ForgetPassword(context.Background(), "nobody@example.com")

	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, domain.LookupByEmail, nf.By)
}

func TestAccountService_PasswordLogin(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		verified bool
		wantErr  error
	}{
		{name: "success", email: "taken@example.com", password: testPassword, verified: true},
		{name: "unknown email", email: "nobody@example.com", password: testPassword, verified: true, wantErr: domain.ErrNotFound},
		{name: "wrong password", email: "taken@example.com", password: "wrong-password", verified: true, wantErr: domain.ErrInvalidPassword},
		{name: "unverified", email: "taken@example.com", password: testPassword, wantErr: domain.ErrUserNotVerified},
		{name: "wrong password on unverified account", email: "taken@example.com", password: "nope", wantErr: domain.ErrInvalidPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAccountFixture(t, false)

			f.existing.Verified = tt.verified
			require.NoError(t, f.accounts.Update(context.Background(), f.existing))

			account, err := f.svc.PasswordLogin(context.Background(), tt.email, tt.password)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, account)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, f.existing.ID, account.ID)
		})
	}
}

func TestAccountService_CurrentAccount(t *testing.T) {
	f := newAccountFixture(t, false)

	account, err := f.svc.CurrentAccount(context.Background(), f.existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "taken@example.com", account.Email)

	_, err = f.svc.CurrentAccount(context.Background(), "missing")

	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, domain.LookupByID, nf.By)
}

func TestAccountService_Update(t *testing.T) {
	tests := []struct {
		name     string
		req      UpdateRequest
		wantMsgs []string
		check    func(t *testing.T, f *accountFixture, updated *domain.Account)
	}{
		{
			name:     "nothing to update",
			req:      UpdateRequest{},
			wantMsgs: []string{"Nothing is updated"},
		},
		{
			name:     "same email",
			req:      UpdateRequest{Email: "Taken@Example.com"},
			wantMsgs: []string{"Trying to update the same email"},
		},
		{
			name:     "email taken by another account",
			req:      UpdateRequest{Email: "other@example.com"},
			wantMsgs: []string{"Email has already been taken"},
		},
		{
			name:     "invalid email",
			req:      UpdateRequest{Email: "nope"},
			wantMsgs: []string{"Email is invalid"},
		},
		{
			name: "email change ignores password fields",
			req:  UpdateRequest{Email: "fresh@example.com", Password: "x", OldPassword: "wrong"},
			check: func(t *testing.T, f *accountFixture, updated *domain.Account) {
				assert.Equal(t, "fresh@example.com", updated.Email)

				stored, err := f.accounts.FindByEmail(context.Background(), "fresh@example.com")
				require.NoError(t, err)
				assert.Equal(t, f.existing.ID, stored.ID)
			},
		},
		{
			name:     "wrong old password",
			req:      UpdateRequest{Password: "new-password", OldPassword: "wrong"},
			wantMsgs: []string{"Invalid old password"},
		},
		{
			name:     "new password too short",
			req:      UpdateRequest{Password: "short", OldPassword: testPassword},
			wantMsgs: []string{"Password is too short (minimum is 8 characters)"},
		},
		{
			name: "password changed",
			req:  UpdateRequest{Password: "new-password", OldPassword: testPassword},
			check: func(t *testing.T, f *accountFixture, updated *domain.Account) {
				assert.True(t, f.hasher.Verify(updated.PasswordHash, "new-password"))
				assert.True(t, f.hasher.Verify(f.existing.PasswordHash, testPassword), "input account is untouched")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAccountFixture(t, false)
			require.NoError(t, f.accounts.Create(context.Background(), &domain.Account{
				Email: "other@example.com", PasswordHash: "x", Verified: true,
			}))

			updated, err := f.svc.Update(context.Background(), f.existing, tt.req)

			if tt.wantMsgs != nil {
				assert.Equal(t, tt.wantMsgs, validationMessages(t, err))
				assert.Nil(t, updated)

				return
			}

			require.NoError(t, err)
			tt.check(t, f, updated)
		})
	}
}

func TestAccountService_Update_LostEmailRace(t *testing.T) {
	accounts := mocks.NewMockAccountRepository(t)
	account := &domain.Account{ID: "acc-1", Email: "a@example.com"}

	accounts.EXPECT().FindByEmail(mock.Anything, "b@example.com").
		Return(nil, domain.NewNotFoundError(domain.AccountEntity, domain.LookupByEmail, "b@example.com"))
	accounts.EXPECT().Update(mock.Anything, mock.Anything).Return(domain.NewDuplicateEmailError())

	svc := NewAccountService(AccountServiceConfig{
		Accounts: accounts,
		Hasher:   mocks.NewMockPasswordHasher(t),
		Logger:   discardLogger(),
	})

	_, err := svc.Update(context.Background(), account, UpdateRequest{Email: "b@example.com"})

	assert.Equal(t, []string{"Email has already been taken"}, validationMessages(t, err))

	step, ok := FailedStep(err)
	require.True(t, ok)
	assert.Equal(t, StepArchive, step)
}
