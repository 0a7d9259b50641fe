package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/account-gateway/internal/domain"
)

const testSecret = "test-signing-secret-with-enough-bytes"

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestIssuer(t *testing.T) *Issuer {
	t.Helper()

	issuer, err := NewIssuer(IssuerConfig{Secret: testSecret, Issuer: "account-gateway", TTL: time.Hour})
	require.NoError(t, err)

	return issuer
}

func TestNewIssuer_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  IssuerConfig
	}{
		{name: "missing secret", cfg: IssuerConfig{TTL: time.Hour}},
		{name: "zero ttl", cfg: IssuerConfig{Secret: testSecret}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewIssuer(tt.cfg)
			require.Error(t, err)
		})
	}
}

func TestIssuer_IssueAndVerify(t *testing.T) {
	issuer := newTestIssuer(t)

	token, err := issuer.Issue(&domain.Account{ID: "acc-1"})
	require.NoError(t, err)

	assert.Equal(t, TokenTypeBearer, token.TokenType)
	assert.Equal(t, int64(3600), token.ExpiresIn)
	assert.NotEmpty(t, token.AccessToken)

	subject, err := issuer.Verify(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", subject)
}

func TestIssuer_VerifyRejects(t *testing.T) {
	issuer := newTestIssuer(t)

	other, err := NewIssuer(IssuerConfig{Secret: "another-secret-entirely-different!", Issuer: "account-gateway", TTL: time.Hour})
	require.NoError(t, err)

	foreign, err := other.Issue(&domain.Account{ID: "acc-1"})
	require.NoError(t, err)

	wrongIssuer, err := NewIssuer(IssuerConfig{Secret: testSecret, Issuer: "someone-else", TTL: time.Hour})
	require.NoError(t, err)

	misissued, err := wrongIssuer.Issue(&domain.Account{ID: "acc-1"})
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "account-gateway",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "acc-1",
		Issuer:    "account-gateway",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "garbage", raw: "not-a-jwt"},
		{name: "wrong secret", raw: foreign.AccessToken},
		{name: "wrong issuer", raw: misissued.AccessToken},
		{name: "no subject", raw: noSubject},
		{name: "none algorithm", raw: noneAlg},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.Verify(tt.raw)
			require.ErrorIs(t, err, ErrInvalidToken)
			assert.NotErrorIs(t, err, ErrTokenExpired)
		})
	}
}

func TestIssuer_VerifyExpired(t *testing.T) {
	issuer := newTestIssuer(t)

	issued := time.Now().Add(-2 * time.Hour)
	issuer.now = func() time.Time { return issued }

	token, err := issuer.Issue(&domain.Account{ID: "acc-1"})
	require.NoError(t, err)

	issuer.now = time.Now

	_, err = issuer.Verify(token.AccessToken)
	require.ErrorIs(t, err, ErrTokenExpired)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestError_IsMatchesByName(t *testing.T) {
	described := ErrInvalidGrant.WithDescription("custom")

	assert.ErrorIs(t, described, ErrInvalidGrant)
	assert.NotErrorIs(t, described, ErrInvalidRequest)
	assert.Equal(t, "invalid_grant: custom", described.Error())
	assert.Equal(t, "The provided authorization grant is invalid, expired or revoked.", ErrInvalidGrant.Description)
}

func TestRenderError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantStatus    int
		wantName      string
		wantChallenge bool
	}{
		{name: "invalid request", err: ErrInvalidRequest.WithDescription("Missing grant_type."), wantStatus: http.StatusBadRequest, wantName: "invalid_request"},
		{name: "unsupported grant", err: ErrUnsupportedGrantType, wantStatus: http.StatusBadRequest, wantName: "unsupported_grant_type"},
		{name: "invalid token", err: ErrInvalidToken, wantStatus: http.StatusUnauthorized, wantName: "invalid_token", wantChallenge: true},
		{name: "wrapped", err: errors.Join(errors.New("context"), ErrInvalidGrant), wantStatus: http.StatusBadRequest, wantName: "invalid_grant"},
		{name: "unknown error", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantName: "server_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/oauth/token", nil)

			RenderError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantName, body["error"])
			assert.NotEmpty(t, body["error_description"])
			assert.Equal(t, tt.wantChallenge, w.Header().Get("WWW-Authenticate") != "")
		})
	}
}

type fakePasswords struct {
	account *domain.Account
	err     error
	calls   int
}

func (f *fakePasswords) PasswordLogin(context.Context, string, string) (*domain.Account, error) {
	f.calls++
	return f.account, f.err
}

type fakeAssertions struct {
	account *domain.Account
	err     error
	token   string
}

func (f *fakeAssertions) Authenticate(_ context.Context, accessToken string) (*domain.Account, error) {
	f.token = accessToken
	return f.account, f.err
}

func TestNewServer_Panics(t *testing.T) {
	assert.Panics(t, func() { NewServer(ServerConfig{}) })
	assert.Panics(t, func() {
		NewServer(ServerConfig{Passwords: &fakePasswords{}, Assertions: &fakeAssertions{}})
	})
}

func TestServer_Grant(t *testing.T) {
	account := &domain.Account{ID: "acc-1", Verified: true}

	tests := []struct {
		name       string
		req        GrantRequest
		passwords  *fakePasswords
		assertions *fakeAssertions
		wantErr    error
	}{
		{
			name:       "password grant",
			req:        GrantRequest{GrantType: GrantTypePassword, Username: "jane@example.com", Password: "secret123"},
			passwords:  &fakePasswords{account: account},
			assertions: &fakeAssertions{},
		},
		{
			name:       "assertion grant",
			req:        GrantRequest{GrantType: GrantTypeAssertion, Provider: "Facebook", Assertion: "fb-token"},
			passwords:  &fakePasswords{},
			assertions: &fakeAssertions{account: account},
		},
		{
			name:       "password grant missing password",
			req:        GrantRequest{GrantType: GrantTypePassword, Username: "jane@example.com"},
			passwords:  &fakePasswords{},
			assertions: &fakeAssertions{},
			wantErr:    ErrInvalidRequest,
		},
		{
			name:       "assertion grant missing assertion",
			req:        GrantRequest{GrantType: GrantTypeAssertion, Provider: "facebook"},
			passwords:  &fakePasswords{},
			assertions: &fakeAssertions{},
			wantErr:    ErrInvalidRequest,
		},
		{
			name:       "assertion grant other provider",
			req:        GrantRequest{GrantType: GrantTypeAssertion, Provider: "google", Assertion: "t"},
			passwords:  &fakePasswords{},
			assertions: &fakeAssertions{},
			wantErr:    ErrInvalidRequest,
		},
		{
			name:       "missing grant type",
			req:        GrantRequest{},
			passwords:  &fakePasswords{},
			assertions: &fakeAssertions{},
			wantErr:    ErrInvalidRequest,
		},
		{
			name:       "unsupported grant type",
			req:        GrantRequest{GrantType: "client_credentials"},
			passwords:  &fakePasswords{},
			assertions: &fakeAssertions{},
			wantErr:    ErrUnsupportedGrantType,
		},
		{
			name:       "authentication failure passes through",
			req:        GrantRequest{GrantType: GrantTypePassword, Username: "jane@example.com", Password: "wrong"},
			passwords:  &fakePasswords{err: domain.ErrInvalidPassword},
			assertions: &fakeAssertions{},
			wantErr:    domain.ErrInvalidPassword,
		},
		{
			name:       "third party failure passes through",
			req:        GrantRequest{GrantType: GrantTypeAssertion, Provider: "facebook", Assertion: "bad"},
			passwords:  &fakePasswords{},
			assertions: &fakeAssertions{err: domain.NewInvalidThirdPartyTokenError("Facebook")},
			wantErr:    domain.ErrInvalidThirdPartyToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewServer(ServerConfig{
				Passwords:  tt.passwords,
				Assertions: tt.assertions,
				Issuer:     newTestIssuer(t),
				Provider:   "facebook",
			})

			token, err := srv.Grant(context.Background(), tt.req)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, token)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, 2, strings.Count(token.AccessToken, "."))
		})
	}
}
