package oauth

import (
	"context"
	"log/slog"
	"strings"

	"github.com/jsamuelsen/account-gateway/internal/domain"
)

// Grant types accepted at the token endpoint.
const (
	GrantTypePassword  = "password"
	GrantTypeAssertion = "assertion"
)

// PasswordAuthenticator resolves email and password credentials.
type PasswordAuthenticator interface {
	PasswordLogin(ctx context.Context, email, password string) (*domain.Account, error)
}

// AssertionAuthenticator resolves an identity provider access token.
type AssertionAuthenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*domain.Account, error)
}

// GrantRequest is the token endpoint input.
type GrantRequest struct {
	GrantType string
	Username  string
	Password  string
	Provider  string
	Assertion string
}

// ServerConfig configures a Server.
type ServerConfig struct {
	Passwords  PasswordAuthenticator
	Assertions AssertionAuthenticator
	Issuer     *Issuer

	// Provider is the only accepted value of the assertion grant's provider.
	Provider string

	Logger *slog.Logger
}

// Server processes token grants.
type Server struct {
	passwords  PasswordAuthenticator
	assertions AssertionAuthenticator
	issuer     *Issuer
	provider   string
	logger     *slog.Logger
}

// NewServer creates a Server.
// Panics if an authenticator or the issuer is nil.
func NewServer(cfg ServerConfig) *Server {
	if cfg.Passwords == nil || cfg.Assertions == nil {
		panic("oauth.Server: authenticators are required")
	}

	if cfg.Issuer == nil {
		panic("oauth.Server: Issuer is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		passwords:  cfg.Passwords,
		assertions: cfg.Assertions,
		issuer:     cfg.Issuer,
		provider:   cfg.Provider,
		logger:     logger.With(slog.String("component", "oauth.Server")),
	}
}

// Grant authenticates req and issues an access token. Malformed requests
// fail with *Error; authentication failures are returned unchanged for the
// caller to classify.
func (s *Server) Grant(ctx context.Context, req GrantRequest) (*Token, error) {
	account, err := s.resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	token, err := s.issuer.Issue(account)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "access token issued",
		slog.String("grant_type", req.GrantType),
		slog.String("account_id", account.ID),
	)

	return token, nil
}

func (s *Server) resolve(ctx context.Context, req GrantRequest) (*domain.Account, error) {
	switch req.GrantType {
	case GrantTypePassword:
		if blank(req.Username) || req.Password == "" {
			return nil, ErrInvalidRequest.WithDescription("Missing username or password.")
		}

		return s.passwords.PasswordLogin(ctx, req.Username, req.Password)

	case GrantTypeAssertion:
		if blank(req.Provider) || blank(req.Assertion) {
			return nil, ErrInvalidRequest.WithDescription("Missing provider or assertion.")
		}

		if !strings.EqualFold(strings.TrimSpace(req.Provider), s.provider) {
			return nil, ErrInvalidRequest.WithDescription("Unsupported provider " + req.Provider + ".")
		}

		return s.assertions.Authenticate(ctx, req.Assertion)

	case "":
		return nil, ErrInvalidRequest.WithDescription("Missing grant_type.")

	default:
		return nil, ErrUnsupportedGrantType
	}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
