package oauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jsamuelsen/account-gateway/internal/domain"
)

// TokenTypeBearer is the only token type issued.
const TokenTypeBearer = "Bearer"

// Token is the successful token endpoint response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	CreatedAt   int64  `json:"created_at"`
}

// IssuerConfig configures an Issuer.
type IssuerConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// Issuer signs and verifies HS256 bearer tokens whose subject is an account ID.
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an Issuer.
func NewIssuer(cfg IssuerConfig) (*Issuer, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token secret is required")
	}

	if cfg.TTL <= 0 {
		return nil, errors.New("token ttl must be positive")
	}

	return &Issuer{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
		now:    time.Now,
	}, nil
}

// Issue creates an access token for account.
func (i *Issuer) Issue(account *domain.Account) (*Token, error) {
	now := i.now()

	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   account.ID,
		Issuer:    i.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	return &Token{
		AccessToken: signed,
		TokenType:   TokenTypeBearer,
		ExpiresIn:   int64(i.ttl / time.Second),
		CreatedAt:   now.Unix(),
	}, nil
}

// Verify checks raw and returns its subject. Every failure matches
// ErrInvalidToken; an expired token additionally matches ErrTokenExpired.
func (i *Issuer) Verify(raw string) (string, error) {
	if raw == "" {
		return "", ErrInvalidToken.WithDescription("The access token is missing.")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}

	var claims jwt.RegisteredClaims

	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	}, opts...)

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", tokenExpired()
	case err != nil:
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	case claims.Subject == "":
		return "", ErrInvalidToken.WithDescription("The access token has no subject.")
	}

	return claims.Subject, nil
}
