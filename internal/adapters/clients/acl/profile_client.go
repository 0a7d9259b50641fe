package acl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/jsamuelsen/account-gateway/internal/adapters/clients"
	"github.com/jsamuelsen/account-gateway/internal/domain"
	"github.com/jsamuelsen/account-gateway/internal/platform/logging"
)

// ProfileClientConfig configures a ProfileClient.
type ProfileClientConfig struct {
	// Client is the instrumented client pointed at the provider's API.
	Client *clients.Client

	// Name is the machine name, e.g. "facebook".
	Name string

	// DisplayName appears in client-facing messages, e.g. "Facebook".
	DisplayName string

	// ProfilePath is the "me" endpoint, e.g. "/v19.0/me".
	ProfilePath string

	// Fields is the comma-separated fields query, e.g. "id,email".
	Fields string

	Logger *slog.Logger
}

// ProfileClient implements ports.IdentityProvider against a Graph-style
// profile endpoint, and ports.HealthChecker for readiness.
type ProfileClient struct {
	BaseAdapter

	name        string
	profilePath string
	fields      string
	logger      *slog.Logger
}

// NewProfileClient creates a ProfileClient.
// Panics if Client is nil.
func NewProfileClient(cfg ProfileClientConfig) *ProfileClient {
	if cfg.Client == nil {
		panic("ProfileClient: Client is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	display := cfg.DisplayName
	if display == "" {
		display = cfg.Name
	}

	fields := cfg.Fields
	if fields == "" {
		fields = "id,email"
	}

	return &ProfileClient{
		BaseAdapter: NewBaseAdapter(cfg.Client, cfg.Client.ServiceName(), display),
		name:        cfg.Name,
		profilePath: cfg.ProfilePath,
		fields:      fields,
		logger:      logger.With(slog.String("component", "acl.ProfileClient")),
	}
}

// graphProfile is the provider's profile DTO. Never exposed outside the ACL.
type graphProfile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Name implements ports.IdentityProvider.
func (c *ProfileClient) Name() string {
	return c.name
}

// DisplayName implements ports.IdentityProvider.
func (c *ProfileClient) DisplayName() string {
	return c.displayName
}

// FetchProfile implements ports.IdentityProvider.
func (c *ProfileClient) FetchProfile(ctx context.Context, accessToken string) (*domain.RemoteProfile, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, fmt.Errorf("%w: blank access token", domain.NewInvalidThirdPartyTokenError(c.displayName))
	}

	c.logger.Log(ctx, logging.LevelTrace, "fetching profile", slog.String("path", c.profilePath))

	body, err := c.Get(ctx, c.profilePath, url.Values{"fields": {c.fields}},
		clients.WithBearerToken(accessToken),
		clients.WithHeader("Accept", "application/json"),
	)
	if err != nil {
		return nil, err
	}

	ext, err := DecodeResponse[graphProfile](body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.NewInvalidThirdPartyTokenError(c.displayName), err)
	}

	profile, err := c.translateProfile(ext)
	if err != nil {
		return nil, err
	}

	c.logger.DebugContext(ctx, "profile fetched", slog.String("external_id", profile.ExternalID))

	return profile, nil
}

// translateProfile validates the DTO. An id is mandatory; the email is
// optional and normalised.
func (c *ProfileClient) translateProfile(ext *graphProfile) (*domain.RemoteProfile, error) {
	id := strings.TrimSpace(ext.ID)
	if id == "" {
		return nil, fmt.Errorf("%w: profile has no id", domain.NewInvalidThirdPartyTokenError(c.displayName))
	}

	return &domain.RemoteProfile{
		ExternalID: id,
		Email:      domain.NormalizeEmail(ext.Email),
	}, nil
}

// ErrProviderCircuitOpen is reported by Check while the breaker is open.
var ErrProviderCircuitOpen = errors.New("identity provider circuit open")

// Check implements ports.HealthChecker. Profile calls need a user token, so
// readiness reflects the circuit breaker instead of probing the provider.
func (c *ProfileClient) Check(context.Context) error {
	if c.Client().CircuitState() == clients.StateOpen {
		counts := c.Client().CircuitCounts()
		return fmt.Errorf("%w since %s", ErrProviderCircuitOpen, counts.OpenedAt.Format("15:04:05"))
	}

	return nil
}

// Optional implements ports.OptionalChecker: an open breaker degrades
// readiness without failing it.
func (c *ProfileClient) Optional() bool { return true }
