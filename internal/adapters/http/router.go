package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jsamuelsen/account-gateway/internal/adapters/http/dto"
	"github.com/jsamuelsen/account-gateway/internal/adapters/http/handlers"
	"github.com/jsamuelsen/account-gateway/internal/adapters/http/middleware"
	"github.com/jsamuelsen/account-gateway/internal/adapters/oauth"
	"github.com/jsamuelsen/account-gateway/internal/platform/telemetry"
)

// DefaultRequestTimeout is the default timeout for API requests.
const DefaultRequestTimeout = 30 * time.Second

// RouterConfig contains configuration for setting up the router.
type RouterConfig struct {
	// ServiceName labels spans and HTTP metrics. Empty skips telemetry.
	ServiceName string

	Logger *slog.Logger

	// Renderer writes every envelope; it decides whether diagnostics are on.
	Renderer *dto.Renderer

	// Registerer receives the classifier counters. Nil disables them.
	Registerer prometheus.Registerer

	// Verifier checks bearer tokens on the signed-in routes.
	Verifier middleware.TokenVerifier

	HealthHandler *handlers.HealthHandler
	UsersHandler  *handlers.UsersHandler
	TokenHandler  *handlers.TokenHandler

	// RedactParams are query parameters masked in request logs.
	RedactParams []string

	// Timeout is the deadline for /api/v1 and /oauth requests.
	Timeout time.Duration
}

// SetupRouter configures all routes and middleware on the Gin engine.
// Middleware is applied in the following order (first to last):
//  1. Recovery - catch panics first
//  2. Request ID - generate/extract request ID
//  3. Correlation ID - handle distributed tracing correlation
//  4. OpenTelemetry - tracing and metrics
//  5. Logging - request logging (skips health endpoints)
//  6. Request scope - per-request memo and staged events
//
// Route groups:
//   - /-/ (internal): Health endpoints, no auth required
//   - /api/v1/ (public API): users endpoints, classifier answers errors
//   - /oauth/ (token layer): token endpoint, unmatched errors in RFC 6749 form
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	global := []gin.HandlerFunc{
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.CorrelationID(),
	}

	if cfg.ServiceName != "" {
		global = append(global, telemetry.Middleware(cfg.ServiceName)...)
	}

	global = append(global,
		middleware.Logging(cfg.RedactParams...),
		middleware.RequestScope(),
	)

	engine.Use(global...)

	// Health endpoints: no auth, no timeout for probes
	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterHealthRoutesOnEngine(engine)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultRequestTimeout
	}

	if cfg.UsersHandler != nil {
		apiV1 := engine.Group("/api/v1")
		apiV1.Use(
			NewClassifier(ClassifierConfig{
				Renderer: cfg.Renderer,
				Logger:   cfg.Logger,
				// A bearer-authenticated caller whose account is gone is
				// answered as unauthorised.
				StatusOverrides: map[dto.StatusCode]int{dto.CodeRecordNotFoundByID: http.StatusUnauthorized},
				Registerer:      cfg.Registerer,
			}).Middleware(),
			middleware.SimpleTimeout(timeout),
		)

		cfg.UsersHandler.RegisterUserRoutes(apiV1, middleware.RequireAccessToken(cfg.Verifier))
	}

	if cfg.TokenHandler != nil {
		token := engine.Group("/oauth")
		token.Use(
			NewClassifier(ClassifierConfig{
				Renderer:        cfg.Renderer,
				Fallback:        oauth.RenderError,
				StatusOverrides: map[dto.StatusCode]int{dto.CodeInvalidThirdPartyToken: http.StatusUnauthorized},
				Logger:          cfg.Logger,
				Registerer:      cfg.Registerer,
			}).Middleware(),
			middleware.SimpleTimeout(timeout),
		)

		cfg.TokenHandler.RegisterTokenRoutes(token)
	}

	engine.NoRoute(func(c *gin.Context) {
		resp := dto.BuildError(dto.CodeRecordNotFound, "Route is not found",
			dto.WithHTTPStatus(http.StatusNotFound),
		)
		c.AbortWithStatusJSON(resp.HTTPStatus, resp)
	})
}
