// Package main is the entry point for the account gateway.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jsamuelsen/account-gateway/internal/adapters/clients"
	"github.com/jsamuelsen/account-gateway/internal/adapters/clients/acl"
	"github.com/jsamuelsen/account-gateway/internal/adapters/events"
	"github.com/jsamuelsen/account-gateway/internal/adapters/http"
	"github.com/jsamuelsen/account-gateway/internal/adapters/http/dto"
	"github.com/jsamuelsen/account-gateway/internal/adapters/http/handlers"
	"github.com/jsamuelsen/account-gateway/internal/adapters/oauth"
	"github.com/jsamuelsen/account-gateway/internal/adapters/security"
	"github.com/jsamuelsen/account-gateway/internal/adapters/store"
	"github.com/jsamuelsen/account-gateway/internal/app"
	"github.com/jsamuelsen/account-gateway/internal/platform/config"
	"github.com/jsamuelsen/account-gateway/internal/platform/logging"
	"github.com/jsamuelsen/account-gateway/internal/platform/telemetry"
	"github.com/jsamuelsen/account-gateway/internal/ports"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	// Version is the semantic version of the service.
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "unknown"

	// BuildTime is the timestamp when the binary was built.
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// 1. Determine profile from environment
	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	// 2. Load and validate configuration (fail fast)
	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	provider := cfg.Services.IdentityProvider
	sensitive := sensitiveParams(provider.Name)

	// 3. Initialize logging
	logger := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
		RedactFields: sensitive,
	})
	slog.SetDefault(logger)

	logger.Info("starting service",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
	)

	// 4. Initialize telemetry (noop if disabled)
	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
		Insecure:     cfg.Telemetry.Insecure,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		if shutdownErr := telProvider.Shutdown(ctx); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	// 5. Create health registry
	healthRegistry := ports.NewHealthRegistry()

	// 6. Open the account store
	accountStore, err := store.Open(ctx, store.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		AutoMigrate:     cfg.Database.AutoMigrate,
	}, logger)
	if err != nil {
		return fmt.Errorf("opening account store: %w", err)
	}

	defer func() {
		if closeErr := accountStore.Close(); closeErr != nil {
			logger.Error("account store close error", slog.Any("error", closeErr))
		}
	}()

	if err := healthRegistry.Register(accountStore); err != nil {
		return fmt.Errorf("registering store health check: %w", err)
	}

	hasher := security.NewHasher(cfg.Auth.Bcrypt.Cost)

	if cfg.Database.Seed {
		if err := store.Seed(ctx, accountStore.Accounts, hasher, logger); err != nil {
			return fmt.Errorf("seeding account store: %w", err)
		}
	}

	// 7. Create HTTP client for the identity provider
	retry := cfg.Client.Retry
	retry.MaxAttempts = provider.MaxAttempts

	httpClient, err := clients.New(&clients.Config{
		BaseURL:     provider.BaseURL,
		ServiceName: provider.Name,
		Timeout:     provider.Timeout,
		Retry:       retry,
		Circuit:     cfg.Client.CircuitBreaker,
		Transport:   cfg.Client.Transport,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("creating HTTP client: %w", err)
	}

	// 8. Create profile client adapter (ACL pattern)
	profileClient := acl.NewProfileClient(acl.ProfileClientConfig{
		Client:      httpClient,
		Name:        provider.Name,
		DisplayName: provider.DisplayName,
		ProfilePath: provider.ProfilePath,
		Fields:      provider.ProfileFields,
		Logger:      logger,
	})

	// Register profile client as a health checker
	if err := healthRegistry.Register(profileClient); err != nil {
		return fmt.Errorf("registering profile client health check: %w", err)
	}

	// 9. Create application services
	publisher := events.NewLogPublisher(events.Config{Registerer: prometheus.DefaultRegisterer})
	executor := app.NewExecutor(app.ExecutorConfig{Logger: logger, Registerer: prometheus.DefaultRegisterer})

	accountService := app.NewAccountService(app.AccountServiceConfig{
		Accounts:            accountStore.Accounts,
		Hasher:              hasher,
		Events:              publisher,
		RequireConfirmation: cfg.Auth.RequireConfirmation,
		Executor:            executor,
		Logger:              logger,
	})

	identityService := app.NewIdentityService(app.IdentityServiceConfig{
		Accounts: accountStore.Accounts,
		Provider: profileClient,
		Hasher:   hasher,
		Events:   publisher,
		Executor: executor,
		Logger:   logger,
	})

	// 10. Create the token layer
	issuer, err := oauth.NewIssuer(oauth.IssuerConfig{
		Secret: cfg.Auth.Token.Secret,
		Issuer: cfg.Auth.Token.Issuer,
		TTL:    cfg.Auth.Token.TTL,
	})
	if err != nil {
		return fmt.Errorf("creating token issuer: %w", err)
	}

	tokenServer := oauth.NewServer(oauth.ServerConfig{
		Passwords:  accountService,
		Assertions: identityService,
		Issuer:     issuer,
		Provider:   provider.Name,
		Logger:     logger,
	})

	// 11. Create handlers
	renderer := dto.NewRenderer(dto.RendererConfig{
		DiagnosticsEnabled: cfg.API.Diagnostics.Enabled,
		DiagnosticsParam:   cfg.API.Diagnostics.Param,
	})

	healthHandler := handlers.NewHealthHandler(handlers.HealthHandlerConfig{
		Registry:  healthRegistry,
		BuildInfo: handlers.NewBuildInfo(Version, Commit, BuildTime),
	})

	usersHandler := handlers.NewUsersHandler(handlers.UsersHandlerConfig{
		Accounts: accountService,
		Linker:   identityService,
		Renderer: renderer,
		Provider: provider.Name,
	})

	tokenHandler := handlers.NewTokenHandler(tokenServer)

	// 12. Create HTTP server
	server := http.New(&cfg.Server, logger)

	// 13. Setup router with all middleware and routes
	serviceName := ""
	if cfg.Telemetry.Enabled {
		serviceName = cfg.Telemetry.ServiceName
	}

	http.SetupRouter(server.Engine(), http.RouterConfig{
		ServiceName:   serviceName,
		Logger:        logger,
		Renderer:      renderer,
		Registerer:    prometheus.DefaultRegisterer,
		Verifier:      issuer,
		HealthHandler: healthHandler,
		UsersHandler:  usersHandler,
		TokenHandler:  tokenHandler,
		RedactParams:  sensitive,
		Timeout:       cfg.API.RequestTimeout,
	})

	// 14. Start server (non-blocking)
	serverErr, err := server.Start()
	if err != nil {
		return err
	}

	// 15. Wait for shutdown signal
	return waitForShutdown(ctx, logger, server, serverErr, cfg.Server.ShutdownTimeout)
}

// sensitiveParams lists request parameters that never reach the logs.
func sensitiveParams(provider string) []string {
	return []string{"password", "old_password", "assertion", "access_token", provider + "_token"}
}

// waitForShutdown blocks until a shutdown signal is received or server error occurs.
// It then performs graceful shutdown of the HTTP server.
func waitForShutdown(
	ctx context.Context,
	logger *slog.Logger,
	server *http.Server,
	serverErr <-chan error,
	shutdownTimeout time.Duration,
) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err, ok := <-serverErr:
		if !ok {
			return nil
		}

		return fmt.Errorf("server error: %w", err)

	case sig := <-quit:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	logger.Info("initiating graceful shutdown",
		slog.Duration("timeout", shutdownTimeout),
	)

	// Stop accepting new requests, drain in-flight
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("shutdown complete")

	return nil
}
