package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad_DefaultValues tests that hardcoded defaults are applied correctly.
// This test doesn't depend on YAML files - it only tests the defaults() function.
func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	// Check defaults are applied (from defaults() function)
	assert.Equal(t, "account-gateway", cfg.App.Name)
	assert.Equal(t, "dev", cfg.App.Version)
	assert.Equal(t, "local", cfg.App.Environment)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, DefaultClientRetryMaxAttempts, cfg.Client.Retry.MaxAttempts)
	assert.Equal(t, DefaultClientRetryMultiplier, cfg.Client.Retry.Multiplier)
	assert.Equal(t, DefaultClientCircuitMaxFailures, cfg.Client.CircuitBreaker.MaxFailures)
}

// TestLoad_EnvVarOverrides tests that environment variables override defaults.
func TestLoad_EnvVarOverrides(t *testing.T) {
	// Set environment variables
	t.Setenv("APP_SERVER_PORT", "9090")
	t.Setenv("APP_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
}

// TestLoad_EnvVarOverrides_UnderscoreKeys tests env names for keys whose
// segments contain underscores.
func TestLoad_EnvVarOverrides_UnderscoreKeys(t *testing.T) {
	t.Setenv("APP_DATABASE_MAX_OPEN_CONNS", "7")
	t.Setenv("APP_SERVICES_IDENTITY_PROVIDER_BASE_URL", "http://graph.internal")
	t.Setenv("APP_API_REQUEST_TIMEOUT", "5s")
	t.Setenv("APP_AUTH_REQUIRE_CONFIRMATION", "true")
	t.Setenv("APP_NOT_A_KEY", "ignored")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Database.MaxOpenConns)
	assert.Equal(t, "http://graph.internal", cfg.Services.IdentityProvider.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.RequestTimeout)
	assert.True(t, cfg.Auth.RequireConfirmation)
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "APP_AUTH_TOKEN_SECRET", EnvName("auth.token.secret"))
	assert.Equal(t, "APP_CLIENT_CIRCUIT_BREAKER_HALF_OPEN_LIMIT", EnvName("client.circuit_breaker.half_open_limit"))
}

// TestLoad_DurationParsing tests that duration strings are parsed correctly.
func TestLoad_DurationParsing(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	// Verify durations are parsed correctly from defaults
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 120*time.Second, cfg.Server.IdleTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.Client.Retry.InitialInterval)
	assert.Equal(t, 5*time.Second, cfg.Client.Retry.MaxInterval)
	assert.Equal(t, 30*time.Second, cfg.Client.Timeout)
}

// TestLoad_NonExistentProfile tests that a missing profile file doesn't cause errors.
func TestLoad_NonExistentProfile(t *testing.T) {
	// Should not error - missing profile file is silently ignored
	cfg, err := Load("nonexistent")
	require.NoError(t, err)

	// Should fall back to defaults
	assert.Equal(t, "account-gateway", cfg.App.Name)
}

// TestLoad_BoolEnvVar tests that boolean environment variables are parsed correctly.
func TestLoad_BoolEnvVar(t *testing.T) {
	t.Setenv("APP_TELEMETRY_ENABLED", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.Telemetry.Enabled)
}

// TestLoad_AuthDefaults tests that token and hashing defaults are set correctly.
func TestLoad_AuthDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultTokenSecret, cfg.Auth.Token.Secret)
	assert.Equal(t, "account-gateway", cfg.Auth.Token.Issuer)
	assert.Equal(t, 2*time.Hour, cfg.Auth.Token.TTL)
	assert.Equal(t, DefaultBcryptCost, cfg.Auth.Bcrypt.Cost)
	assert.False(t, cfg.Auth.RequireConfirmation)
	require.NoError(t, cfg.Validate())
}

// TestLoad_IdentityProviderDefaults tests the provider endpoint defaults.
func TestLoad_IdentityProviderDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	idp := cfg.Services.IdentityProvider
	assert.Equal(t, "https://graph.facebook.com", idp.BaseURL)
	assert.Equal(t, "facebook", idp.Name)
	assert.Equal(t, "Facebook", idp.DisplayName)
	assert.Equal(t, "/me", idp.ProfilePath)
	assert.Equal(t, "id,email", idp.ProfileFields)
	assert.Equal(t, 1, idp.MaxAttempts)
}

// TestLoad_DatabaseEnvOverride tests that the store can be switched by env var.
func TestLoad_DatabaseEnvOverride(t *testing.T) {
	t.Setenv("APP_DATABASE_DRIVER", "memory")
	t.Setenv("APP_AUTH_TOKEN_SECRET", "a-much-longer-secret-from-the-environment")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "a-much-longer-secret-from-the-environment", cfg.Auth.Token.Secret)
	assert.True(t, cfg.Database.AutoMigrate)
}

// TestLoad_APIDefaults tests diagnostics and timeout defaults.
func TestLoad_APIDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.API.Diagnostics.Enabled)
	assert.Equal(t, "dev", cfg.API.Diagnostics.Param)
	assert.Equal(t, 30*time.Second, cfg.API.RequestTimeout)
}

// TestLoad_LogFileDefaults tests that log file defaults are set correctly.
func TestLoad_LogFileDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	// Check log file defaults
	assert.False(t, cfg.Log.File.Enabled)
	assert.Equal(t, "./logs/app.log", cfg.Log.File.Path)
	assert.Equal(t, DefaultLogFileMaxSizeMB, cfg.Log.File.MaxSizeMB)
	assert.Equal(t, DefaultLogFileMaxBackups, cfg.Log.File.MaxBackups)
	assert.Equal(t, DefaultLogFileMaxAgeDays, cfg.Log.File.MaxAgeDays)
	assert.True(t, cfg.Log.File.Compress)
}

// TestLoad_TelemetryDefaults tests that telemetry defaults are set correctly.
func TestLoad_TelemetryDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "account-gateway", cfg.Telemetry.ServiceName)
	assert.Equal(t, 1.0, cfg.Telemetry.SamplingRate)
}

// TestLoad_ClientDefaults tests that HTTP client defaults are set correctly.
func TestLoad_ClientDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Client.Timeout)
	assert.Equal(t, DefaultClientRetryMaxAttempts, cfg.Client.Retry.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Client.Retry.InitialInterval)
	assert.Equal(t, 5*time.Second, cfg.Client.Retry.MaxInterval)
	assert.Equal(t, DefaultClientRetryMultiplier, cfg.Client.Retry.Multiplier)
	assert.Equal(t, DefaultClientCircuitMaxFailures, cfg.Client.CircuitBreaker.MaxFailures)
	assert.Equal(t, 30*time.Second, cfg.Client.CircuitBreaker.Timeout)
	assert.Equal(t, DefaultClientCircuitHalfOpenLimit, cfg.Client.CircuitBreaker.HalfOpenLimit)
}

// TestDefaults tests that the defaults map contains expected values.
func TestDefaults(t *testing.T) {
	d := defaults()

	assert.Equal(t, "account-gateway", d["app.name"])
	assert.Equal(t, "dev", d["app.version"])
	assert.Equal(t, "local", d["app.environment"])
	assert.Equal(t, DefaultServerPort, d["server.port"])
	assert.Equal(t, "0.0.0.0", d["server.host"])
	assert.Equal(t, "info", d["log.level"])
	assert.Equal(t, "json", d["log.format"])
	assert.Equal(t, DefaultClientRetryMaxAttempts, d["client.retry.max_attempts"])
	assert.Equal(t, DefaultClientRetryMultiplier, d["client.retry.multiplier"])
}
