package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/setto/setto-payments/internal/domain"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{
		"SETTO_MERCHANT_ID", "SETTO_ENVIRONMENT", "SETTO_IDP_TOKEN", "SETTO_DEBUG", "SETTO_PLATFORM",
		"SETTO_HTTP_TIMEOUT", "PORT", "GIN_MODE", "BRIDGE_LAUNCH_MODE", "BRIDGE_CALLBACK_SECRET",
		"OTEL_ENABLED", "SERVICE_NAME", "BRIDGE_HOST", "BRIDGE_ALLOWED_ORIGINS",
	} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "development", cfg.Setto.Environment)
	assert.Equal(t, "desktop", cfg.Setto.Platform)
	assert.Equal(t, 10*time.Second, cfg.Setto.HTTPTimeout)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr())
	assert.Empty(t, cfg.Bridge.AllowedOrigins)
	assert.Equal(t, LaunchModeSystem, cfg.Bridge.LaunchMode)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "setto-bridge", cfg.Telemetry.ServiceName)

	assert.EqualError(t, cfg.Validate(), "SETTO_MERCHANT_ID is required")
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SETTO_MERCHANT_ID", "m1")
	t.Setenv("SETTO_ENVIRONMENT", "prod")
	t.Setenv("SETTO_IDP_TOKEN", "idp")
	t.Setenv("SETTO_DEBUG", "true")
	t.Setenv("SETTO_PLATFORM", "Android")
	t.Setenv("SETTO_HTTP_TIMEOUT", "3")
	t.Setenv("BRIDGE_LAUNCH_MODE", "relay")
	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("BRIDGE_ALLOWED_ORIGINS", "http://localhost:3000, https://game.example ,")

	cfg := Load()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 3*time.Second, cfg.Setto.HTTPTimeout)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, []string{"http://localhost:3000", "https://game.example"}, cfg.Bridge.AllowedOrigins)

	dc, err := cfg.Setto.Domain()
	require.NoError(t, err)
	assert.Equal(t, domain.Config{
		MerchantID:  "m1",
		Environment: domain.EnvironmentProduction,
		IdpToken:    "idp",
		Debug:       true,
	}, dc)
}

func TestValidate_Rejects(t *testing.T) {
	base := func() *Config {
		return &Config{
			Setto:  SettoConfig{MerchantID: "m1", Environment: "development", Platform: "desktop"},
			Bridge: BridgeConfig{LaunchMode: LaunchModeSystem},
		}
	}
	require.NoError(t, base().Validate())

	cfg := base()
	cfg.Setto.Environment = "staging"
	assert.ErrorContains(t, cfg.Validate(), "SETTO_ENVIRONMENT")

	cfg = base()
	cfg.Setto.Platform = "playstation"
	assert.ErrorContains(t, cfg.Validate(), "SETTO_PLATFORM")

	cfg = base()
	cfg.Bridge.LaunchMode = "webview"
	assert.ErrorContains(t, cfg.Validate(), "BRIDGE_LAUNCH_MODE")
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("X_TIMEOUT", "1500ms")
	assert.Equal(t, 1500*time.Millisecond, getEnvDuration("X_TIMEOUT", time.Second))

	t.Setenv("X_TIMEOUT", "soon")
	assert.Equal(t, time.Second, getEnvDuration("X_TIMEOUT", time.Second))
}
