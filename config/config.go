// Package config handles loading and managing application configuration.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/setto/setto-payments/internal/domain"
)

// Launch modes of the bridge.
const (
	LaunchModeSystem = "system"
	LaunchModeRelay  = "relay"
)

// Config holds all configuration for the application.
type Config struct {
	// Setto session configuration
	Setto SettoConfig

	// Server configuration
	Server ServerConfig

	// Bridge behaviour
	Bridge BridgeConfig

	// Telemetry settings
	Telemetry TelemetryConfig
}

// SettoConfig holds the payment session settings.
type SettoConfig struct {
	MerchantID  string
	Environment string // "development" or "production"
	IdpToken    string
	Debug       bool
	Platform    string
	HTTPTimeout time.Duration
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host    string
	Port    string
	GinMode string // "debug", "release", or "test"
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, s.Port)
}

// BridgeConfig holds the bridge's launch and callback settings.
type BridgeConfig struct {
	LaunchMode     string // "system" or "relay"
	CallbackSecret string
	AllowedOrigins []string
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled     bool
	ServiceName string
}

// Load reads configuration from environment variables, after loading an
// optional .env file from the working directory.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Setto: SettoConfig{
			MerchantID:  getEnv("SETTO_MERCHANT_ID", ""),
			Environment: getEnv("SETTO_ENVIRONMENT", "development"),
			IdpToken:    getEnv("SETTO_IDP_TOKEN", ""),
			Debug:       getEnvBool("SETTO_DEBUG", false),
			Platform:    getEnv("SETTO_PLATFORM", string(domain.PlatformDesktop)),
			HTTPTimeout: getEnvDuration("SETTO_HTTP_TIMEOUT", 10*time.Second),
		},
		Server: ServerConfig{
			Host:    getEnv("BRIDGE_HOST", "127.0.0.1"),
			Port:    getEnv("PORT", "8080"),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		Bridge: BridgeConfig{
			LaunchMode:     getEnv("BRIDGE_LAUNCH_MODE", LaunchModeSystem),
			CallbackSecret: getEnv("BRIDGE_CALLBACK_SECRET", ""),
			AllowedOrigins: getEnvList("BRIDGE_ALLOWED_ORIGINS"),
		},
		Telemetry: TelemetryConfig{
			Enabled:     getEnvBool("OTEL_ENABLED", false),
			ServiceName: getEnv("SERVICE_NAME", "setto-bridge"),
		},
	}
}

// Domain converts the Setto settings into a session config.
func (s SettoConfig) Domain() (domain.Config, error) {
	env, err := domain.ParseEnvironment(s.Environment)
	if err != nil {
		return domain.Config{}, fmt.Errorf("SETTO_ENVIRONMENT: %w", err)
	}
	return domain.Config{
		MerchantID:  s.MerchantID,
		Environment: env,
		IdpToken:    s.IdpToken,
		Debug:       s.Debug,
	}, nil
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if c.Setto.MerchantID == "" {
		return fmt.Errorf("SETTO_MERCHANT_ID is required")
	}
	if _, err := domain.ParsePlatform(c.Setto.Platform); err != nil {
		return fmt.Errorf("SETTO_PLATFORM: %w", err)
	}
	if _, err := c.Setto.Domain(); err != nil {
		return err
	}
	switch c.Bridge.LaunchMode {
	case LaunchModeSystem, LaunchModeRelay:
	default:
		return fmt.Errorf("BRIDGE_LAUNCH_MODE must be %q or %q, got %q", LaunchModeSystem, LaunchModeRelay, c.Bridge.LaunchMode)
	}
	return nil
}

// getEnv retrieves an environment variable with a fallback default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool retrieves an environment variable as a boolean with a fallback.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping empty items.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// getEnvDuration accepts a Go duration ("15s") or a number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
