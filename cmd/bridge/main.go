// Setto Payments Bridge
//
// Runs a payment session behind a local HTTP API so that hosts without a
// native plugin (webviews, editors, desktop games) can open payments and
// report results back. It wires up all dependencies and starts the server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/setto/setto-payments/config"
	"github.com/setto/setto-payments/internal/api"
	"github.com/setto/setto-payments/internal/domain"
	"github.com/setto/setto-payments/internal/logger"
	"github.com/setto/setto-payments/internal/payment"
	"github.com/setto/setto-payments/internal/platform/browser"
	"github.com/setto/setto-payments/internal/platform/settopay"
	"github.com/setto/setto-payments/internal/telemetry"
)

const version = "1.0.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "setto-bridge: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	zl, err := logger.NewZapLogger(logger.ForDebug(cfg.Setto.Debug))
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer zl.Sync()
	log := logger.Logger(zl)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, version)
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				log.Warn("tracer shutdown failed", map[string]any{"error": err.Error()})
			}
		}()
	}

	sessionCfg, err := cfg.Setto.Domain()
	if err != nil {
		return err
	}
	platform, err := domain.ParsePlatform(cfg.Setto.Platform)
	if err != nil {
		return err
	}

	// Infrastructure Layer
	tokens := settopay.NewClient(
		settopay.WithTimeout(cfg.Setto.HTTPTimeout),
		settopay.WithLogger(log),
	)

	var (
		launcher domain.Launcher
		relay    api.URLRelay
	)
	switch cfg.Bridge.LaunchMode {
	case config.LaunchModeRelay:
		r := browser.NewRelay(platform)
		launcher, relay = r, r
	default:
		launcher = browser.NewSystemBrowser(platform)
	}

	// Session Layer
	orch := payment.NewOrchestrator(tokens, launcher, payment.WithLogger(log))
	if err := orch.Initialize(sessionCfg); err != nil {
		return fmt.Errorf("failed to initialize payment session: %w", err)
	}

	// API Layer
	handler := api.NewHandler(orch, relay, log)
	router := api.SetupRouter(handler, api.RouterConfig{
		GinMode:        cfg.Server.GinMode,
		CallbackSecret: cfg.Bridge.CallbackSecret,
		AllowedOrigins: cfg.Bridge.AllowedOrigins,
		Logger:         log,
	})
	if cfg.Bridge.CallbackSecret == "" {
		log.Warn("BRIDGE_CALLBACK_SECRET not set, callbacks and launch URLs are not authenticated", nil)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           otelhttp.NewHandler(router, "setto-bridge"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("bridge listening", map[string]any{
			"addr":        srv.Addr,
			"merchant_id": sessionCfg.MerchantID,
			"environment": sessionCfg.Environment.String(),
			"platform":    string(platform),
			"launch_mode": cfg.Bridge.LaunchMode,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down bridge", nil)
	orch.CancelPayment()

	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}
