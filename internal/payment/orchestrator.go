// Package payment implements the payment session orchestrator.
// It drives one payment at a time: optional token negotiation, URL building,
// launching the platform surface, and reconciling the result from whichever
// channel (deep link, native callback, cancellation) reports first.
package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/setto/setto-payments/internal/domain"
	"github.com/setto/setto-payments/internal/logger"
)

const tracerName = "github.com/setto/setto-payments/internal/payment"

// State is the orchestrator's position in the payment lifecycle.
type State int

const (
	StateIdle State = iota
	StateAwaitingToken
	StateAwaitingResult
)

func (s State) String() string {
	switch s {
	case StateAwaitingToken:
		return "awaiting_token"
	case StateAwaitingResult:
		return "awaiting_result"
	default:
		return "idle"
	}
}

// MarshalText renders the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CompletionHandler receives the final result of a payment. It is called
// exactly once per OpenPayment call.
type CompletionHandler func(domain.PaymentResult)

// attempt is one OpenPayment call. The orchestrator holds at most one.
type attempt struct {
	id        string
	handler   CompletionHandler
	launchURL string // fragment redacted
}

// Orchestrator owns the single pending completion handler of a session.
// All result channels funnel into it; the first one to arrive wins and the
// rest are dropped.
type Orchestrator struct {
	mu      sync.Mutex
	cfg     *domain.Config
	state   State
	current *attempt

	// launchMu orders Launch against Close so a surface opened for an
	// attempt that was resolved meanwhile is closed again.
	launchMu sync.Mutex

	tokens   domain.TokenIssuer
	launcher domain.Launcher
	log      logger.Logger
	tracer   trace.Tracer
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) {
		o.log = l
	}
}

// WithTracer sets the tracer. Defaults to the global otel provider.
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) {
		o.tracer = t
	}
}

// NewOrchestrator creates an orchestrator. tokens may be nil when the session
// never uses an auto-login credential.
func NewOrchestrator(tokens domain.TokenIssuer, launcher domain.Launcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		tokens:   tokens,
		launcher: launcher,
		log:      logger.NoopLogger{},
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Initialize installs the session config. Calling it again replaces the
// config, but only while no payment is in flight.
func (o *Orchestrator) Initialize(cfg domain.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateIdle {
		return domain.NewPaymentError(domain.ErrSessionBusy,
			fmt.Sprintf("cannot re-initialize while %s", o.state), domain.ErrCodeInvalidParams)
	}

	c := cfg
	o.cfg = &c

	o.log.Info("payment session initialized", map[string]any{
		"merchant_id": cfg.MerchantID,
		"environment": cfg.Environment.String(),
		"auto_login":  cfg.AutoLogin(),
		"platform":    string(o.launcher.Platform()),
	})
	return nil
}

// OpenPayment starts a payment and returns without waiting for its outcome.
// onComplete is always called exactly once: synchronously for validation
// failures, later for everything else. Opening a payment while another one is
// pending resolves the older one with Cancelled (ErrCodeSuperseded).
func (o *Orchestrator) OpenPayment(ctx context.Context, req domain.PaymentRequest, onComplete CompletionHandler) {
	if onComplete == nil {
		onComplete = func(domain.PaymentResult) {}
	}

	ctx, span := o.tracer.Start(ctx, "payment.OpenPayment")
	defer span.End()

	o.mu.Lock()
	if o.cfg == nil {
		o.mu.Unlock()
		o.log.Warn("payment opened before initialization", nil)
		span.SetStatus(codes.Error, "not initialized")
		onComplete(domain.FailedResult(domain.NewPaymentError(domain.ErrNotInitialized,
			domain.ErrNotInitialized.Error(), domain.ErrCodeNotInitialized)))
		return
	}
	cfg := *o.cfg
	platform := o.launcher.Platform()

	if err := req.Validate(); err != nil {
		o.mu.Unlock()
		o.fail(span, "invalid payment request", err, onComplete)
		return
	}

	var directURL string
	if !cfg.AutoLogin() {
		u, err := BuildDirectURL(cfg, req, platform)
		if err != nil {
			o.mu.Unlock()
			o.fail(span, "failed to build payment URL", err, onComplete)
			return
		}
		directURL = u
	}

	stale, staleState := o.current, o.state
	att := &attempt{id: sessionIDFrom(ctx), handler: onComplete}
	o.current = att
	if cfg.AutoLogin() {
		o.state = StateAwaitingToken
	} else {
		o.state = StateAwaitingResult
		att.launchURL = redactURL(directURL)
	}
	o.mu.Unlock()

	span.SetAttributes(
		attribute.String("setto.session_id", att.id),
		attribute.Bool("setto.auto_login", cfg.AutoLogin()),
		attribute.String("setto.platform", string(platform)),
		attribute.String("setto.currency", req.EffectiveCurrency()),
	)

	if stale != nil {
		o.log.Warn("pending payment superseded", map[string]any{
			"session_id":     stale.id,
			"new_session_id": att.id,
		})
		if staleState == StateAwaitingResult {
			o.closeSurface(stale.id)
		}
		stale.handler(domain.CancelledResult(domain.ErrCodeSuperseded, ""))
	}

	if !cfg.AutoLogin() {
		o.launch(ctx, att, directURL)
		return
	}

	tokenReq := domain.TokenRequest{
		BaseURL:    cfg.BaseURL(),
		MerchantID: cfg.MerchantID,
		Amount:     req.Amount,
		OrderID:    req.OrderID,
		IdpToken:   cfg.IdpToken,
	}
	go o.negotiate(context.WithoutCancel(ctx), att, cfg, tokenReq, platform)
}

// negotiate runs the token round trip for att and launches on success. If att
// was cancelled or superseded meanwhile, the token is dropped unused.
func (o *Orchestrator) negotiate(ctx context.Context, att *attempt, cfg domain.Config, req domain.TokenRequest, platform domain.Platform) {
	ctx, span := o.tracer.Start(ctx, "payment.NegotiateToken",
		trace.WithAttributes(attribute.String("setto.session_id", att.id)))
	defer span.End()

	var (
		token domain.PaymentToken
		err   error
	)
	if o.tokens == nil {
		err = domain.NewPaymentError(domain.ErrTransportFailure,
			"no token issuer configured", domain.ErrCodeTransportFailure)
	} else {
		token, err = o.tokens.IssueToken(ctx, req)
	}

	var launchURL string
	if err == nil {
		launchURL, err = BuildTokenURL(cfg, token, platform)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "token negotiation failed")
		o.log.Warn("token negotiation failed", map[string]any{
			"session_id": att.id,
			"code":       string(domain.CodeOf(err)),
			"error":      domain.MessageOf(err),
		})
		if !o.resolve(att, domain.FailedResult(err)) {
			o.log.Debug("token failure for inactive payment dropped", map[string]any{"session_id": att.id})
		}
		return
	}

	o.mu.Lock()
	if o.current != att {
		o.mu.Unlock()
		o.log.Debug("token for inactive payment dropped", map[string]any{"session_id": att.id})
		return
	}
	o.state = StateAwaitingResult
	att.launchURL = redactURL(launchURL)
	o.mu.Unlock()

	o.launch(ctx, att, launchURL)
}

// launch opens the surface for att. A launch error resolves att as failed.
// If att is resolved before or while the surface opens, the surface is not
// opened or is closed again.
func (o *Orchestrator) launch(ctx context.Context, att *attempt, rawURL string) {
	err := o.openSurface(ctx, att, rawURL)
	if err == nil {
		return
	}
	o.log.Error("payment surface launch failed", map[string]any{
		"session_id": att.id,
		"error":      err.Error(),
	})
	o.resolve(att, domain.FailedResult(domain.NewPaymentError(domain.ErrLaunchFailure,
		fmt.Sprintf("failed to open payment surface: %v", err), domain.ErrCodeLaunchFailure)))
}

func (o *Orchestrator) openSurface(ctx context.Context, att *attempt, rawURL string) error {
	o.launchMu.Lock()
	defer o.launchMu.Unlock()

	if !o.isCurrent(att) {
		o.log.Debug("launch skipped, payment already resolved", map[string]any{"session_id": att.id})
		return nil
	}

	o.log.Info("launching payment surface", map[string]any{
		"session_id": att.id,
		"url":        redactURL(rawURL),
		"platform":   string(o.launcher.Platform()),
	})
	if err := o.launcher.Launch(ctx, rawURL); err != nil {
		return err
	}

	if !o.isCurrent(att) {
		o.log.Info("payment resolved during launch, closing surface", map[string]any{"session_id": att.id})
		o.closeSurfaceLocked(att.id)
	}
	return nil
}

func (o *Orchestrator) isCurrent(att *attempt) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current == att
}

// HandleDeepLink delivers a return URL. It reports whether a pending payment
// was resolved; deliveries with nothing awaiting a result are dropped.
func (o *Orchestrator) HandleDeepLink(rawURL string) bool {
	res := ParseDeepLink(rawURL)
	return o.deliver("deep_link", res)
}

// HandleNativeResult delivers a JSON payload from the host. Malformed payloads
// resolve the payment as failed with ErrCodeParseFailure.
func (o *Orchestrator) HandleNativeResult(payload []byte) bool {
	res := ParseNativeResult(payload)
	return o.deliver("native", res)
}

func (o *Orchestrator) deliver(channel string, res domain.PaymentResult) bool {
	o.mu.Lock()
	att := o.current
	if att == nil || o.state != StateAwaitingResult {
		o.mu.Unlock()
		o.log.Debug("result dropped, no payment awaiting a result", map[string]any{
			"channel": channel,
			"status":  res.Status.String(),
		})
		return false
	}
	o.mu.Unlock()

	if !o.resolve(att, res) {
		return false
	}
	o.log.Info("payment resolved", map[string]any{
		"session_id": att.id,
		"channel":    channel,
		"status":     res.Status.String(),
		"payment_id": res.PaymentID,
		"error_code": string(res.ErrorCode),
	})
	return true
}

// CancelPayment aborts the pending payment, asks the launcher to close its
// surface and resolves the handler with Cancelled. It does not abort an
// outstanding token request; that request's outcome is dropped when it lands.
func (o *Orchestrator) CancelPayment() bool {
	o.mu.Lock()
	att, state := o.current, o.state
	if att == nil {
		o.mu.Unlock()
		return false
	}
	o.current = nil
	o.state = StateIdle
	o.mu.Unlock()

	if state == StateAwaitingResult {
		o.closeSurface(att.id)
	}

	o.log.Info("payment cancelled", map[string]any{"session_id": att.id, "state": state.String()})
	att.handler(domain.CancelledResult(domain.ErrCodeUserCancelled, ""))
	return true
}

// resolve clears the slot if it still holds att and then calls its handler.
// The slot is cleared under the lock, so a handler never runs twice.
func (o *Orchestrator) resolve(att *attempt, res domain.PaymentResult) bool {
	o.mu.Lock()
	if o.current != att {
		o.mu.Unlock()
		return false
	}
	o.current = nil
	o.state = StateIdle
	o.mu.Unlock()

	att.handler(res)
	return true
}

func (o *Orchestrator) closeSurface(sessionID string) {
	o.launchMu.Lock()
	defer o.launchMu.Unlock()
	o.closeSurfaceLocked(sessionID)
}

func (o *Orchestrator) closeSurfaceLocked(sessionID string) {
	if err := o.launcher.Close(); err != nil {
		o.log.Warn("failed to close payment surface", map[string]any{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}
}

func (o *Orchestrator) fail(span trace.Span, msg string, err error, onComplete CompletionHandler) {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	o.log.Warn(msg, map[string]any{
		"code":  string(domain.CodeOf(err)),
		"error": domain.MessageOf(err),
	})
	onComplete(domain.FailedResult(err))
}

type sessionIDKey struct{}

// ContextWithSessionID makes OpenPayment use id for the payment it opens
// instead of generating one.
func ContextWithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, id)
}

func sessionIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(sessionIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// Snapshot is a point-in-time view of the session.
type Snapshot struct {
	Initialized bool   `json:"initialized"`
	State       State  `json:"state"`
	SessionID   string `json:"session_id,omitempty"`
	LaunchURL   string `json:"launch_url,omitempty"`
}

// Snapshot reports the current state. LaunchURL never includes the fragment.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := Snapshot{Initialized: o.cfg != nil, State: o.state}
	if o.current != nil {
		s.SessionID = o.current.id
		s.LaunchURL = o.current.launchURL
	}
	return s
}
