package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/setto/setto-payments/internal/domain"
	"github.com/setto/setto-payments/internal/logger"
	"github.com/setto/setto-payments/internal/payment"
)

const maxStoredResults = 128

// URLRelay hands a pending launch URL to the embedding webview.
type URLRelay interface {
	Take() (string, bool)
}

// Handler contains the HTTP handlers for the bridge API.
type Handler struct {
	orchestrator *payment.Orchestrator
	relay        URLRelay
	log          logger.Logger

	mu      sync.Mutex
	results map[string]domain.PaymentResult
	order   []string
	last    *SessionResult
}

// NewHandler creates a new API handler. relay is nil unless the bridge runs
// in relay launch mode.
func NewHandler(orchestrator *payment.Orchestrator, relay URLRelay, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &Handler{
		orchestrator: orchestrator,
		relay:        relay,
		log:          log,
		results:      make(map[string]domain.PaymentResult),
	}
}

// OpenPaymentRequest represents the JSON body for opening a payment.
type OpenPaymentRequest struct {
	Amount   string `json:"amount" binding:"required"`
	OrderID  string `json:"order_id"`
	Currency string `json:"currency"`
}

// OpenPaymentResponse is returned when a payment is opened. Result is set when
// the payment already finished, e.g. because the surface failed to open.
type OpenPaymentResponse struct {
	Success   bool                  `json:"success"`
	SessionID string                `json:"session_id"`
	Result    *domain.PaymentResult `json:"result,omitempty"`
}

// SessionResult pairs a finished payment with its session.
type SessionResult struct {
	SessionID string               `json:"session_id"`
	Result    domain.PaymentResult `json:"result"`
}

// CurrentResponse is the state of the bridge's session.
type CurrentResponse struct {
	payment.Snapshot
	LastResult *SessionResult `json:"last_result,omitempty"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

// DeepLinkRequest carries a return URL captured by the host.
type DeepLinkRequest struct {
	URL string `json:"url" binding:"required"`
}

// OpenPayment handles POST /api/v1/payments
func (h *Handler) OpenPayment(c *gin.Context) {
	var body OpenPaymentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid request body: " + err.Error(),
			Code:    string(domain.ErrCodeInvalidParams),
		})
		return
	}

	req := domain.PaymentRequest{
		Amount:   body.Amount,
		OrderID:  body.OrderID,
		Currency: body.Currency,
	}
	if err := req.Validate(); err != nil {
		handlePaymentError(c, err)
		return
	}

	sessionID := uuid.NewString()
	done := make(chan domain.PaymentResult, 1)

	ctx := payment.ContextWithSessionID(context.WithoutCancel(c.Request.Context()), sessionID)
	h.orchestrator.OpenPayment(ctx, req, func(res domain.PaymentResult) {
		h.record(sessionID, res)
		done <- res
	})

	select {
	case res := <-done:
		status := http.StatusOK
		if res.ErrorCode == domain.ErrCodeNotInitialized {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, OpenPaymentResponse{Success: res.Status == domain.StatusSuccess, SessionID: sessionID, Result: &res})
	default:
		c.JSON(http.StatusAccepted, OpenPaymentResponse{Success: true, SessionID: sessionID})
	}
}

// CurrentPayment handles GET /api/v1/payments/current
func (h *Handler) CurrentPayment(c *gin.Context) {
	h.mu.Lock()
	last := h.last
	h.mu.Unlock()

	c.JSON(http.StatusOK, CurrentResponse{
		Snapshot:   h.orchestrator.Snapshot(),
		LastResult: last,
	})
}

// GetSession handles GET /api/v1/sessions/:session_id
func (h *Handler) GetSession(c *gin.Context) {
	sessionID := c.Param("session_id")

	h.mu.Lock()
	res, ok := h.results[sessionID]
	h.mu.Unlock()

	if ok {
		c.JSON(http.StatusOK, SessionResult{SessionID: sessionID, Result: res})
		return
	}

	if snap := h.orchestrator.Snapshot(); snap.SessionID == sessionID {
		c.JSON(http.StatusAccepted, gin.H{"session_id": sessionID, "state": snap.State})
		return
	}

	c.JSON(http.StatusNotFound, ErrorResponse{
		Success: false,
		Error:   "session not found",
		Code:    "SESSION_NOT_FOUND",
	})
}

// CancelPayment handles POST /api/v1/payments/cancel
func (h *Handler) CancelPayment(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"cancelled": h.orchestrator.CancelPayment()})
}

// TakeLaunchURL handles GET /api/v1/payments/launch
// The relay hands each URL out once; 204 means nothing is waiting.
func (h *Handler) TakeLaunchURL(c *gin.Context) {
	if h.relay == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Success: false,
			Error:   "bridge is not in relay mode",
			Code:    "RELAY_DISABLED",
		})
		return
	}

	u, ok := h.relay.Take()
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{"url": u})
}

// ReturnCallback handles GET /callback, the deep-link return target.
func (h *Handler) ReturnCallback(c *gin.Context) {
	handled := h.orchestrator.HandleDeepLink(c.Request.URL.String())
	c.JSON(http.StatusOK, gin.H{"handled": handled})
}

// DeepLinkCallback handles POST /api/v1/callbacks/deeplink
func (h *Handler) DeepLinkCallback(c *gin.Context) {
	var body DeepLinkRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid request body: " + err.Error(),
			Code:    string(domain.ErrCodeInvalidParams),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"handled": h.orchestrator.HandleDeepLink(body.URL)})
}

// NativeCallback handles POST /api/v1/callbacks/native
// The raw body is handed over as is; malformed payloads resolve the payment
// as failed rather than being rejected here.
func (h *Handler) NativeCallback(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCallbackBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "failed to read request body",
			Code:    "INVALID_BODY",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"handled": h.orchestrator.HandleNativeResult(payload)})
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"service":     "setto-bridge",
		"initialized": h.orchestrator.Snapshot().Initialized,
	})
}

func (h *Handler) record(sessionID string, res domain.PaymentResult) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.results[sessionID]; !ok {
		h.order = append(h.order, sessionID)
	}
	h.results[sessionID] = res
	h.last = &SessionResult{SessionID: sessionID, Result: res}

	for len(h.order) > maxStoredResults {
		delete(h.results, h.order[0])
		h.order = h.order[1:]
	}

	h.log.Info("payment finished", map[string]any{
		"session_id": sessionID,
		"status":     res.Status.String(),
		"error_code": string(res.ErrorCode),
	})
}

// handlePaymentError maps domain errors to HTTP responses.
func handlePaymentError(c *gin.Context, err error) {
	var paymentErr *domain.PaymentError
	if errors.As(err, &paymentErr) {
		statusCode := http.StatusInternalServerError

		switch {
		case errors.Is(paymentErr.Err, domain.ErrInvalidParams):
			statusCode = http.StatusBadRequest
		case errors.Is(paymentErr.Err, domain.ErrNotInitialized):
			statusCode = http.StatusServiceUnavailable
		case errors.Is(paymentErr.Err, domain.ErrSessionBusy):
			statusCode = http.StatusConflict
		}

		c.JSON(statusCode, ErrorResponse{
			Success: false,
			Error:   paymentErr.Message,
			Code:    string(paymentErr.Code),
		})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Success: false,
		Error:   "Internal server error",
		Code:    "INTERNAL_ERROR",
	})
}
