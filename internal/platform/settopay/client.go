// Package settopay implements domain.TokenIssuer against the Setto wallet
// server's external payment API.
package settopay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/setto/setto-payments/internal/domain"
	"github.com/setto/setto-payments/internal/logger"
)

const (
	tokenPath      = "/api/external/payment/token"
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 512
)

// Client requests payment tokens from the Setto server. It performs exactly
// one request per call and never caches tokens. The endpoint is taken from
// each request's BaseURL unless WithBaseURL pins it.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithBaseURL pins the token endpoint to baseURL for every request.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// NewClient creates a token client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: logger.NoopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// tokenRequest is the JSON body sent to the token endpoint.
type tokenRequest struct {
	MerchantID string `json:"merchant_id"`
	Amount     string `json:"amount"`
	OrderID    string `json:"order_id,omitempty"`
	IdpToken   string `json:"idp_token"`
}

// tokenResponse is the JSON body returned by the token endpoint.
type tokenResponse struct {
	PaymentToken string `json:"payment_token"`
}

// IssueToken exchanges the auto-login credential for a single-use payment token.
func (c *Client) IssueToken(ctx context.Context, req domain.TokenRequest) (domain.PaymentToken, error) {
	base := c.baseURL
	if base == "" {
		base = req.BaseURL
	}
	if base == "" {
		return "", transportError("Token request failed: no wallet base URL")
	}
	url := strings.TrimRight(base, "/") + tokenPath
	requestID := uuid.NewString()

	body, err := json.Marshal(tokenRequest{
		MerchantID: req.MerchantID,
		Amount:     req.Amount,
		OrderID:    req.OrderID,
		IdpToken:   req.IdpToken,
	})
	if err != nil {
		return "", transportError(fmt.Sprintf("Token request failed: %v", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", transportError(fmt.Sprintf("Token request failed: %v", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.log.Warn("token request failed", map[string]any{
			"request_id":  requestID,
			"merchant_id": req.MerchantID,
			"error":       err.Error(),
		})
		return "", transportError(fmt.Sprintf("Token request failed: %v", err))
	}
	defer resp.Body.Close()

	c.log.Debug("token response received", map[string]any{
		"request_id":  requestID,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.log.Warn("token endpoint rejected request", map[string]any{
			"request_id":  requestID,
			"merchant_id": req.MerchantID,
			"status":      resp.StatusCode,
			"body":        string(snippet),
		})
		return "", transportError(fmt.Sprintf("Token request failed: HTTP %d", resp.StatusCode))
	}

	var tokenResp tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", transportError(fmt.Sprintf("Token request failed: invalid response: %v", err))
	}

	if tokenResp.PaymentToken == "" {
		return "", domain.NewPaymentError(domain.ErrTokenMissing,
			domain.ErrTokenMissing.Error(), domain.ErrCodeTokenMissing)
	}

	return domain.PaymentToken(tokenResp.PaymentToken), nil
}

func transportError(msg string) error {
	return domain.NewPaymentError(domain.ErrTransportFailure, msg, domain.ErrCodeTransportFailure)
}
