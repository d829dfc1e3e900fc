// Package domain contains the payment session entities shared by the orchestrator,
// the Setto platform client and the launchers.
package domain

import (
	"fmt"
	"strings"
)

// Environment selects the Setto wallet deployment a session talks to.
type Environment int

const (
	EnvironmentDevelopment Environment = iota
	EnvironmentProduction
)

// BaseURL returns the wallet endpoint for the environment.
// Unknown values fall back to production.
func (e Environment) BaseURL() string {
	switch e {
	case EnvironmentDevelopment:
		return "https://dev-wallet.settopay.com"
	default:
		return "https://wallet.settopay.com"
	}
}

func (e Environment) String() string {
	switch e {
	case EnvironmentDevelopment:
		return "development"
	case EnvironmentProduction:
		return "production"
	default:
		return fmt.Sprintf("environment(%d)", int(e))
	}
}

// ParseEnvironment accepts "development"/"dev" and "production"/"prod".
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "development", "dev":
		return EnvironmentDevelopment, nil
	case "production", "prod":
		return EnvironmentProduction, nil
	default:
		return EnvironmentProduction, fmt.Errorf("unknown environment %q", s)
	}
}

// Platform identifies the surface a Launcher opens payments on.
type Platform string

const (
	PlatformDesktop Platform = "desktop"
	PlatformEditor  Platform = "editor"
	PlatformWebGL   Platform = "webgl"
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
)

// IsMobile reports whether the platform returns results through a custom URL scheme.
func (p Platform) IsMobile() bool {
	return p == PlatformIOS || p == PlatformAndroid
}

// ParsePlatform parses a platform name, case-insensitively.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PlatformDesktop, PlatformEditor, PlatformWebGL, PlatformIOS, PlatformAndroid:
		return p, nil
	default:
		return "", fmt.Errorf("unknown platform %q", s)
	}
}

// Config holds the session-wide settings passed to Initialize.
// The merchant identifier must not change while a payment is in flight.
type Config struct {
	MerchantID  string      `json:"merchant_id" validate:"required"`
	Environment Environment `json:"environment"`
	// IdpToken is the optional auto-login credential. When set, payments go
	// through the token flow instead of the direct URL.
	IdpToken string `json:"-"`
	Debug    bool   `json:"debug"`
}

// BaseURL returns the wallet endpoint derived from the environment.
func (c Config) BaseURL() string {
	return c.Environment.BaseURL()
}

// CallbackScheme is the custom URL scheme mobile hosts register for the return deep link.
func (c Config) CallbackScheme() string {
	return "setto-" + c.MerchantID
}

// AutoLogin reports whether payments should negotiate a payment token first.
func (c Config) AutoLogin() bool {
	return c.IdpToken != ""
}

// PaymentRequest describes a single payment. It is passed by value and never
// modified after OpenPayment receives it.
type PaymentRequest struct {
	Amount   string `json:"amount" validate:"required,decimal_amount"`
	OrderID  string `json:"order_id,omitempty"`
	Currency string `json:"currency,omitempty"`
}

// EffectiveCurrency returns the requested currency or USD.
func (r PaymentRequest) EffectiveCurrency() string {
	if r.Currency == "" {
		return "USD"
	}
	return r.Currency
}

// PaymentToken is the opaque, single-use token issued for auto-login payments.
// It formats as a placeholder so it never ends up in logs by accident.
type PaymentToken string

func (t PaymentToken) String() string {
	if t == "" {
		return ""
	}
	return "[redacted]"
}

// GoString keeps %#v from printing the token either.
func (t PaymentToken) GoString() string {
	return t.String()
}

// TokenRequest is the input of a token negotiation. BaseURL is the wallet
// deployment of the session config, which also serves the token endpoint.
type TokenRequest struct {
	BaseURL    string
	MerchantID string
	Amount     string
	OrderID    string
	IdpToken   string
}

// PaymentStatus is the final state of a payment as reported to the caller.
type PaymentStatus int

const (
	StatusSuccess PaymentStatus = iota
	StatusFailed
	StatusCancelled
)

func (s PaymentStatus) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusCancelled:
		return "cancelled"
	default:
		return "failed"
	}
}

// MarshalText renders the status by name.
func (s PaymentStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText is lenient: anything but "success" or "cancelled" is a failure.
func (s *PaymentStatus) UnmarshalText(text []byte) error {
	*s = ParseStatus(string(text))
	return nil
}

// ParseStatus maps a wire status string. Unknown or empty values map to
// StatusFailed, never to StatusSuccess.
func ParseStatus(s string) PaymentStatus {
	switch s {
	case "success":
		return StatusSuccess
	case "cancelled":
		return StatusCancelled
	default:
		return StatusFailed
	}
}

// StatusFromCode maps the numeric status used by the native plugins
// (0 success, 1 failed, 2 cancelled).
func StatusFromCode(code int) PaymentStatus {
	switch code {
	case 0:
		return StatusSuccess
	case 2:
		return StatusCancelled
	default:
		return StatusFailed
	}
}

// Settlement carries the optional on-chain details a host may report.
type Settlement struct {
	FromAddress string `json:"from_address,omitempty"`
	ToAddress   string `json:"to_address,omitempty"`
	Amount      string `json:"amount,omitempty"`
	ChainID     string `json:"chain_id,omitempty"`
	TokenSymbol string `json:"token_symbol,omitempty"`
}

// PaymentResult is delivered exactly once to the completion handler of a payment.
type PaymentResult struct {
	Status     PaymentStatus `json:"status"`
	PaymentID  string        `json:"payment_id,omitempty"`
	TxHash     string        `json:"tx_hash,omitempty"`
	Error      string        `json:"error,omitempty"`
	ErrorCode  ErrorCode     `json:"error_code,omitempty"`
	Settlement *Settlement   `json:"settlement,omitempty"`
}

// FailedResult converts an error into a Failed result, keeping the
// classification when err is a *PaymentError.
func FailedResult(err error) PaymentResult {
	res := PaymentResult{Status: StatusFailed, ErrorCode: ErrCodePaymentFailed}
	if err == nil {
		res.Error = ErrCodePaymentFailed.DefaultMessage()
		return res
	}
	if code := CodeOf(err); code != "" {
		res.ErrorCode = code
	}
	res.Error = MessageOf(err)
	return res
}

// CancelledResult builds a Cancelled result with the given classification.
func CancelledResult(code ErrorCode, message string) PaymentResult {
	if message == "" {
		message = code.DefaultMessage()
	}
	return PaymentResult{Status: StatusCancelled, ErrorCode: code, Error: message}
}
