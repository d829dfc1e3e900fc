package payment

import (
	"net/url"
	"strings"

	"github.com/setto/setto-payments/internal/domain"
)

const walletPath = "/pay/wallet"

// BuildDirectURL builds the launch URL used when no auto-login credential is
// configured:
//
//	{base}/pay/wallet?merchant_id=..&amount=..[&order_id=..][&callback_scheme=..]
//
// Each value is escaped on its own. callback_scheme is only added for mobile
// platforms, which are the only ones that can route a custom scheme back.
func BuildDirectURL(cfg domain.Config, req domain.PaymentRequest, platform domain.Platform) (string, error) {
	if cfg.MerchantID == "" {
		return "", domain.NewPaymentError(domain.ErrInvalidParams,
			"merchant_id is required", domain.ErrCodeInvalidParams)
	}
	if err := req.Validate(); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(cfg.BaseURL())
	b.WriteString(walletPath)
	b.WriteString("?merchant_id=")
	b.WriteString(url.QueryEscape(cfg.MerchantID))
	b.WriteString("&amount=")
	b.WriteString(url.QueryEscape(req.Amount))
	if req.OrderID != "" {
		b.WriteString("&order_id=")
		b.WriteString(url.QueryEscape(req.OrderID))
	}
	if platform.IsMobile() {
		b.WriteString("&callback_scheme=")
		b.WriteString(url.QueryEscape(cfg.CallbackScheme()))
	}
	return b.String(), nil
}

// BuildTokenURL builds the launch URL for the auto-login flow:
//
//	{base}/pay/wallet#pt=..[&callback_scheme=..]
//
// The token must stay in the fragment: browsers never send fragments to the
// server, and the token is a single-use secret.
func BuildTokenURL(cfg domain.Config, token domain.PaymentToken, platform domain.Platform) (string, error) {
	if cfg.MerchantID == "" {
		return "", domain.NewPaymentError(domain.ErrInvalidParams,
			"merchant_id is required", domain.ErrCodeInvalidParams)
	}
	if token == "" {
		return "", domain.NewPaymentError(domain.ErrTokenMissing,
			domain.ErrTokenMissing.Error(), domain.ErrCodeTokenMissing)
	}

	var b strings.Builder
	b.WriteString(cfg.BaseURL())
	b.WriteString(walletPath)
	b.WriteString("#pt=")
	b.WriteString(url.QueryEscape(string(token)))
	if platform.IsMobile() {
		b.WriteString("&callback_scheme=")
		b.WriteString(url.QueryEscape(cfg.CallbackScheme()))
	}
	return b.String(), nil
}

// redactURL drops the fragment so launch URLs can be logged and reported.
func redactURL(raw string) string {
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		return raw[:i] + "#[redacted]"
	}
	return raw
}
