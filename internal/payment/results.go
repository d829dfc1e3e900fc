package payment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/setto/setto-payments/internal/domain"
)

// ParseDeepLink classifies a return URL such as
// setto-m1://callback?status=success&txId=..&paymentId=..
//
// A missing status is treated as failed and an unknown one never maps to
// success. The Android keys payment_id and tx_hash are accepted as fallbacks.
func ParseDeepLink(raw string) domain.PaymentResult {
	params := parseQuery(raw)

	status, ok := params["status"]
	if !ok {
		status = "failed"
	}

	res := domain.PaymentResult{
		Status:    domain.ParseStatus(status),
		PaymentID: firstOf(params, "paymentId", "payment_id"),
	}

	switch res.Status {
	case domain.StatusSuccess:
		res.TxHash = firstOf(params, "txId", "tx_hash", "txHash")
	case domain.StatusCancelled:
		applyWalletError(&res, params["error"], domain.ErrCodeUserCancelled)
	default:
		applyWalletError(&res, params["error"], domain.ErrCodePaymentFailed)
		if status != "failed" && params["error"] == "" {
			res.Error = fmt.Sprintf("unknown payment status %q", status)
		}
	}
	return res
}

// parseQuery splits on the first '?', then on '&'. Pairs without exactly one
// '=' or with bad escapes are skipped.
func parseQuery(raw string) map[string]string {
	out := make(map[string]string)

	i := strings.IndexByte(raw, '?')
	if i < 0 {
		return out
	}

	for _, pair := range strings.Split(raw[i+1:], "&") {
		parts := strings.Split(pair, "=")
		if len(parts) != 2 {
			continue
		}
		key, err := url.QueryUnescape(parts[0])
		if err != nil {
			continue
		}
		value, err := url.QueryUnescape(parts[1])
		if err != nil {
			continue
		}
		out[key] = value
	}
	return out
}

func firstOf(params map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := params[k]; v != "" {
			return v
		}
	}
	return ""
}

// applyWalletError fills Error/ErrorCode from the wallet's error parameter,
// which is either a known code or free text.
func applyWalletError(res *domain.PaymentResult, raw string, fallback domain.ErrorCode) {
	if raw == "" {
		res.ErrorCode = fallback
		res.Error = fallback.DefaultMessage()
		return
	}
	if code, ok := domain.ParseErrorCode(raw); ok {
		res.ErrorCode = code
		res.Error = code.DefaultMessage()
		return
	}
	res.ErrorCode = fallback
	res.Error = raw
}

// nativePayload is the JSON a host (webview bridge, Android plugin) posts back.
type nativePayload struct {
	Status      nativeStatus `json:"status"`
	PaymentID   string       `json:"paymentId"`
	TxHash      string       `json:"txHash"`
	TxID        string       `json:"txId"`
	Error       string       `json:"error"`
	FromAddress string       `json:"fromAddress"`
	ToAddress   string       `json:"toAddress"`
	Amount      flexString   `json:"amount"`
	ChainID     flexString   `json:"chainId"`
	TokenSymbol string       `json:"tokenSymbol"`
}

// nativeStatus accepts both "success"/"failed"/"cancelled" and the numeric
// 0/1/2 form used by the native plugins.
type nativeStatus struct {
	value domain.PaymentStatus
	raw   string
	set   bool
}

func (s *nativeStatus) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		s.value, s.raw, s.set = domain.ParseStatus(str), str, true
		return nil
	}

	var code int
	if err := json.Unmarshal(data, &code); err != nil {
		return fmt.Errorf("status must be a string or an integer: %w", err)
	}
	s.value, s.raw, s.set = domain.StatusFromCode(code), fmt.Sprint(code), true
	return nil
}

// flexString decodes a JSON string or number into its text form.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*f = flexString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*f = flexString(num.String())
	return nil
}

// ParseNativeResult classifies a host callback payload. Decoding errors become
// a Failed result with ErrCodeParseFailure instead of being returned.
func ParseNativeResult(payload []byte) domain.PaymentResult {
	var p nativePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return domain.FailedResult(domain.NewPaymentError(domain.ErrParseFailure,
			fmt.Sprintf("invalid payment result payload: %v", err), domain.ErrCodeParseFailure))
	}

	if !p.Status.set {
		return domain.FailedResult(domain.NewPaymentError(domain.ErrParseFailure,
			"payment result payload has no status", domain.ErrCodeParseFailure))
	}

	res := domain.PaymentResult{
		Status:     p.Status.value,
		PaymentID:  p.PaymentID,
		Settlement: p.settlement(),
	}

	switch res.Status {
	case domain.StatusSuccess:
		res.TxHash = p.TxHash
		if res.TxHash == "" {
			res.TxHash = p.TxID
		}
	case domain.StatusCancelled:
		applyWalletError(&res, p.Error, domain.ErrCodeUserCancelled)
	default:
		applyWalletError(&res, p.Error, domain.ErrCodePaymentFailed)
		if p.Error == "" && p.Status.raw != "failed" && p.Status.raw != "1" {
			res.Error = fmt.Sprintf("unknown payment status %q", p.Status.raw)
		}
	}
	return res
}

func (p nativePayload) settlement() *domain.Settlement {
	s := domain.Settlement{
		FromAddress: normalizeAddress(p.FromAddress),
		ToAddress:   normalizeAddress(p.ToAddress),
		Amount:      string(p.Amount),
		ChainID:     string(p.ChainID),
		TokenSymbol: p.TokenSymbol,
	}
	if s == (domain.Settlement{}) {
		return nil
	}
	return &s
}

// normalizeAddress returns the EIP-55 form of EVM addresses and leaves any
// other format untouched.
func normalizeAddress(addr string) string {
	if common.IsHexAddress(addr) {
		return common.HexToAddress(addr).Hex()
	}
	return addr
}
