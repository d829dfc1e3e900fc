package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/setto/setto-payments/internal/domain"
)

func TestParseDeepLink_RoundTrip(t *testing.T) {
	res := ParseDeepLink("mygame://setto-result?status=success&txId=abc&paymentId=p1")
	assert.Equal(t, domain.PaymentResult{Status: domain.StatusSuccess, TxHash: "abc", PaymentID: "p1"}, res)
}

func TestParseDeepLink_UnknownStatusIsFailed(t *testing.T) {
	res := ParseDeepLink("setto-m1://callback?status=weird")
	assert.Equal(t, domain.StatusFailed, res.Status)
	assert.Equal(t, domain.ErrCodePaymentFailed, res.ErrorCode)
	assert.Contains(t, res.Error, "weird")
}

func TestParseDeepLink_MissingStatusIsFailed(t *testing.T) {
	for _, raw := range []string{
		"setto-m1://callback",
		"setto-m1://callback?",
		"setto-m1://callback?txId=abc",
	} {
		res := ParseDeepLink(raw)
		assert.Equal(t, domain.StatusFailed, res.Status, raw)
		assert.NotEmpty(t, res.Error, raw)
		assert.Empty(t, res.TxHash, raw)
	}
}

func TestParseDeepLink_SkipsMalformedPairs(t *testing.T) {
	res := ParseDeepLink("setto-m1://callback?garbage&status=success&a=b=c&&paymentId=p%202&txId=%zz")
	assert.Equal(t, domain.StatusSuccess, res.Status)
	assert.Equal(t, "p 2", res.PaymentID)
	assert.Empty(t, res.TxHash)
}

func TestParseDeepLink_DecodesKeysAndValues(t *testing.T) {
	res := ParseDeepLink("app://cb?st%61tus=failed&error=card+declined%21")
	assert.Equal(t, domain.StatusFailed, res.Status)
	assert.Equal(t, "card declined!", res.Error)
	assert.Equal(t, domain.ErrCodePaymentFailed, res.ErrorCode)
}

func TestParseDeepLink_WalletErrorCode(t *testing.T) {
	res := ParseDeepLink("app://cb?status=failed&error=INSUFFICIENT_BALANCE&paymentId=p9")
	assert.Equal(t, domain.StatusFailed, res.Status)
	assert.Equal(t, domain.ErrCodeInsufficientBalance, res.ErrorCode)
	assert.Equal(t, "Insufficient balance.", res.Error)
	assert.Equal(t, "p9", res.PaymentID)
}

func TestParseDeepLink_Cancelled(t *testing.T) {
	res := ParseDeepLink("app://cb?status=cancelled")
	assert.Equal(t, domain.StatusCancelled, res.Status)
	assert.Equal(t, domain.ErrCodeUserCancelled, res.ErrorCode)
}

func TestParseDeepLink_AndroidKeys(t *testing.T) {
	res := ParseDeepLink("setto-m1://callback?status=success&payment_id=p1&tx_hash=0xfeed")
	assert.Equal(t, domain.StatusSuccess, res.Status)
	assert.Equal(t, "p1", res.PaymentID)
	assert.Equal(t, "0xfeed", res.TxHash)
}

func TestParseNativeResult_StringStatus(t *testing.T) {
	res := ParseNativeResult([]byte(`{"status":"success","paymentId":"p1","txId":"0xabc"}`))
	assert.Equal(t, domain.StatusSuccess, res.Status)
	assert.Equal(t, "p1", res.PaymentID)
	assert.Equal(t, "0xabc", res.TxHash)
	assert.Nil(t, res.Settlement)
}

func TestParseNativeResult_NumericStatus(t *testing.T) {
	res := ParseNativeResult([]byte(`{"status":0,"paymentId":"p1","txHash":"0xdef"}`))
	assert.Equal(t, domain.StatusSuccess, res.Status)
	assert.Equal(t, "0xdef", res.TxHash)

	res = ParseNativeResult([]byte(`{"status":1,"error":"Activity not found"}`))
	assert.Equal(t, domain.StatusFailed, res.Status)
	assert.Equal(t, "Activity not found", res.Error)

	res = ParseNativeResult([]byte(`{"status":2}`))
	assert.Equal(t, domain.StatusCancelled, res.Status)
	assert.Equal(t, domain.ErrCodeUserCancelled, res.ErrorCode)

	res = ParseNativeResult([]byte(`{"status":9}`))
	assert.Equal(t, domain.StatusFailed, res.Status)
	assert.Contains(t, res.Error, "9")
}

func TestParseNativeResult_Settlement(t *testing.T) {
	res := ParseNativeResult([]byte(`{
		"status": "success",
		"txHash": "0x01",
		"fromAddress": "0x52908400098527886e0f7030069857d2e4169ee7",
		"toAddress": "So1anaAddre55NotHex",
		"amount": 12.5,
		"chainId": 8453,
		"tokenSymbol": "USDC"
	}`))
	require.Equal(t, domain.StatusSuccess, res.Status)
	require.NotNil(t, res.Settlement)
	assert.Equal(t, "0x52908400098527886E0F7030069857D2E4169EE7", res.Settlement.FromAddress)
	assert.Equal(t, "So1anaAddre55NotHex", res.Settlement.ToAddress)
	assert.Equal(t, "12.5", res.Settlement.Amount)
	assert.Equal(t, "8453", res.Settlement.ChainID)
	assert.Equal(t, "USDC", res.Settlement.TokenSymbol)
}

func TestParseNativeResult_ParseFailures(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", `status=success`},
		{"empty", ``},
		{"bool status", `{"status":true}`},
		{"missing status", `{"paymentId":"p1"}`},
		{"null", `null`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ParseNativeResult([]byte(tt.payload))
			assert.Equal(t, domain.StatusFailed, res.Status)
			assert.Equal(t, domain.ErrCodeParseFailure, res.ErrorCode)
			assert.NotEmpty(t, res.Error)
		})
	}
}
