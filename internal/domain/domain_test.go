package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvironmentBaseURL(t *testing.T) {
	assert.Equal(t, "https://dev-wallet.settopay.com", EnvironmentDevelopment.BaseURL())
	assert.Equal(t, "https://wallet.settopay.com", EnvironmentProduction.BaseURL())
	assert.Equal(t, "https://wallet.settopay.com", Environment(42).BaseURL())
}

func TestParseEnvironment(t *testing.T) {
	env, err := ParseEnvironment("Dev")
	require.NoError(t, err)
	assert.Equal(t, EnvironmentDevelopment, env)

	env, err = ParseEnvironment("production")
	require.NoError(t, err)
	assert.Equal(t, EnvironmentProduction, env)

	_, err = ParseEnvironment("staging")
	assert.Error(t, err)
}

func TestConfigDerivedValues(t *testing.T) {
	cfg := Config{MerchantID: "m1", Environment: EnvironmentDevelopment}
	assert.Equal(t, "setto-m1", cfg.CallbackScheme())
	assert.Equal(t, "https://dev-wallet.settopay.com", cfg.BaseURL())
	assert.False(t, cfg.AutoLogin())

	cfg.IdpToken = "idp"
	assert.True(t, cfg.AutoLogin())
}

func TestPlatformIsMobile(t *testing.T) {
	assert.True(t, PlatformIOS.IsMobile())
	assert.True(t, PlatformAndroid.IsMobile())
	assert.False(t, PlatformDesktop.IsMobile())
	assert.False(t, PlatformEditor.IsMobile())
	assert.False(t, PlatformWebGL.IsMobile())

	p, err := ParsePlatform("Android")
	require.NoError(t, err)
	assert.Equal(t, PlatformAndroid, p)

	_, err = ParsePlatform("playstation")
	assert.Error(t, err)
}

func TestParseStatusNeverDefaultsToSuccess(t *testing.T) {
	assert.Equal(t, StatusSuccess, ParseStatus("success"))
	assert.Equal(t, StatusCancelled, ParseStatus("cancelled"))
	assert.Equal(t, StatusFailed, ParseStatus("failed"))
	assert.Equal(t, StatusFailed, ParseStatus("weird"))
	assert.Equal(t, StatusFailed, ParseStatus(""))
	assert.Equal(t, StatusFailed, ParseStatus("SUCCESS"))

	assert.Equal(t, StatusSuccess, StatusFromCode(0))
	assert.Equal(t, StatusFailed, StatusFromCode(1))
	assert.Equal(t, StatusCancelled, StatusFromCode(2))
	assert.Equal(t, StatusFailed, StatusFromCode(7))
}

func TestPaymentResultJSON(t *testing.T) {
	res := PaymentResult{Status: StatusSuccess, PaymentID: "p1", TxHash: "abc"}
	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"success","payment_id":"p1","tx_hash":"abc"}`, string(b))
}

func TestPaymentTokenIsRedacted(t *testing.T) {
	tok := PaymentToken("secret-token")
	assert.Equal(t, "[redacted]", fmt.Sprint(tok))
	assert.Equal(t, "[redacted]", fmt.Sprintf("%#v", tok))
	assert.NotContains(t, fmt.Sprintf("%v", struct{ T PaymentToken }{tok}), "secret-token")
}

func TestPaymentRequestValidate(t *testing.T) {
	require.NoError(t, PaymentRequest{Amount: "10.00"}.Validate())

	tests := []struct {
		name    string
		amount  string
		message string
	}{
		{"empty", "", "amount is required"},
		{"not a number", "ten", "amount must be a positive decimal"},
		{"zero", "0", "amount must be a positive decimal"},
		{"negative", "-1.50", "amount must be a positive decimal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := PaymentRequest{Amount: tt.amount}.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidParams))
			assert.Equal(t, ErrCodeInvalidParams, CodeOf(err))
			assert.Contains(t, MessageOf(err), tt.message)
		})
	}
}

func TestPaymentRequestEffectiveCurrency(t *testing.T) {
	assert.Equal(t, "USD", PaymentRequest{Amount: "1"}.EffectiveCurrency())
	assert.Equal(t, "EUR", PaymentRequest{Amount: "1", Currency: "EUR"}.EffectiveCurrency())
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, Config{MerchantID: "m1"}.Validate())

	err := Config{}.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidParams)
	assert.Equal(t, "merchant_id is required", MessageOf(err))

	err = Config{MerchantID: "m1", Environment: Environment(9)}.Validate()
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestFailedResult(t *testing.T) {
	res := FailedResult(NewPaymentError(ErrTokenMissing, "PaymentToken not received", ErrCodeTokenMissing))
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, ErrCodeTokenMissing, res.ErrorCode)
	assert.Equal(t, "PaymentToken not received", res.Error)

	res = FailedResult(errors.New("boom"))
	assert.Equal(t, ErrCodePaymentFailed, res.ErrorCode)
	assert.Equal(t, "boom", res.Error)
}

func TestParseErrorCode(t *testing.T) {
	code, ok := ParseErrorCode("INSUFFICIENT_BALANCE")
	require.True(t, ok)
	assert.Equal(t, ErrCodeInsufficientBalance, code)
	assert.Equal(t, "Insufficient balance.", code.DefaultMessage())

	_, ok = ParseErrorCode("SOMETHING_ELSE")
	assert.False(t, ok)
}
