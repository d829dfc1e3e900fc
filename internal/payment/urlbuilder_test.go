package payment

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/setto/setto-payments/internal/domain"
)

var devConfig = domain.Config{MerchantID: "m1", Environment: domain.EnvironmentDevelopment}

func TestBuildDirectURL_Desktop(t *testing.T) {
	u, err := BuildDirectURL(devConfig, domain.PaymentRequest{Amount: "10.00"}, domain.PlatformDesktop)
	require.NoError(t, err)
	assert.Equal(t, "https://dev-wallet.settopay.com/pay/wallet?merchant_id=m1&amount=10.00", u)
}

func TestBuildDirectURL_NoCallbackSchemeOffMobile(t *testing.T) {
	for _, p := range []domain.Platform{domain.PlatformDesktop, domain.PlatformEditor, domain.PlatformWebGL} {
		u, err := BuildDirectURL(devConfig, domain.PaymentRequest{Amount: "1", OrderID: "o1"}, p)
		require.NoError(t, err)
		assert.NotContains(t, u, "callback_scheme", "platform %s", p)
	}
}

func TestBuildDirectURL_MobileAddsCallbackScheme(t *testing.T) {
	for _, p := range []domain.Platform{domain.PlatformIOS, domain.PlatformAndroid} {
		u, err := BuildDirectURL(devConfig, domain.PaymentRequest{Amount: "5", OrderID: "o-1"}, p)
		require.NoError(t, err)
		assert.Equal(t,
			"https://dev-wallet.settopay.com/pay/wallet?merchant_id=m1&amount=5&order_id=o-1&callback_scheme=setto-m1", u)
	}
}

func TestBuildDirectURL_EncodesEachValue(t *testing.T) {
	cfg := domain.Config{MerchantID: "shop&co=1", Environment: domain.EnvironmentProduction}
	u, err := BuildDirectURL(cfg, domain.PaymentRequest{Amount: "10.5", OrderID: "order #7/a"}, domain.PlatformAndroid)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(u, "https://wallet.settopay.com/pay/wallet?merchant_id=shop%26co%3D1&"))
	assert.Contains(t, u, "&order_id=order+%237%2Fa")
	assert.Contains(t, u, "&callback_scheme=setto-shop%26co%3D1")

	parsed, err := url.Parse(u)
	require.NoError(t, err)
	q := parsed.Query()
	assert.Equal(t, "shop&co=1", q.Get("merchant_id"))
	assert.Equal(t, "10.5", q.Get("amount"))
	assert.Equal(t, "order #7/a", q.Get("order_id"))
	assert.Equal(t, "setto-shop&co=1", q.Get("callback_scheme"))
	assert.Empty(t, parsed.Fragment)
}

func TestBuildDirectURL_InvalidParams(t *testing.T) {
	_, err := BuildDirectURL(domain.Config{}, domain.PaymentRequest{Amount: "1"}, domain.PlatformDesktop)
	assert.ErrorIs(t, err, domain.ErrInvalidParams)

	_, err = BuildDirectURL(devConfig, domain.PaymentRequest{}, domain.PlatformDesktop)
	assert.ErrorIs(t, err, domain.ErrInvalidParams)
	assert.Equal(t, domain.ErrCodeInvalidParams, domain.CodeOf(err))
}

func TestBuildTokenURL_TokenOnlyInFragment(t *testing.T) {
	u, err := BuildTokenURL(devConfig, "tok/+=&x", domain.PlatformDesktop)
	require.NoError(t, err)
	assert.Equal(t, "https://dev-wallet.settopay.com/pay/wallet#pt=tok%2F%2B%3D%26x", u)
	assert.NotContains(t, u, "?")

	hash := strings.IndexByte(u, '#')
	require.GreaterOrEqual(t, hash, 0)
	assert.Greater(t, strings.Index(u, "tok%2F"), hash)
}

func TestBuildTokenURL_Mobile(t *testing.T) {
	u, err := BuildTokenURL(devConfig, "abc", domain.PlatformIOS)
	require.NoError(t, err)
	assert.Equal(t, "https://dev-wallet.settopay.com/pay/wallet#pt=abc&callback_scheme=setto-m1", u)

	parsed, err := url.Parse(u)
	require.NoError(t, err)
	assert.Empty(t, parsed.RawQuery)
}

func TestBuildTokenURL_EmptyToken(t *testing.T) {
	_, err := BuildTokenURL(devConfig, "", domain.PlatformDesktop)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTokenMissing)
	assert.Contains(t, domain.MessageOf(err), "PaymentToken")
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://x/pay/wallet#[redacted]", redactURL("https://x/pay/wallet#pt=secret"))
	assert.Equal(t, "https://x/pay/wallet?a=1", redactURL("https://x/pay/wallet?a=1"))
}
