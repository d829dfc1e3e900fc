package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// SignatureHeader carries the HMAC of a host request: ts=<unix>,v1=<hex>.
const SignatureHeader = "X-Setto-Signature"

// DefaultSignatureTolerance bounds the clock skew accepted on callback timestamps.
const DefaultSignatureTolerance = 5 * time.Minute

var (
	tsPattern = regexp.MustCompile(`ts=([^,]+)`)
	v1Pattern = regexp.MustCompile(`v1=([^,]+)`)
)

// SignatureValidator checks callback signatures produced by the host.
//
// The signature is HMAC-SHA256 of: request-id:<x-request-id>;ts:<ts>;body:<sha256(body)>;
type SignatureValidator struct {
	secret    string
	tolerance time.Duration
	now       func() time.Time
}

// NewSignatureValidator creates a validator for secret.
func NewSignatureValidator(secret string) *SignatureValidator {
	return &SignatureValidator{
		secret:    secret,
		tolerance: DefaultSignatureTolerance,
		now:       time.Now,
	}
}

// Validate reports whether header is a valid, fresh signature of body.
func (v *SignatureValidator) Validate(header, requestID string, body []byte) bool {
	if header == "" || v.secret == "" {
		return false
	}

	ts, sig := parseSignatureHeader(header)
	if ts == "" || sig == "" {
		return false
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false
	}
	skew := v.now().Sub(time.Unix(unix, 0))
	if skew < -v.tolerance || skew > v.tolerance {
		return false
	}

	expected := calculateHMAC(buildManifest(requestID, ts, body), v.secret)
	return hmac.Equal([]byte(sig), []byte(expected))
}

// SignCallback returns the X-Setto-Signature value for body.
func SignCallback(secret, requestID string, ts time.Time, body []byte) string {
	unix := strconv.FormatInt(ts.Unix(), 10)
	return "ts=" + unix + ",v1=" + calculateHMAC(buildManifest(requestID, unix, body), secret)
}

func parseSignatureHeader(header string) (ts, sig string) {
	if m := tsPattern.FindStringSubmatch(header); len(m) > 1 {
		ts = strings.TrimSpace(m[1])
	}
	if m := v1Pattern.FindStringSubmatch(header); len(m) > 1 {
		sig = strings.TrimSpace(m[1])
	}
	return ts, sig
}

func buildManifest(requestID, ts string, body []byte) string {
	var parts []string
	if requestID != "" {
		parts = append(parts, "request-id:"+requestID)
	}
	parts = append(parts, "ts:"+ts)

	sum := sha256.Sum256(body)
	parts = append(parts, "body:"+hex.EncodeToString(sum[:]))

	return strings.Join(parts, ";") + ";"
}

func calculateHMAC(manifest, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(manifest))
	return hex.EncodeToString(h.Sum(nil))
}
