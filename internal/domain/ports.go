package domain

import "context"

// TokenIssuer exchanges payment details and an auto-login credential for a
// single-use payment token.
type TokenIssuer interface {
	// IssueToken performs exactly one round trip. Failures are *PaymentError
	// values classified as ErrTransportFailure or ErrTokenMissing.
	IssueToken(ctx context.Context, req TokenRequest) (PaymentToken, error)
}

// Launcher opens the payment URL on a platform surface (system browser,
// in-app browser, webview). Results never come back through Launch; they are
// delivered later through one of the orchestrator's result channels.
type Launcher interface {
	// Launch opens url. It must not block until the payment finishes.
	Launch(ctx context.Context, url string) error

	// Close dismisses the surface if the platform allows it.
	Close() error

	// Platform reports the surface kind, used to decide on callback_scheme.
	Platform() Platform
}
