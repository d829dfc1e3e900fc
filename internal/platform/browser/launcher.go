// Package browser implements domain.Launcher for the surfaces a payment can be
// opened on: the operating system browser, a host-provided in-app surface, and
// a relay that hands the URL to an embedding webview.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"

	pkgbrowser "github.com/pkg/browser"

	"github.com/setto/setto-payments/internal/domain"
)

// ErrNoURL is returned when Launch is called with an empty URL.
var ErrNoURL = errors.New("no URL to open")

// Runner hands a URL to the operating system without waiting for the
// browser to exit.
type Runner func(url string) error

// SystemBrowser opens payments in the OS default browser. The browser cannot
// be closed from here, so Close is a no-op.
type SystemBrowser struct {
	platform domain.Platform
	run      Runner
}

// NewSystemBrowser creates a launcher for desktop-like platforms.
func NewSystemBrowser(platform domain.Platform) *SystemBrowser {
	return &SystemBrowser{platform: platform, run: pkgbrowser.OpenURL}
}

// WithRunner replaces the default opener.
func (b *SystemBrowser) WithRunner(run Runner) *SystemBrowser {
	b.run = run
	return b
}

// Launch opens url. The browser outlives the payment, so it is not tied to ctx.
func (b *SystemBrowser) Launch(_ context.Context, url string) error {
	if url == "" {
		return ErrNoURL
	}
	if err := b.run(url); err != nil {
		return fmt.Errorf("open browser: %w", err)
	}
	return nil
}

// Close is a no-op.
func (b *SystemBrowser) Close() error { return nil }

// Platform returns the configured platform.
func (b *SystemBrowser) Platform() domain.Platform { return b.platform }

// Host is an in-app browser surface provided by the embedding application,
// such as a mobile custom tab or a webview.
type Host interface {
	OpenURL(ctx context.Context, url string) error
	Dismiss() error
}

// HostSurface adapts a Host to domain.Launcher.
type HostSurface struct {
	host     Host
	platform domain.Platform

	mu   sync.Mutex
	open bool
}

// NewHostSurface creates a launcher that opens payments through host.
func NewHostSurface(host Host, platform domain.Platform) *HostSurface {
	return &HostSurface{host: host, platform: platform}
}

// Launch opens url on the host surface.
func (s *HostSurface) Launch(ctx context.Context, url string) error {
	if url == "" {
		return ErrNoURL
	}
	if err := s.host.OpenURL(ctx, url); err != nil {
		return err
	}
	s.mu.Lock()
	s.open = true
	s.mu.Unlock()
	return nil
}

// Close dismisses the surface if it is open.
func (s *HostSurface) Close() error {
	s.mu.Lock()
	wasOpen := s.open
	s.open = false
	s.mu.Unlock()

	if !wasOpen {
		return nil
	}
	return s.host.Dismiss()
}

// Platform returns the configured platform.
func (s *HostSurface) Platform() domain.Platform { return s.platform }

// Relay does not open anything itself. It keeps the latest URL so that a
// webview polling the bridge can open it, and clears it on Close.
type Relay struct {
	platform domain.Platform

	mu  sync.Mutex
	url string
}

// NewRelay creates a relay launcher.
func NewRelay(platform domain.Platform) *Relay {
	return &Relay{platform: platform}
}

// Launch stores url.
func (r *Relay) Launch(_ context.Context, url string) error {
	if url == "" {
		return ErrNoURL
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.url = url
	return nil
}

// Close forgets the stored URL.
func (r *Relay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.url = ""
	return nil
}

// Platform returns the configured platform.
func (r *Relay) Platform() domain.Platform { return r.platform }

// Take returns the pending URL and clears it, so each launch is handed out
// once. The URL may carry a payment token.
func (r *Relay) Take() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.url
	r.url = ""
	return u, u != ""
}
