// Package engine defines the browser-automation capability snaphtml renders
// through. Adapters live in subpackages: rodengine (default), cdpengine and
// pwengine.
//
// The lifecycle mirrors a headless browser: an Engine launches a Browser, the
// Browser opens isolated Contexts whose viewport and device scale factor are
// fixed at creation, and each Context opens Pages. Every Page is owned by a
// single goroutine; Contexts and Browsers must be safe for concurrent NewPage
// and NewContext calls.
package engine

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrUnsupportedFormat is returned by adapters that cannot encode a
// screenshot in the requested format.
var ErrUnsupportedFormat = errors.New("engine: unsupported screenshot format")

// Engine launches browser processes.
type Engine interface {
	// Name identifies the engine in logs and CLI output.
	Name() string

	// Launch starts one browser process.
	Launch(ctx context.Context, opts LaunchOptions) (Browser, error)
}

// Browser is one running browser process.
type Browser interface {
	// NewContext opens an isolated browsing context. Viewport and scale
	// apply to every page opened in it and never change afterwards.
	NewContext(ctx context.Context, opts ContextOptions) (Context, error)

	// Close terminates the browser process.
	Close() error
}

// Context is an isolated browsing context (incognito profile).
type Context interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Page is a single tab inside a Context.
type Page interface {
	// OnConsoleMessage registers fn for every console message the page
	// emits. Must be called before Goto. fn may run on any goroutine.
	OnConsoleMessage(fn func(text string))

	// Goto navigates to url and blocks until the wait policy is met.
	Goto(ctx context.Context, url string, wait WaitPolicy) error

	// Screenshot captures the current viewport (or full page).
	Screenshot(ctx context.Context, opts ScreenshotOptions) ([]byte, error)

	Close() error
}

// LaunchOptions configures the browser process.
type LaunchOptions struct {
	Headless   bool
	NoSandbox  bool     // required when running as root in containers
	BrowserBin string   // empty = engine default lookup
	ExtraFlags []string // raw command-line switches, without leading dashes
}

// ContextOptions fixes the rendering surface of a Context.
type ContextOptions struct {
	Width             int
	Height            int
	DeviceScaleFactor float64
}

// NetworkIdleTimeout bounds the network-idle wait of WaitNetworkIdle.
// Adapters stop waiting after it and continue without error.
const NetworkIdleTimeout = 30 * time.Second

// WaitPolicy selects when Goto returns.
type WaitPolicy int

const (
	// WaitLoad returns after the load event.
	WaitLoad WaitPolicy = iota
	// WaitNetworkIdle returns once no requests have been in flight for a
	// short quiet window (about 500ms).
	WaitNetworkIdle
)

// String returns the policy name.
func (w WaitPolicy) String() string {
	switch w {
	case WaitLoad:
		return "load"
	case WaitNetworkIdle:
		return "networkidle"
	default:
		return "unknown"
	}
}

// Format is a screenshot encoding.
type Format string

// Screenshot formats.
const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatWebP Format = "webp"
)

// ScreenshotOptions controls image capture.
type ScreenshotOptions struct {
	Format   Format // empty = png
	Quality  int    // 0-100, jpeg/webp only; 0 = engine default
	FullPage bool
}

// ParseFlag splits a raw browser switch such as "--lang=fr,de" into its
// name and values. Leading dashes are dropped; a switch without "=" or
// with an empty value has no values.
func ParseFlag(f string) (name string, values []string) {
	f = strings.TrimLeft(strings.TrimSpace(f), "-")
	name, value, ok := strings.Cut(f, "=")
	if !ok || value == "" {
		return name, nil
	}
	return name, strings.Split(value, ",")
}
