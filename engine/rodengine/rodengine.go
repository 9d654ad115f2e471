// Package rodengine implements engine.Engine on go-rod. Rod downloads a
// Chromium build on first use when no browser binary is given.
package rodengine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-snaphtml/engine"
	"github.com/alnah/go-snaphtml/internal/process"
)

var (
	_ engine.Engine  = (*Engine)(nil)
	_ engine.Browser = (*browser)(nil)
	_ engine.Context = (*browserContext)(nil)
	_ engine.Page    = (*page)(nil)
)

// networkIdleWindow is how long no request may be in flight before the
// network counts as idle.
const networkIdleWindow = 500 * time.Millisecond

// Engine launches Chrome through rod's launcher.
type Engine struct{}

// New returns the rod engine.
func New() *Engine { return &Engine{} }

func (*Engine) Name() string { return "rod" }

// Launch starts Chrome and connects to it over the DevTools protocol.
func (*Engine) Launch(ctx context.Context, opts engine.LaunchOptions) (engine.Browser, error) {
	l := newLauncher(opts)

	u, err := l.Context(ctx).Launch()
	if err != nil {
		l.Kill()
		l.Cleanup()
		return nil, err
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		killLauncher(l)
		return nil, err
	}
	return &browser{launcher: l, browser: b}, nil
}

func newLauncher(opts engine.LaunchOptions) *launcher.Launcher {
	l := launcher.New().
		Headless(opts.Headless).
		NoSandbox(opts.NoSandbox).
		Set("hide-scrollbars").
		Set("disable-dev-shm-usage")
	if opts.BrowserBin != "" {
		l = l.Bin(opts.BrowserBin)
	}
	for _, f := range opts.ExtraFlags {
		name, values := engine.ParseFlag(f)
		if name == "" {
			continue
		}
		l = l.Set(flags.Flag(name), values...)
	}
	return l
}

func killLauncher(l *launcher.Launcher) {
	if pid := l.PID(); pid > 0 {
		_ = process.KillTree(pid)
	}
	l.Kill()
	l.Cleanup()
}

type browser struct {
	launcher *launcher.Launcher
	browser  *rod.Browser

	once     sync.Once
	closeErr error
}

// NewContext opens an incognito browser context. CDP applies device metrics
// per page, so the options are replayed on every page. ctx bounds the call
// only; the context outlives it.
func (b *browser) NewContext(ctx context.Context, opts engine.ContextOptions) (engine.Context, error) {
	inc, err := b.browser.Context(ctx).Incognito()
	if err != nil {
		return nil, err
	}
	return &browserContext{browser: inc.Context(context.Background()), opts: opts}, nil
}

// Close closes the browser over CDP, then kills the process tree and
// removes the temporary profile.
func (b *browser) Close() error {
	b.once.Do(func() {
		b.closeErr = b.browser.Close()
		killLauncher(b.launcher)
	})
	return b.closeErr
}

type browserContext struct {
	browser *rod.Browser
	opts    engine.ContextOptions
}

func (c *browserContext) NewPage(ctx context.Context) (engine.Page, error) {
	p, err := c.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, err
	}
	if err := p.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             c.opts.Width,
		Height:            c.opts.Height,
		DeviceScaleFactor: c.opts.DeviceScaleFactor,
	}); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("setting viewport: %w", err)
	}

	listenCtx, cancel := context.WithCancel(context.Background())
	return &page{page: p.Context(context.Background()), listen: p.Context(listenCtx), cancel: cancel}, nil
}

// Close disposes the incognito context and every page in it.
func (c *browserContext) Close() error {
	return c.browser.Close()
}

type page struct {
	page   *rod.Page
	listen *rod.Page // bound to cancel; stops event subscriptions on Close
	cancel context.CancelFunc
}

func (p *page) OnConsoleMessage(fn func(text string)) {
	wait := p.listen.EachEvent(func(e *proto.RuntimeConsoleAPICalled) {
		fn(consoleText(e))
	})
	go wait()
}

// consoleText joins console arguments the way DevTools prints them.
func consoleText(e *proto.RuntimeConsoleAPICalled) string {
	parts := make([]string, 0, len(e.Args))
	for _, arg := range e.Args {
		if arg.Type == proto.RuntimeRemoteObjectTypeString {
			parts = append(parts, arg.Value.Str())
			continue
		}
		parts = append(parts, arg.Description)
	}
	return strings.Join(parts, " ")
}

func (p *page) Goto(ctx context.Context, url string, wait engine.WaitPolicy) error {
	pg := p.page.Context(ctx)

	if wait == engine.WaitNetworkIdle {
		idleCtx, cancel := context.WithTimeout(ctx, engine.NetworkIdleTimeout)
		defer cancel()
		idle := pg.Context(idleCtx).WaitRequestIdle(networkIdleWindow, nil, nil, nil)
		if err := pg.Navigate(url); err != nil {
			return err
		}
		idle()
		return ctx.Err()
	}

	if err := pg.Navigate(url); err != nil {
		return err
	}
	return pg.WaitLoad()
}

func (p *page) Screenshot(ctx context.Context, opts engine.ScreenshotOptions) ([]byte, error) {
	req := &proto.PageCaptureScreenshot{Format: proto.PageCaptureScreenshotFormatPng}
	switch opts.Format {
	case "", engine.FormatPNG:
	case engine.FormatJPEG:
		req.Format = proto.PageCaptureScreenshotFormatJpeg
	case engine.FormatWebP:
		req.Format = proto.PageCaptureScreenshotFormatWebp
	default:
		return nil, fmt.Errorf("%w: %s", engine.ErrUnsupportedFormat, opts.Format)
	}
	if opts.Quality > 0 && req.Format != proto.PageCaptureScreenshotFormatPng {
		q := opts.Quality
		req.Quality = &q
	}
	return p.page.Context(ctx).Screenshot(opts.FullPage, req)
}

func (p *page) Close() error {
	p.cancel()
	return p.page.Close()
}
