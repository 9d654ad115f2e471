// Package pwengine implements engine.Engine on playwright-go's Chromium.
//
// Playwright needs its driver and a Chromium build. Set Engine.Install to
// download them on first launch, or install them ahead of time with
//
//	go run github.com/playwright-community/playwright-go/cmd/playwright install chromium
//
// Playwright calls do not take a context. Canceling a navigation or capture
// closes the page, which aborts the pending call; a launch, context or page
// still being opened when its context ends is released once it arrives.
package pwengine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/alnah/go-snaphtml/engine"
)

var (
	_ engine.Engine  = (*Engine)(nil)
	_ engine.Browser = (*browser)(nil)
	_ engine.Context = (*browserContext)(nil)
	_ engine.Page    = (*page)(nil)
)

// Engine launches Chromium through a Playwright driver.
type Engine struct {
	// Install downloads the driver and Chromium before the first launch.
	Install bool
}

// New returns the playwright engine.
func New() *Engine { return &Engine{} }

func (*Engine) Name() string { return "playwright" }

func (e *Engine) Launch(ctx context.Context, opts engine.LaunchOptions) (engine.Browser, error) {
	run := &playwright.RunOptions{Browsers: []string{"chromium"}}
	if e.Install {
		if err := playwright.Install(run); err != nil {
			return nil, fmt.Errorf("installing playwright: %w", err)
		}
	}

	return acquire(ctx, func() (*browser, error) {
		pw, err := playwright.Run(run)
		if err != nil {
			return nil, fmt.Errorf("starting playwright driver: %w", err)
		}
		b, err := pw.Chromium.Launch(launchOptions(opts))
		if err != nil {
			_ = pw.Stop()
			return nil, err
		}
		return &browser{pw: pw, browser: b}, nil
	}, func(b *browser) { _ = b.Close() })
}

func launchOptions(opts engine.LaunchOptions) playwright.BrowserTypeLaunchOptions {
	lo := playwright.BrowserTypeLaunchOptions{
		Headless:        playwright.Bool(opts.Headless),
		ChromiumSandbox: playwright.Bool(!opts.NoSandbox),
		Args:            []string{"--hide-scrollbars"},
	}
	if opts.BrowserBin != "" {
		lo.ExecutablePath = playwright.String(opts.BrowserBin)
	}
	for _, f := range opts.ExtraFlags {
		name, values := engine.ParseFlag(f)
		if name == "" {
			continue
		}
		arg := "--" + name
		if len(values) > 0 {
			arg += "=" + strings.Join(values, ",")
		}
		lo.Args = append(lo.Args, arg)
	}
	return lo
}

// acquire runs open on its own goroutine and returns what it produced, or
// ctx.Err() once ctx is done. A resource open produces after that is handed
// to release in the background.
func acquire[T any](ctx context.Context, open func() (T, error), release func(T)) (T, error) {
	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := open()
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		go func() {
			if r := <-done; r.err == nil {
				release(r.v)
			}
		}()
		var zero T
		return zero, ctx.Err()
	}
}

// await runs fn on its own goroutine and returns its error, or ctx.Err()
// once ctx is done. abort, when set, is called on cancellation to unblock fn.
func await(ctx context.Context, fn func() error, abort func()) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if abort != nil {
			abort()
		}
		return ctx.Err()
	}
}

type browser struct {
	pw      *playwright.Playwright
	browser playwright.Browser

	once     sync.Once
	closeErr error
}

func (b *browser) NewContext(ctx context.Context, opts engine.ContextOptions) (engine.Context, error) {
	bc, err := acquire(ctx, func() (playwright.BrowserContext, error) {
		return b.browser.NewContext(playwright.BrowserNewContextOptions{
			Viewport:          &playwright.Size{Width: opts.Width, Height: opts.Height},
			DeviceScaleFactor: playwright.Float(opts.DeviceScaleFactor),
		})
	}, func(bc playwright.BrowserContext) { _ = bc.Close() })
	if err != nil {
		return nil, err
	}
	return &browserContext{context: bc}, nil
}

// Close closes Chromium and stops the driver process.
func (b *browser) Close() error {
	b.once.Do(func() {
		b.closeErr = errors.Join(b.browser.Close(), b.pw.Stop())
	})
	return b.closeErr
}

type browserContext struct {
	context playwright.BrowserContext
}

func (c *browserContext) NewPage(ctx context.Context) (engine.Page, error) {
	p, err := acquire(ctx, c.context.NewPage, func(p playwright.Page) { _ = p.Close() })
	if err != nil {
		return nil, err
	}
	return &page{page: p}, nil
}

func (c *browserContext) Close() error {
	return c.context.Close()
}

type page struct {
	page playwright.Page
}

func (p *page) OnConsoleMessage(fn func(text string)) {
	p.page.OnConsole(func(msg playwright.ConsoleMessage) {
		fn(msg.Text())
	})
}

// Goto maps WaitNetworkIdle to Playwright's networkidle state. Hitting
// engine.NetworkIdleTimeout is not an error.
func (p *page) Goto(ctx context.Context, url string, wait engine.WaitPolicy) error {
	state := playwright.WaitUntilStateLoad
	if wait == engine.WaitNetworkIdle {
		state = playwright.WaitUntilStateNetworkidle
	}
	timeout := float64(engine.NetworkIdleTimeout.Milliseconds())

	return await(ctx, func() error {
		_, err := p.page.Goto(url, playwright.PageGotoOptions{
			WaitUntil: state,
			Timeout:   playwright.Float(timeout),
		})
		if wait == engine.WaitNetworkIdle && errors.Is(err, playwright.ErrTimeout) {
			return nil
		}
		return err
	}, func() { _ = p.page.Close() })
}

func (p *page) Screenshot(ctx context.Context, opts engine.ScreenshotOptions) ([]byte, error) {
	so, err := screenshotOptions(opts)
	if err != nil {
		return nil, err
	}
	var buf []byte
	err = await(ctx, func() error {
		var err error
		buf, err = p.page.Screenshot(so)
		return err
	}, func() { _ = p.page.Close() })
	return buf, err
}

func screenshotOptions(opts engine.ScreenshotOptions) (playwright.PageScreenshotOptions, error) {
	so := playwright.PageScreenshotOptions{FullPage: playwright.Bool(opts.FullPage)}
	switch opts.Format {
	case "", engine.FormatPNG:
		so.Type = playwright.ScreenshotTypePng
	case engine.FormatJPEG:
		so.Type = playwright.ScreenshotTypeJpeg
		if opts.Quality > 0 {
			so.Quality = playwright.Int(opts.Quality)
		}
	default:
		return so, fmt.Errorf("%w: %s", engine.ErrUnsupportedFormat, opts.Format)
	}
	return so, nil
}

func (p *page) Close() error {
	if p.page.IsClosed() {
		return nil
	}
	return p.page.Close()
}
