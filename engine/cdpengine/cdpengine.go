// Package cdpengine implements engine.Engine on chromedp. Each engine
// Context is a separate Chrome browser context; each Page is a tab in it.
package cdpengine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/go-rod/rod/lib/launcher"

	"github.com/alnah/go-snaphtml/engine"
)

var (
	_ engine.Engine  = (*Engine)(nil)
	_ engine.Browser = (*browser)(nil)
	_ engine.Context = (*browserContext)(nil)
	_ engine.Page    = (*tab)(nil)
)

// defaultJPEGQuality is used for full-page JPEG captures without a quality.
const defaultJPEGQuality = 90

// Engine drives Chrome through chromedp's exec allocator.
type Engine struct{}

// New returns the chromedp engine.
func New() *Engine { return &Engine{} }

func (*Engine) Name() string { return "chromedp" }

// Launch resolves a Chrome binary, starts it and waits until the first
// target is attached so launch errors surface here.
func (*Engine) Launch(ctx context.Context, opts engine.LaunchOptions) (engine.Browser, error) {
	bin, err := ResolveBin(opts.BrowserBin)
	if err != nil {
		return nil, err
	}

	root, abort := context.WithCancel(context.Background())
	allocCtx, allocCancel := chromedp.NewExecAllocator(root, allocatorOptions(opts, bin)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	if err := start(browserCtx, ctx, abort); err != nil {
		browserCancel()
		allocCancel()
		abort()
		return nil, fmt.Errorf("starting chrome: %w", err)
	}

	return &browser{
		abort:       abort,
		allocCancel: allocCancel,
		ctx:         browserCtx,
		cancel:      browserCancel,
	}, nil
}

// ResolveBin returns explicit when set, else a Chrome found on the system,
// else a Chromium build downloaded into rod's cache.
func ResolveBin(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if path, ok := launcher.LookPath(); ok {
		return path, nil
	}
	path, err := launcher.NewBrowser().Get()
	if err != nil {
		return "", fmt.Errorf("downloading chromium: %w", err)
	}
	return path, nil
}

func allocatorOptions(opts engine.LaunchOptions, bin string) []chromedp.ExecAllocatorOption {
	out := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	out = append(out,
		chromedp.ExecPath(bin),
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
	)
	if opts.NoSandbox {
		out = append(out, chromedp.NoSandbox)
	}
	for _, f := range opts.ExtraFlags {
		name, values := engine.ParseFlag(f)
		if name == "" {
			continue
		}
		var value any = true
		if len(values) > 0 {
			value = strings.Join(values, ",")
		}
		out = append(out, chromedp.Flag(name, value))
	}
	return out
}

// start runs the first actions on a fresh chromedp context. chromedp ties
// the process, browser context or tab it allocates to the context of that
// first Run, so the actions run on cdp itself and caller cancellation
// reaches it through abort, which cancels an ancestor of cdp.
func start(cdp, caller context.Context, abort context.CancelFunc, actions ...chromedp.Action) error {
	stop := context.AfterFunc(caller, abort)
	err := chromedp.Run(cdp, actions...)
	if !stop() && err == nil {
		err = caller.Err()
	}
	return err
}

// bind derives a context from the chromedp context cdp that is also
// canceled when caller is done. Only for actions on an already started
// context: canceling it must not release anything chromedp allocated.
func bind(cdp, caller context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(cdp)
	stop := context.AfterFunc(caller, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

type browser struct {
	abort       context.CancelFunc
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc

	once     sync.Once
	closeErr error
}

func (b *browser) NewContext(ctx context.Context, opts engine.ContextOptions) (engine.Context, error) {
	parent, abort := context.WithCancel(b.ctx)
	cctx, cancel := chromedp.NewContext(parent, chromedp.WithNewBrowserContext())

	release := func() {
		cancel()
		abort()
	}
	if err := start(cctx, ctx, abort); err != nil {
		release()
		return nil, err
	}
	return &browserContext{ctx: cctx, cancel: release, opts: opts}, nil
}

// Close closes Chrome gracefully, then stops the allocator, which kills
// the process and removes its profile directory.
func (b *browser) Close() error {
	b.once.Do(func() {
		b.closeErr = chromedp.Cancel(b.ctx)
		b.cancel()
		b.allocCancel()
		b.abort()
	})
	return b.closeErr
}

type browserContext struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   engine.ContextOptions
}

// NewPage opens a tab in the browser context and applies the context's
// device metrics to it.
func (c *browserContext) NewPage(ctx context.Context) (engine.Page, error) {
	parent, abort := context.WithCancel(c.ctx)
	tctx, cancel := chromedp.NewContext(parent)

	release := func() {
		cancel()
		abort()
	}
	err := start(tctx, ctx, abort,
		emulation.SetDeviceMetricsOverride(int64(c.opts.Width), int64(c.opts.Height), c.opts.DeviceScaleFactor, false),
		page.SetLifecycleEventsEnabled(true),
	)
	if err != nil {
		release()
		return nil, err
	}
	return &tab{ctx: tctx, cancel: release}, nil
}

// Close disposes the browser context and its tabs.
func (c *browserContext) Close() error {
	err := chromedp.Cancel(c.ctx)
	c.cancel()
	return err
}

type tab struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func (t *tab) OnConsoleMessage(fn func(text string)) {
	chromedp.ListenTarget(t.ctx, func(ev any) {
		if e, ok := ev.(*runtime.EventConsoleAPICalled); ok {
			fn(consoleText(e))
		}
	})
}

func consoleText(e *runtime.EventConsoleAPICalled) string {
	parts := make([]string, 0, len(e.Args))
	for _, arg := range e.Args {
		if arg.Type == runtime.TypeString {
			var s string
			if err := json.Unmarshal([]byte(arg.Value), &s); err == nil {
				parts = append(parts, s)
				continue
			}
		}
		parts = append(parts, arg.Description)
	}
	return strings.Join(parts, " ")
}

// Goto navigates and, for WaitNetworkIdle, waits for Chrome's networkIdle
// lifecycle event of the new document.
func (t *tab) Goto(ctx context.Context, url string, wait engine.WaitPolicy) error {
	runCtx, stop := bind(t.ctx, ctx)
	defer stop()

	var idle <-chan struct{}
	if wait == engine.WaitNetworkIdle {
		idle = listenNetworkIdle(runCtx)
	}

	if err := chromedp.Run(runCtx, chromedp.Navigate(url)); err != nil {
		return err
	}
	if idle == nil {
		return nil
	}

	timer := time.NewTimer(engine.NetworkIdleTimeout)
	defer timer.Stop()
	select {
	case <-idle:
	case <-timer.C:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// listenNetworkIdle returns a channel closed on the first networkIdle event
// that follows an init event, i.e. belongs to the next navigation.
func listenNetworkIdle(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	var (
		mu     sync.Mutex
		loader string
		once   sync.Once
	)
	chromedp.ListenTarget(ctx, func(ev any) {
		e, ok := ev.(*page.EventLifecycleEvent)
		if !ok {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		switch e.Name {
		case "init":
			loader = string(e.LoaderID)
		case "networkIdle":
			if loader != "" && string(e.LoaderID) == loader {
				once.Do(func() { close(done) })
			}
		}
	})
	return done
}

func (t *tab) Screenshot(ctx context.Context, opts engine.ScreenshotOptions) ([]byte, error) {
	runCtx, stop := bind(t.ctx, ctx)
	defer stop()

	var buf []byte
	if opts.FullPage {
		quality, err := fullPageQuality(opts)
		if err != nil {
			return nil, err
		}
		if err := chromedp.Run(runCtx, chromedp.FullScreenshot(&buf, quality)); err != nil {
			return nil, err
		}
		return buf, nil
	}

	format, err := captureFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	err = chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		params := page.CaptureScreenshot().WithFormat(format)
		if opts.Quality > 0 && format != page.CaptureScreenshotFormatPng {
			params = params.WithQuality(int64(opts.Quality))
		}
		var err error
		buf, err = params.Do(ctx)
		return err
	}))
	return buf, err
}

func captureFormat(f engine.Format) (page.CaptureScreenshotFormat, error) {
	switch f {
	case "", engine.FormatPNG:
		return page.CaptureScreenshotFormatPng, nil
	case engine.FormatJPEG:
		return page.CaptureScreenshotFormatJpeg, nil
	case engine.FormatWebP:
		return page.CaptureScreenshotFormatWebp, nil
	default:
		return "", fmt.Errorf("%w: %s", engine.ErrUnsupportedFormat, f)
	}
}

// fullPageQuality maps a format to chromedp.FullScreenshot's quality
// argument: 100 encodes PNG, anything lower encodes JPEG.
func fullPageQuality(opts engine.ScreenshotOptions) (int, error) {
	switch opts.Format {
	case "", engine.FormatPNG:
		return 100, nil
	case engine.FormatJPEG:
		if opts.Quality > 0 && opts.Quality < 100 {
			return opts.Quality, nil
		}
		return defaultJPEGQuality, nil
	default:
		return 0, fmt.Errorf("%w: full-page %s", engine.ErrUnsupportedFormat, opts.Format)
	}
}

// Close closes the tab.
func (t *tab) Close() error {
	err := chromedp.Cancel(t.ctx)
	t.cancel()
	return err
}
