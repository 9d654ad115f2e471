// Package mocks provides scriptable fakes of the engine interfaces.
package mocks

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"time"

	"github.com/alnah/go-snaphtml/engine"
)

var (
	_ engine.Engine  = (*Engine)(nil)
	_ engine.Browser = (*Browser)(nil)
	_ engine.Context = (*Context)(nil)
	_ engine.Page    = (*Page)(nil)
)

// CallLog records lifecycle calls across every fake sharing it, in order.
type CallLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *CallLog) add(call string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.calls = append(l.calls, call)
	l.mu.Unlock()
}

// Calls returns a copy of the recorded calls.
func (l *CallLog) Calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// Count returns how many times call was recorded.
func (l *CallLog) Count(call string) int {
	n := 0
	for _, c := range l.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

// Engine is a fake engine.Engine. With no funcs set it launches a Browser
// whose pages load instantly and return a PNG of the viewport size.
type Engine struct {
	Log        *CallLog
	LaunchFunc func(ctx context.Context, opts engine.LaunchOptions) (engine.Browser, error)

	// Browser is returned by Launch when LaunchFunc is nil. A fresh one is
	// created when it is nil too.
	Browser *Browser

	mu       sync.Mutex
	launches []engine.LaunchOptions
}

func (e *Engine) Name() string { return "mock" }

func (e *Engine) Launch(ctx context.Context, opts engine.LaunchOptions) (engine.Browser, error) {
	e.mu.Lock()
	e.launches = append(e.launches, opts)
	e.mu.Unlock()
	e.Log.add("launch")

	if e.LaunchFunc != nil {
		return e.LaunchFunc(ctx, opts)
	}
	if e.Browser == nil {
		e.Browser = &Browser{}
	}
	if e.Browser.Log == nil {
		e.Browser.Log = e.Log
	}
	return e.Browser, nil
}

// Launches returns the options of every Launch call.
func (e *Engine) Launches() []engine.LaunchOptions {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]engine.LaunchOptions(nil), e.launches...)
}

// Browser is a fake engine.Browser.
type Browser struct {
	Log            *CallLog
	NewContextFunc func(ctx context.Context, opts engine.ContextOptions) (engine.Context, error)
	CloseFunc      func() error

	// Context is returned by NewContext when NewContextFunc is nil.
	Context *Context

	mu          sync.Mutex
	contextOpts []engine.ContextOptions
}

func (b *Browser) NewContext(ctx context.Context, opts engine.ContextOptions) (engine.Context, error) {
	b.mu.Lock()
	b.contextOpts = append(b.contextOpts, opts)
	b.mu.Unlock()
	b.Log.add("context.new")

	if b.NewContextFunc != nil {
		return b.NewContextFunc(ctx, opts)
	}
	if b.Context == nil {
		b.Context = &Context{}
	}
	if b.Context.Log == nil {
		b.Context.Log = b.Log
	}
	b.Context.opts = opts
	return b.Context, nil
}

func (b *Browser) Close() error {
	b.Log.add("browser.close")
	if b.CloseFunc != nil {
		return b.CloseFunc()
	}
	return nil
}

// ContextOptions returns the options of every NewContext call.
func (b *Browser) ContextOptions() []engine.ContextOptions {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]engine.ContextOptions(nil), b.contextOpts...)
}

// Context is a fake engine.Context.
type Context struct {
	Log         *CallLog
	NewPageFunc func(ctx context.Context) (engine.Page, error)
	CloseFunc   func() error

	// Configure, when set, customizes every page before it is returned.
	Configure func(p *Page)

	opts  engine.ContextOptions
	mu    sync.Mutex
	pages []*Page
}

func (c *Context) NewPage(ctx context.Context) (engine.Page, error) {
	c.Log.add("page.new")
	if c.NewPageFunc != nil {
		return c.NewPageFunc(ctx)
	}

	p := &Page{Log: c.Log, Width: c.opts.Width, Height: c.opts.Height}
	if c.Configure != nil {
		c.Configure(p)
	}
	c.mu.Lock()
	c.pages = append(c.pages, p)
	c.mu.Unlock()
	return p, nil
}

func (c *Context) Close() error {
	c.Log.add("context.close")
	if c.CloseFunc != nil {
		return c.CloseFunc()
	}
	return nil
}

// Pages returns every page created by NewPage.
func (c *Context) Pages() []*Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Page(nil), c.pages...)
}

// Page is a fake engine.Page. After a successful Goto it emits Console
// messages to the registered handler, each ConsoleDelay after the previous
// one, from a separate goroutine.
type Page struct {
	Log *CallLog

	Width, Height int // size of the default screenshot

	Console      []string
	ConsoleDelay time.Duration

	GotoFunc       func(ctx context.Context, url string, wait engine.WaitPolicy) error
	ScreenshotFunc func(ctx context.Context, opts engine.ScreenshotOptions) ([]byte, error)
	CloseFunc      func() error

	mu      sync.Mutex
	handler func(string)
	url     string
	closed  bool
}

func (p *Page) OnConsoleMessage(fn func(text string)) {
	p.mu.Lock()
	p.handler = fn
	p.mu.Unlock()
}

func (p *Page) Goto(ctx context.Context, url string, wait engine.WaitPolicy) error {
	p.mu.Lock()
	p.url = url
	handler := p.handler
	p.mu.Unlock()
	p.Log.add("page.goto")

	if p.GotoFunc != nil {
		if err := p.GotoFunc(ctx, url, wait); err != nil {
			return err
		}
	}
	if handler != nil && len(p.Console) > 0 {
		msgs, delay := p.Console, p.ConsoleDelay
		go func() {
			for _, m := range msgs {
				if delay > 0 {
					select {
					case <-time.After(delay):
					case <-ctx.Done():
						return
					}
				}
				handler(m)
			}
		}()
	}
	return nil
}

func (p *Page) Screenshot(ctx context.Context, opts engine.ScreenshotOptions) ([]byte, error) {
	p.Log.add("page.screenshot")
	if p.ScreenshotFunc != nil {
		return p.ScreenshotFunc(ctx, opts)
	}
	return SolidPNG(max(p.Width, 1), max(p.Height, 1))
}

func (p *Page) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.Log.add("page.close")
	if p.CloseFunc != nil {
		return p.CloseFunc()
	}
	return nil
}

// URL returns the address passed to Goto.
func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

// Closed reports whether Close was called.
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// SolidPNG encodes a white w x h PNG.
func SolidPNG(w, h int) ([]byte, error) {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(color.White.Y >> 8)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
