package snaphtml

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alnah/go-snaphtml/engine"
	"github.com/alnah/go-snaphtml/engine/rodengine"
)

// Defaults applied to zero RenderOptions fields.
const (
	DefaultScaleFactor   = 1.5
	DefaultRenderTimeout = 10 * time.Second
)

// Renderer renders jobs through a browser engine. It holds configuration
// only; browsers live in Sessions. A Renderer is safe for concurrent use.
type Renderer struct {
	engine   engine.Engine
	launch   engine.LaunchOptions
	tempDir  string
	keepTemp bool
	log      Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// NewRenderer returns a Renderer on the go-rod engine, headless, with the
// browser sandbox enabled.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		engine: rodengine.New(),
		launch: engine.LaunchOptions{Headless: true},
		log:    NopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithEngine selects the browser engine.
// Panics if e is nil (programmer error).
func WithEngine(e engine.Engine) Option {
	if e == nil {
		panic("snaphtml: WithEngine engine must not be nil")
	}
	return func(r *Renderer) { r.engine = e }
}

// WithNoSandbox disables the Chrome sandbox, which containers running as
// root require.
func WithNoSandbox() Option {
	return func(r *Renderer) { r.launch.NoSandbox = true }
}

// WithBrowserBin uses the browser executable at path instead of the
// engine's own lookup.
func WithBrowserBin(path string) Option {
	return func(r *Renderer) { r.launch.BrowserBin = path }
}

// WithHeadless toggles headless mode. Headful mode is for debugging.
func WithHeadless(headless bool) Option {
	return func(r *Renderer) { r.launch.Headless = headless }
}

// WithBrowserFlags appends raw command-line switches (without dashes).
func WithBrowserFlags(flags ...string) Option {
	return func(r *Renderer) { r.launch.ExtraFlags = append(r.launch.ExtraFlags, flags...) }
}

// WithLogger routes progress messages to l.
func WithLogger(l Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.log = l
		}
	}
}

// WithTempDir sets where inline documents are written (os.TempDir when empty).
func WithTempDir(dir string) Option {
	return func(r *Renderer) { r.tempDir = dir }
}

// WithKeepTempFiles keeps inline-document temp files after rendering.
func WithKeepTempFiles() Option {
	return func(r *Renderer) { r.keepTemp = true }
}

// EngineName returns the configured engine's name.
func (r *Renderer) EngineName() string { return r.engine.Name() }

// OpenSession launches a browser with the Renderer's settings and opens a
// context at vp. The caller must Close the session.
func (r *Renderer) OpenSession(ctx context.Context, vp Viewport) (*Session, error) {
	return openSession(ctx, r.engine, r.launch, vp, r.log.WithComponent("session"))
}

// WithSession opens a session at vp, runs fn, and closes the session
// whatever fn returns.
func (r *Renderer) WithSession(ctx context.Context, vp Viewport, fn func(*Session) error) (err error) {
	s, err := r.OpenSession(ctx, vp)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, s.Close())
	}()
	return fn(s)
}

// RenderOptions are per-call settings. The zero value renders PNG at the
// 1920x1080 default with scale 1.5 and a 10s completion timeout.
type RenderOptions struct {
	Resolution    *Resolution
	ScaleFactor   float64       // 0 = DefaultScaleFactor
	RenderTimeout time.Duration // 0 = DefaultRenderTimeout
	Fit           FitMode       // used when Resolution.Fit is empty

	// Session is reused instead of launching a browser. It is never closed
	// by the call, and its viewport overrides Resolution.
	Session *Session

	Format   engine.Format // empty = png
	Quality  int           // 0-100, jpeg and webp only
	FullPage bool

	// MaxConcurrency caps pages in flight within a batch; 0 = no cap.
	MaxConcurrency int
}

// Validate checks ranges. A nil RenderOptions is valid.
func (o *RenderOptions) Validate() error {
	if o == nil {
		return nil
	}
	if o.ScaleFactor < 0 {
		return fmt.Errorf("%w: scale factor must be positive, got %g", ErrInvalidArgument, o.ScaleFactor)
	}
	if o.RenderTimeout < 0 {
		return fmt.Errorf("%w: render timeout must be positive, got %s", ErrInvalidArgument, o.RenderTimeout)
	}
	if o.Fit != "" && !o.Fit.valid() {
		return fmt.Errorf("%w: unknown fit mode %q", ErrInvalidArgument, o.Fit)
	}
	switch o.Format {
	case "", engine.FormatPNG, engine.FormatJPEG, engine.FormatWebP:
	default:
		return fmt.Errorf("%w: unknown image format %q", ErrInvalidArgument, o.Format)
	}
	if o.Quality < 0 || o.Quality > 100 {
		return fmt.Errorf("%w: quality must be 0-100, got %d", ErrInvalidArgument, o.Quality)
	}
	if o.MaxConcurrency < 0 {
		return fmt.Errorf("%w: max concurrency must not be negative, got %d", ErrInvalidArgument, o.MaxConcurrency)
	}
	return o.Resolution.Validate()
}

// resolved returns a copy with defaults filled in.
func (o *RenderOptions) resolved() RenderOptions {
	var out RenderOptions
	if o != nil {
		out = *o
	}
	if out.ScaleFactor == 0 {
		out.ScaleFactor = DefaultScaleFactor
	}
	if out.RenderTimeout == 0 {
		out.RenderTimeout = DefaultRenderTimeout
	}
	if out.Format == "" {
		out.Format = engine.FormatPNG
	}
	return out
}

func (o RenderOptions) screenshot() engine.ScreenshotOptions {
	return engine.ScreenshotOptions{Format: o.Format, Quality: o.Quality, FullPage: o.FullPage}
}
