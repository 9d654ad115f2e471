package snaphtml

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alnah/go-snaphtml/engine"
)

// Session owns one browser process and one browsing context whose viewport
// is fixed for the session's lifetime. Pages opened by concurrent renders
// share the context. Close releases the context, then the browser.
type Session struct {
	mu       sync.Mutex
	engine   string
	browser  engine.Browser
	context  engine.Context
	viewport Viewport
	log      Logger
}

// OpenSession launches a browser on eng and opens a context at vp. If the
// context cannot be created the browser is closed before returning.
func OpenSession(ctx context.Context, eng engine.Engine, launch engine.LaunchOptions, vp Viewport) (*Session, error) {
	return openSession(ctx, eng, launch, vp, NopLogger())
}

func openSession(ctx context.Context, eng engine.Engine, launch engine.LaunchOptions, vp Viewport, log Logger) (*Session, error) {
	if eng == nil {
		return nil, fmt.Errorf("%w: nil engine", ErrInvalidArgument)
	}
	if vp.Width <= 0 || vp.Height <= 0 || vp.DeviceScaleFactor <= 0 {
		return nil, fmt.Errorf("%w: invalid viewport %s", ErrInvalidArgument, vp)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log.Debug("Launching %s browser (headless=%t, sandbox=%t)", eng.Name(), launch.Headless, !launch.NoSandbox)
	browser, err := eng.Launch(ctx, launch)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserLaunch, err)
	}

	bctx, err := browser.NewContext(ctx, engine.ContextOptions{
		Width:             vp.Width,
		Height:            vp.Height,
		DeviceScaleFactor: vp.DeviceScaleFactor,
	})
	if err != nil {
		if closeErr := browser.Close(); closeErr != nil {
			log.Warn("Closing browser after context failure: %v", closeErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrContextCreate, err)
	}
	log.Debug("Opened browser context at %s", vp)

	return &Session{
		engine:   eng.Name(),
		browser:  browser,
		context:  bctx,
		viewport: vp,
		log:      log,
	}, nil
}

// Context returns the session's browsing context. It fails with
// ErrSessionNotInitialized on a nil, zero or closed Session.
func (s *Session) Context() (engine.Context, error) {
	if s == nil {
		return nil, ErrSessionNotInitialized
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.context == nil {
		return nil, ErrSessionNotInitialized
	}
	return s.context, nil
}

// Viewport returns the viewport the context was opened with.
func (s *Session) Viewport() Viewport {
	if s == nil {
		return Viewport{}
	}
	return s.viewport
}

// Engine returns the name of the engine that launched the browser.
func (s *Session) Engine() string {
	if s == nil {
		return ""
	}
	return s.engine
}

// Close closes the context and then the browser. Both are attempted even
// if the first fails. Close is idempotent.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.context != nil {
		if err := s.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing browser context: %w", err))
		}
		s.context = nil
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing browser: %w", err))
		}
		s.browser = nil
		if s.log != nil {
			s.log.Debug("Browser closed")
		}
	}
	return errors.Join(errs...)
}
