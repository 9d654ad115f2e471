//go:build integration

package snaphtml

// Notes:
// - Every test runs once per engine: rod, chromedp and playwright. A Chrome or
//   Chromium binary must be found by rod's launcher lookup (or named by
//   SNAPHTML_BROWSER_BIN), otherwise every test is skipped; the same binary
//   is handed to all three engines.
// - The playwright subtests are skipped when its driver is not installed.
//   Any other launch failure fails the test.
// - SNAPHTML_NO_SANDBOX=1 is honored for containers running as root.

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher"

	"github.com/alnah/go-snaphtml/engine"
	"github.com/alnah/go-snaphtml/engine/cdpengine"
	"github.com/alnah/go-snaphtml/engine/pwengine"
	"github.com/alnah/go-snaphtml/engine/rodengine"
)

// testTimeout bounds every integration test.
const testTimeout = 60 * time.Second

var integrationViewport = Viewport{Width: 320, Height: 240, DeviceScaleFactor: 1, FitRatio: 1}

// integrationEngine is one adapter under test. launchErr is computed once
// per test binary by launching and closing a browser.
type integrationEngine struct {
	name      string
	new       func() engine.Engine
	launchErr func() error
}

var integrationEngines = []*integrationEngine{
	newIntegrationEngine("rod", func() engine.Engine { return rodengine.New() }),
	newIntegrationEngine("chromedp", func() engine.Engine { return cdpengine.New() }),
	newIntegrationEngine("playwright", func() engine.Engine { return pwengine.New() }),
}

func newIntegrationEngine(name string, newEngine func() engine.Engine) *integrationEngine {
	ie := &integrationEngine{name: name, new: newEngine}
	ie.launchErr = sync.OnceValue(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()
		b, err := newEngine().Launch(ctx, integrationLaunchOptions())
		if err != nil {
			return err
		}
		return b.Close()
	})
	return ie
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// integrationBrowser returns the browser binary to test with, or "".
func integrationBrowser() string {
	if bin := os.Getenv("SNAPHTML_BROWSER_BIN"); bin != "" {
		return bin
	}
	bin, _ := launcher.LookPath()
	return bin
}

func integrationLaunchOptions() engine.LaunchOptions {
	return engine.LaunchOptions{
		Headless:   true,
		NoSandbox:  os.Getenv("SNAPHTML_NO_SANDBOX") == "1",
		BrowserBin: integrationBrowser(),
	}
}

// forEachEngine runs fn as a subtest per engine, with a renderer on it.
func forEachEngine(t *testing.T, fn func(t *testing.T, r *Renderer)) {
	t.Helper()

	if integrationBrowser() == "" {
		t.Skip("no Chrome/Chromium found")
	}
	for _, ie := range integrationEngines {
		t.Run(ie.name, func(t *testing.T) {
			if err := ie.launchErr(); err != nil {
				if ie.name == "playwright" && strings.Contains(err.Error(), "install the driver") {
					t.Skipf("playwright driver not installed: %v", err)
				}
				t.Fatalf("%s cannot launch a browser: %v", ie.name, err)
			}

			lo := integrationLaunchOptions()
			opts := []Option{WithEngine(ie.new()), WithTempDir(t.TempDir()), WithBrowserBin(lo.BrowserBin)}
			if lo.NoSandbox {
				opts = append(opts, WithNoSandbox())
			}
			fn(t, NewRenderer(opts...))
		})
	}
}

func integrationContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	t.Cleanup(cancel)
	return ctx
}

// signalAfter returns a document that logs CompletionMessage after d.
func signalAfter(d time.Duration) Target {
	return Document{
		Body: `<p id="out">pending</p>`,
		Head: fmt.Sprintf(`<script>
setTimeout(() => {
  document.getElementById("out").textContent = "done";
  console.log(%q);
}, %d);
</script>`, CompletionMessage, d.Milliseconds()),
	}.Target()
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestIntegration_PixelViewport(t *testing.T) {
	forEachEngine(t, func(t *testing.T, r *Renderer) {
		ctx := integrationContext(t)

		results, err := r.RenderBatch(ctx, []Job{{Target: HTML("<h1>pixels</h1>")}}, &RenderOptions{
			Resolution:    &Resolution{Width: 400, Height: 300},
			ScaleFactor:   2,
			RenderTimeout: 200 * time.Millisecond,
		})
		if err != nil {
			t.Fatalf("RenderBatch() error = %v", err)
		}

		w, h, err := results[0].Dimensions()
		if err != nil {
			t.Fatalf("Dimensions() error = %v", err)
		}
		if w != 800 || h != 600 {
			t.Errorf("image = %dx%d, want 800x600 (400x300 at scale 2)", w, h)
		}
	})
}

func TestIntegration_PhysicalViewport(t *testing.T) {
	forEachEngine(t, func(t *testing.T, r *Renderer) {
		ctx := integrationContext(t)

		res, err := PhysicalResolution(2.54, 5.08, 96)
		if err != nil {
			t.Fatal(err)
		}
		results, err := r.RenderBatch(ctx, []Job{{Target: HTML("<p>cm</p>")}}, &RenderOptions{
			Resolution:    res,
			ScaleFactor:   1,
			RenderTimeout: 200 * time.Millisecond,
		})
		if err != nil {
			t.Fatalf("RenderBatch() error = %v", err)
		}

		w, h, err := results[0].Dimensions()
		if err != nil {
			t.Fatalf("Dimensions() error = %v", err)
		}
		if w != 96 || h != 192 {
			t.Errorf("image = %dx%d, want 96x192", w, h)
		}
	})
}

func TestIntegration_SessionReuse(t *testing.T) {
	forEachEngine(t, func(t *testing.T, r *Renderer) {
		ctx := integrationContext(t)

		session, err := r.OpenSession(ctx, integrationViewport)
		if err != nil {
			t.Fatalf("OpenSession() error = %v", err)
		}
		t.Cleanup(func() { _ = session.Close() })

		t.Run("signal after delay", func(t *testing.T) {
			const delay = 400 * time.Millisecond
			opts := &RenderOptions{Session: session, RenderTimeout: 10 * time.Second}

			start := time.Now()
			results, err := r.RenderBatch(ctx, []Job{{Target: signalAfter(delay)}}, opts)
			elapsed := time.Since(start)
			if err != nil {
				t.Fatalf("RenderBatch() error = %v", err)
			}
			if !results[0].Signaled {
				t.Error("Signaled = false, want true")
			}
			if elapsed < delay {
				t.Errorf("elapsed %s < delay %s", elapsed, delay)
			}
			if elapsed > 8*time.Second {
				t.Errorf("elapsed %s: signal not observed before the timeout", elapsed)
			}
		})

		t.Run("no signal waits for timeout", func(t *testing.T) {
			const timeout = 700 * time.Millisecond
			opts := &RenderOptions{Session: session, RenderTimeout: timeout}

			start := time.Now()
			results, err := r.RenderBatch(ctx, []Job{{Target: HTML("<p>silent</p>")}}, opts)
			if err != nil {
				t.Fatalf("RenderBatch() error = %v, want nil", err)
			}
			if elapsed := time.Since(start); elapsed < timeout {
				t.Errorf("elapsed %s < timeout %s", elapsed, timeout)
			}
			if results[0].Signaled || len(results[0].Image) == 0 {
				t.Errorf("result = signaled %v, %d bytes", results[0].Signaled, len(results[0].Image))
			}
		})

		t.Run("same document twice", func(t *testing.T) {
			doc := Document{Body: "<p>x</p>", Head: "<title>t</title>", CSS: "p{color:red}"}.Target()
			opts := &RenderOptions{Session: session, RenderTimeout: 100 * time.Millisecond}

			results, err := r.RenderBatch(ctx, []Job{{Target: doc}, {Target: doc}}, opts)
			if err != nil {
				t.Fatalf("RenderBatch() error = %v", err)
			}
			w1, h1, err1 := results[0].Dimensions()
			w2, h2, err2 := results[1].Dimensions()
			if err1 != nil || err2 != nil {
				t.Fatalf("decode errors: %v, %v", err1, err2)
			}
			if w1 != w2 || h1 != h2 || w1 != integrationViewport.Width {
				t.Errorf("sizes %dx%d and %dx%d, want both %dx%d", w1, h1, w2, h2, integrationViewport.Width, integrationViewport.Height)
			}
		})

		t.Run("query reaches the page", func(t *testing.T) {
			target := Document{Head: fmt.Sprintf(`<script>
if (new URLSearchParams(location.search).get("ready") === "yes") console.log(%q);
</script>`, CompletionMessage)}.Target()
			opts := &RenderOptions{Session: session, RenderTimeout: 3 * time.Second}

			results, err := r.RenderBatch(ctx, []Job{{Target: target, Query: map[string]string{"ready": "yes"}}}, opts)
			if err != nil {
				t.Fatalf("RenderBatch() error = %v", err)
			}
			if !results[0].Signaled {
				t.Error("page did not see the merged query parameter")
			}
		})
	})
}

func TestIntegration_SessionClosesAfterOpeningContextEnds(t *testing.T) {
	forEachEngine(t, func(t *testing.T, r *Renderer) {
		ctx, cancel := context.WithCancel(integrationContext(t))

		session, err := r.OpenSession(ctx, integrationViewport)
		if err != nil {
			cancel()
			t.Fatalf("OpenSession() error = %v", err)
		}
		opts := &RenderOptions{Session: session, RenderTimeout: 100 * time.Millisecond}
		if _, err := r.RenderBatch(ctx, []Job{{Target: HTML("<p>once</p>")}}, opts); err != nil {
			t.Errorf("RenderBatch() error = %v", err)
		}
		cancel()

		if err := session.Close(); err != nil {
			t.Errorf("Close() after context ended = %v, want nil", err)
		}
	})
}

func TestIntegration_CanceledRenderReturnsPromptly(t *testing.T) {
	forEachEngine(t, func(t *testing.T, r *Renderer) {
		session, err := r.OpenSession(integrationContext(t), integrationViewport)
		if err != nil {
			t.Fatalf("OpenSession() error = %v", err)
		}
		t.Cleanup(func() { _ = session.Close() })

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		start := time.Now()
		_, err = r.RenderBatch(ctx, []Job{{Target: HTML("<p>never signals</p>")}}, &RenderOptions{
			Session:       session,
			RenderTimeout: 30 * time.Second,
		})
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("RenderBatch() error = %v, want context.DeadlineExceeded", err)
		}
		if elapsed := time.Since(start); elapsed > 10*time.Second {
			t.Errorf("RenderBatch() took %s after cancellation", elapsed)
		}
	})
}

func TestIntegration_URLAndOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprintf(w, `<html><body><p>%s</p><script>console.log(%q)</script></body></html>`,
			req.URL.Query().Get("name"), CompletionMessage)
	}))
	t.Cleanup(srv.Close)

	forEachEngine(t, func(t *testing.T, r *Renderer) {
		ctx := integrationContext(t)

		out := filepath.Join(t.TempDir(), "nested", "page.png")
		results, err := r.RenderBatch(ctx, []Job{{
			Target:     URL(srv.URL + "/?name=alice"),
			Query:      map[string]string{"name": "bob"},
			OutputPath: out,
		}}, &RenderOptions{Resolution: &Resolution{Width: 200, Height: 100}, ScaleFactor: 1})
		if err != nil {
			t.Fatalf("RenderBatch() error = %v", err)
		}
		if !results[0].Signaled {
			t.Error("Signaled = false for a page that logs immediately")
		}
		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatalf("output not written: %v", err)
		}
		if len(data) != len(results[0].Image) {
			t.Errorf("file has %d bytes, result %d", len(data), len(results[0].Image))
		}
	})
}
