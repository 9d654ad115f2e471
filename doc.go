// Package snaphtml renders HTML into raster images using a headless browser.
//
// # Quick Start
//
// Render a page and write it to disk:
//
//	img, err := snaphtml.RenderOne(ctx, snaphtml.Job{
//	    Target:     snaphtml.URL("https://example.com"),
//	    OutputPath: "example.png",
//	}, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Targets come in three kinds: URL for remote pages, File for local HTML
// files, and HTML for inline markup. Document builds inline markup from a
// body, head and stylesheet.
//
// # Sizing
//
// The viewport is sized in device pixels, in physical centimeters at a DPI,
// or both. When both are given the physical size is the content's natural
// size and the pixel size is the screen; the fit mode (contain, cover, fill,
// none) decides how the device scale factor reconciles the two:
//
//	res, err := snaphtml.HybridResolution(1200, 800, 21.0, 29.7, 300, snaphtml.FitContain)
//	img, err := r.RenderOne(ctx, job, &snaphtml.RenderOptions{Resolution: res})
//
// ResolveViewport exposes the computation without launching a browser.
//
// # Render Completion
//
// Every page is loaded until the network goes idle. Pages that keep drawing
// after that (charts, lazy widgets) call
//
//	console.log("RENDER_COMPLETE")
//
// when they are done. The renderer waits for that message for at most
// RenderOptions.RenderTimeout (10s by default) and captures the screenshot
// either way. The timeout is a fallback, never an error.
//
// # Batches and Sessions
//
// RenderBatch launches one browser, opens one context at the batch viewport,
// and renders every job in its own page concurrently. Results are returned
// in input order; failed jobs carry Result.Err and the call returns a
// *BatchError. The browser is always torn down before RenderBatch returns.
//
// To amortize browser startup across several batches, open a Session and
// pass it in RenderOptions.Session. Injected sessions are never closed by
// the renderer:
//
//	r := snaphtml.NewRenderer()
//	err := r.WithSession(ctx, vp, func(s *snaphtml.Session) error {
//	    _, err := r.RenderBatch(ctx, jobs, &snaphtml.RenderOptions{Session: s})
//	    return err
//	})
//
// # Engines
//
// The browser is driven through the engine package. The default engine is
// rodengine (go-rod); cdpengine (chromedp) and pwengine (playwright-go) are
// selected with WithEngine.
package snaphtml
