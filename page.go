package snaphtml

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alnah/go-snaphtml/engine"
	"github.com/alnah/go-snaphtml/internal/fileutil"
)

// renderPage renders one job in its own page of bctx:
//
//  1. resolve the target to a URL and merge the job's query parameters
//  2. open a page and listen for CompletionMessage
//  3. navigate and wait for network idle
//  4. wait for the completion signal, at most opts.RenderTimeout
//  5. capture, write OutputPath if set, close the page
//
// signaled reports whether the page sent CompletionMessage in time.
// Inline-document temp files are removed after the page is closed.
func (r *Renderer) renderPage(ctx context.Context, bctx engine.Context, job Job, opts RenderOptions, log Logger) (img []byte, signaled bool, err error) {
	if err := job.Target.Validate(); err != nil {
		return nil, false, err
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	addr, cleanup, err := job.Target.address(r.tempDir)
	if err != nil {
		return nil, false, err
	}
	if r.keepTemp {
		cleanup = func() {}
	}
	defer cleanup()

	addr, err = MergeQuery(addr, job.Query)
	if err != nil {
		return nil, false, err
	}

	page, err := bctx.NewPage(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, false, ctxErr
		}
		return nil, false, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.Warn("Closing page for %s: %v", job.Target, err)
		}
	}()

	done := newCompletion()
	page.OnConsoleMessage(done.observe)

	start := time.Now()
	log.Debug("Navigating to %s", redact(addr))
	if err := page.Goto(ctx, addr, engine.WaitNetworkIdle); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, false, ctxErr
		}
		return nil, false, fmt.Errorf("%w: %s: %v", ErrNavigation, job.Target, err)
	}

	signaled, err = done.wait(ctx, opts.RenderTimeout)
	if err != nil {
		return nil, false, err
	}
	if signaled {
		log.Debug("Render complete signal after %s", time.Since(start).Round(time.Millisecond))
	} else {
		log.Debug("No render complete signal within %s, capturing anyway", opts.RenderTimeout)
	}

	img, err = page.Screenshot(ctx, opts.screenshot())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, false, ctxErr
		}
		return nil, false, fmt.Errorf("%w: %v", ErrScreenshot, err)
	}

	if job.OutputPath != "" {
		if err := writeOutput(job.OutputPath, img); err != nil {
			return nil, false, err
		}
		log.Debug("Wrote %d bytes to %s", len(img), job.OutputPath)
	}
	return img, signaled, nil
}

func writeOutput(path string, data []byte) error {
	if err := fileutil.EnsureParentDir(path); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	if err := os.WriteFile(path, data, fileutil.FilePermissions); err != nil { // #nosec G306 -- images are meant to be shared
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	return nil
}

// redact shortens long inline addresses for logs.
func redact(addr string) string {
	const limit = 200
	if len(addr) <= limit {
		return addr
	}
	return addr[:limit] + "..."
}
