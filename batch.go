package snaphtml

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
)

// RenderBatch renders every job against one browser context and returns
// one Result per job, in input order.
//
// All jobs share one viewport, resolved once from opts. Unless
// opts.Session is set, a session is opened for the call and closed after
// every job finished, whatever the outcome. Jobs run concurrently, each in
// its own page, bounded by opts.MaxConcurrency when positive.
//
// A job failure does not stop the others: it is recorded in Result.Err
// and the call returns a *BatchError alongside the full result slice.
// Errors that prevent any rendering (invalid options, browser launch)
// return a nil slice.
func (r *Renderer) RenderBatch(ctx context.Context, jobs []Job, opts *RenderOptions) (results []Result, err error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	o := opts.resolved()
	log := r.log.WithComponent("batch")

	if len(jobs) == 0 {
		return []Result{}, nil
	}

	session := o.Session
	if session != nil {
		if _, err := session.Context(); err != nil {
			return nil, err
		}
	} else {
		vp, err := ResolveViewport(o.Resolution, o.ScaleFactor, o.Fit)
		if err != nil {
			return nil, err
		}
		session, err = r.OpenSession(ctx, vp)
		if err != nil {
			return nil, err
		}
		defer func() {
			if closeErr := session.Close(); closeErr != nil {
				err = errors.Join(err, closeErr)
			}
		}()
	}

	bctx, err := session.Context()
	if err != nil {
		return nil, err
	}

	r.log.Info("Rendering %d target(s) at %s with %s", len(jobs), session.Viewport(), session.Engine())

	results = make([]Result, len(jobs))
	var g errgroup.Group
	if o.MaxConcurrency > 0 {
		g.SetLimit(o.MaxConcurrency)
	}
	for i, job := range jobs {
		g.Go(func() error {
			start := time.Now()
			img, signaled, err := r.renderPage(ctx, bctx, job, o, log)
			results[i] = Result{
				Index:      i,
				Target:     job.Target,
				OutputPath: job.OutputPath,
				Image:      img,
				Signaled:   signaled,
				Duration:   time.Since(start),
				Err:        err,
			}
			return nil
		})
	}
	_ = g.Wait()

	var failed []*Result
	for i := range results {
		if results[i].Err != nil {
			failed = append(failed, &results[i])
			log.Debug("Target %d failed: %v", i, results[i].Err)
		}
	}
	if len(failed) > 0 {
		return results, &BatchError{Total: len(results), Failed: failed}
	}
	return results, nil
}

// RenderOne renders a single job. It is a batch of one; the job's own
// error is returned unwrapped.
func (r *Renderer) RenderOne(ctx context.Context, job Job, opts *RenderOptions) ([]byte, error) {
	results, err := r.RenderBatch(ctx, []Job{job}, opts)
	if err != nil {
		if len(results) == 1 && results[0].Err != nil {
			return nil, results[0].Err
		}
		return nil, err
	}
	return results[0].Image, nil
}

// RenderOne renders job with a default Renderer.
func RenderOne(ctx context.Context, job Job, opts *RenderOptions) ([]byte, error) {
	return NewRenderer().RenderOne(ctx, job, opts)
}

// RenderBatch renders jobs with a default Renderer.
func RenderBatch(ctx context.Context, jobs []Job, opts *RenderOptions) ([]Result, error) {
	return NewRenderer().RenderBatch(ctx, jobs, opts)
}
