package snaphtml

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for library operations.
var (
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrSessionNotInitialized = errors.New("render session not initialized")

	// Browser lifecycle errors.
	ErrBrowserLaunch = errors.New("failed to launch browser")
	ErrContextCreate = errors.New("failed to create browser context")
	ErrPageCreate    = errors.New("failed to create browser page")

	// Per-target render errors.
	ErrNavigation  = errors.New("failed to load page")
	ErrScreenshot  = errors.New("failed to capture screenshot")
	ErrWriteOutput = errors.New("failed to write output")
)

// BatchError reports the jobs of a batch that failed. The per-job errors
// are also available on each Result.
type BatchError struct {
	Total  int
	Failed []*Result
}

func (e *BatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d of %d renders failed", len(e.Failed), e.Total)
	for _, r := range e.Failed {
		fmt.Fprintf(&b, "\n  [%d] %s: %v", r.Index, r.Target, r.Err)
	}
	return b.String()
}

// Unwrap exposes every per-job error to errors.Is and errors.As.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Failed))
	for i, r := range e.Failed {
		errs[i] = r.Err
	}
	return errs
}
