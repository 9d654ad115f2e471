package snaphtml

import (
	"context"
	"sync"
	"time"
)

// CompletionMessage is the console message a page logs to announce that its
// asynchronous rendering is finished.
const CompletionMessage = "RENDER_COMPLETE"

// completion is a set-once signal. fire may be called any number of times
// from any goroutine; only the first call has an effect.
type completion struct {
	once sync.Once
	ch   chan struct{}
}

func newCompletion() *completion {
	return &completion{ch: make(chan struct{})}
}

func (c *completion) fire() {
	c.once.Do(func() { close(c.ch) })
}

// observe fires the signal when text is exactly CompletionMessage.
func (c *completion) observe(text string) {
	if text == CompletionMessage {
		c.fire()
	}
}

// wait blocks until the signal fires, timeout elapses, or ctx is done.
// It reports whether the signal fired; a timeout is not an error.
func (c *completion) wait(ctx context.Context, timeout time.Duration) (bool, error) {
	select {
	case <-c.ch:
		return true, nil
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-c.ch:
		return true, nil
	case <-timer.C:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
