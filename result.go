package snaphtml

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"time"

	_ "golang.org/x/image/webp" // register decoder
)

// Result is the outcome of one job in a batch. Exactly one of Image and Err
// is set.
type Result struct {
	Index      int // position of the job in the input
	Target     Target
	OutputPath string
	Image      []byte
	Signaled   bool // the page sent CompletionMessage before RenderTimeout
	Duration   time.Duration
	Err        error
}

// OK reports whether the job succeeded.
func (r *Result) OK() bool { return r.Err == nil }

// Dimensions decodes the image header and returns its pixel size.
func (r *Result) Dimensions() (width, height int, err error) {
	if len(r.Image) == 0 {
		return 0, 0, errors.New("no image data")
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(r.Image))
	if err != nil {
		return 0, 0, fmt.Errorf("decoding image header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
