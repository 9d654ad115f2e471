package snaphtml

import (
	"fmt"
	"math"
)

// Unit conversion constants.
const (
	CMPerInch    = 2.54
	ReferenceDPI = 96  // CSS reference pixel density
	DefaultDPI   = 300 // print density used when a physical size has no DPI
)

// CMToPixels converts a length in centimeters to pixels at dpi, rounding
// half away from zero. Lengths whose pixel count is not a finite int32 are
// rejected.
func CMToPixels(cm float64, dpi int) (int, error) {
	if dpi <= 0 {
		return 0, fmt.Errorf("%w: dpi must be positive, got %d", ErrInvalidArgument, dpi)
	}
	px := math.Round(cm / CMPerInch * float64(dpi))
	if math.IsNaN(px) || math.Abs(px) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %gcm at %d dpi is out of range", ErrInvalidArgument, cm, dpi)
	}
	return int(px), nil
}
