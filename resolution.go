package snaphtml

import (
	"fmt"
	"math"
	"strings"
)

// FitMode reconciles a physical content size with a pixel screen size,
// like CSS object-fit.
type FitMode string

// Fit modes. The empty FitMode means "not specified".
const (
	FitContain FitMode = "contain"
	FitCover   FitMode = "cover"
	FitFill    FitMode = "fill"
	FitNone    FitMode = "none"
)

// FitModes lists the accepted fit modes in documentation order.
var FitModes = []FitMode{FitContain, FitCover, FitFill, FitNone}

// ParseFitMode parses a fit mode name, ignoring case and surrounding space.
// The empty string parses to the empty FitMode.
func ParseFitMode(s string) (FitMode, error) {
	m := FitMode(strings.ToLower(strings.TrimSpace(s)))
	if m == "" || m.valid() {
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown fit mode %q", ErrInvalidArgument, s)
}

func (m FitMode) valid() bool {
	switch m {
	case FitContain, FitCover, FitFill, FitNone:
		return true
	}
	return false
}

// Default screen size used when a Resolution carries no dimensions.
const (
	DefaultWidth  = 1920
	DefaultHeight = 1080
)

// Resolution limits.
const (
	MaxPixelDimension = 16384 // Chrome's largest capturable surface side
	MaxCMDimension    = 500.0
	MaxDPI            = 4800
)

// Resolution describes the requested output size. Zero fields are absent.
// Pixel fields, physical fields, or both may be set; see ResolveViewport.
type Resolution struct {
	Width    int     `json:"width,omitempty" yaml:"width,omitempty"`
	Height   int     `json:"height,omitempty" yaml:"height,omitempty"`
	CMWidth  float64 `json:"cm_width,omitempty" yaml:"cm_width,omitempty"`
	CMHeight float64 `json:"cm_height,omitempty" yaml:"cm_height,omitempty"`
	DPI      int     `json:"dpi,omitempty" yaml:"dpi,omitempty"`
	Fit      FitMode `json:"object_fit,omitempty" yaml:"object_fit,omitempty"`
}

// PixelResolution returns a validated screen-pixel resolution.
func PixelResolution(width, height int) (*Resolution, error) {
	r := &Resolution{Width: width, Height: height}
	if err := r.requirePixels(); err != nil {
		return nil, err
	}
	return r, r.Validate()
}

// PhysicalResolution returns a validated print-size resolution. dpi 0
// means DefaultDPI.
func PhysicalResolution(cmWidth, cmHeight float64, dpi int) (*Resolution, error) {
	r := &Resolution{CMWidth: cmWidth, CMHeight: cmHeight, DPI: dpi}
	if err := r.requirePhysical(); err != nil {
		return nil, err
	}
	return r, r.Validate()
}

// HybridResolution returns a validated resolution carrying both a screen
// size and a physical content size reconciled by fit.
func HybridResolution(width, height int, cmWidth, cmHeight float64, dpi int, fit FitMode) (*Resolution, error) {
	r := &Resolution{Width: width, Height: height, CMWidth: cmWidth, CMHeight: cmHeight, DPI: dpi, Fit: fit}
	if err := r.requirePixels(); err != nil {
		return nil, err
	}
	if err := r.requirePhysical(); err != nil {
		return nil, err
	}
	return r, r.Validate()
}

func (r *Resolution) requirePixels() error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: width and height must be positive, got %dx%d", ErrInvalidArgument, r.Width, r.Height)
	}
	return nil
}

func (r *Resolution) requirePhysical() error {
	if r.CMWidth <= 0 || r.CMHeight <= 0 {
		return fmt.Errorf("%w: cm_width and cm_height must be positive, got %gx%g", ErrInvalidArgument, r.CMWidth, r.CMHeight)
	}
	return nil
}

// Validate rejects negative values, half-specified dimension pairs and
// unknown fit modes. A nil Resolution is valid.
func (r *Resolution) Validate() error {
	if r == nil {
		return nil
	}
	if r.Width < 0 || r.Height < 0 {
		return fmt.Errorf("%w: negative pixel size %dx%d", ErrInvalidArgument, r.Width, r.Height)
	}
	if r.Width > MaxPixelDimension || r.Height > MaxPixelDimension {
		return fmt.Errorf("%w: pixel size %dx%d exceeds %d", ErrInvalidArgument, r.Width, r.Height, MaxPixelDimension)
	}
	if !validCM(r.CMWidth) || !validCM(r.CMHeight) {
		return fmt.Errorf("%w: physical size %gx%g must be finite and within 0-%gcm", ErrInvalidArgument, r.CMWidth, r.CMHeight, MaxCMDimension)
	}
	if (r.Width > 0) != (r.Height > 0) {
		return fmt.Errorf("%w: width and height must be set together", ErrInvalidArgument)
	}
	if (r.CMWidth > 0) != (r.CMHeight > 0) {
		return fmt.Errorf("%w: cm_width and cm_height must be set together", ErrInvalidArgument)
	}
	if r.DPI < 0 || r.DPI > MaxDPI {
		return fmt.Errorf("%w: dpi must be within 0-%d, got %d", ErrInvalidArgument, MaxDPI, r.DPI)
	}
	if r.Fit != "" && !r.Fit.valid() {
		return fmt.Errorf("%w: unknown fit mode %q", ErrInvalidArgument, r.Fit)
	}
	return nil
}

func validCM(cm float64) bool {
	return cm >= 0 && cm <= MaxCMDimension
}

func (r *Resolution) hasPixels() bool {
	return r != nil && r.Width > 0 && r.Height > 0
}

func (r *Resolution) hasPhysical() bool {
	return r != nil && r.CMWidth > 0 && r.CMHeight > 0
}

func (r *Resolution) dpi() int {
	if r == nil || r.DPI == 0 {
		return DefaultDPI
	}
	return r.DPI
}

// Viewport is the rendering surface shared by every page of a batch.
type Viewport struct {
	Width             int
	Height            int
	DeviceScaleFactor float64

	// FitRatio is the contain/cover ratio applied in hybrid mode, 1 otherwise.
	FitRatio float64
}

func (v Viewport) String() string {
	return fmt.Sprintf("%dx%d@%gx", v.Width, v.Height, v.DeviceScaleFactor)
}

// ResolveViewport computes the viewport for res. fit applies when res has
// no fit mode of its own; contain applies when neither does. A nil res
// yields the 1920x1080 default.
func ResolveViewport(res *Resolution, scaleFactor float64, fit FitMode) (Viewport, error) {
	if scaleFactor <= 0 || math.IsNaN(scaleFactor) || math.IsInf(scaleFactor, 0) {
		return Viewport{}, fmt.Errorf("%w: scale factor must be positive, got %g", ErrInvalidArgument, scaleFactor)
	}
	if err := res.Validate(); err != nil {
		return Viewport{}, err
	}
	if fit != "" && !fit.valid() {
		return Viewport{}, fmt.Errorf("%w: unknown fit mode %q", ErrInvalidArgument, fit)
	}

	switch {
	case res.hasPixels() && res.hasPhysical():
		return resolveHybrid(res, scaleFactor, effectiveFit(res, fit))

	case res.hasPhysical():
		w, h, err := physicalPixels(res)
		if err != nil {
			return Viewport{}, err
		}
		return Viewport{Width: w, Height: h, DeviceScaleFactor: scaleFactor, FitRatio: 1}, nil

	case res.hasPixels():
		return Viewport{Width: res.Width, Height: res.Height, DeviceScaleFactor: scaleFactor, FitRatio: 1}, nil

	default:
		return Viewport{Width: DefaultWidth, Height: DefaultHeight, DeviceScaleFactor: scaleFactor, FitRatio: 1}, nil
	}
}

func effectiveFit(res *Resolution, fit FitMode) FitMode {
	if res != nil && res.Fit != "" {
		return res.Fit
	}
	if fit != "" {
		return fit
	}
	return FitContain
}

func physicalPixels(res *Resolution) (int, int, error) {
	w, err := CMToPixels(res.CMWidth, res.dpi())
	if err != nil {
		return 0, 0, err
	}
	h, err := CMToPixels(res.CMHeight, res.dpi())
	if err != nil {
		return 0, 0, err
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("%w: physical size %gx%gcm rounds to %dx%d pixels at %d dpi",
			ErrInvalidArgument, res.CMWidth, res.CMHeight, w, h, res.dpi())
	}
	if w > MaxPixelDimension || h > MaxPixelDimension {
		return 0, 0, fmt.Errorf("%w: physical size %gx%gcm is %dx%d pixels at %d dpi, over %d",
			ErrInvalidArgument, res.CMWidth, res.CMHeight, w, h, res.dpi(), MaxPixelDimension)
	}
	return w, h, nil
}

// resolveHybrid keeps the screen size as the viewport and folds the
// physical-to-screen ratio and the DPI normalization into the scale factor.
func resolveHybrid(res *Resolution, scaleFactor float64, fit FitMode) (Viewport, error) {
	targetW, targetH, err := physicalPixels(res)
	if err != nil {
		return Viewport{}, err
	}

	ratio := 1.0
	rw := float64(res.Width) / float64(targetW)
	rh := float64(res.Height) / float64(targetH)
	switch fit {
	case FitContain:
		ratio = math.Min(rw, rh)
	case FitCover:
		ratio = math.Max(rw, rh)
	}

	dpiScale := float64(res.dpi()) / ReferenceDPI
	return Viewport{
		Width:             res.Width,
		Height:            res.Height,
		DeviceScaleFactor: scaleFactor * ratio * dpiScale,
		FitRatio:          ratio,
	}, nil
}
