package main

import (
	"io"
	"time"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// resolutionFlags holds output size flags.
type resolutionFlags struct {
	width    int
	height   int
	cmWidth  float64
	cmHeight float64
	dpi      int
	fit      string
}

// browserFlags holds engine and launch flags.
type browserFlags struct {
	engine    string
	bin       string
	noSandbox bool
	headful   bool
	extra     []string
}

// captureFlags holds all flags for the capture command.
type captureFlags struct {
	common         commonFlags
	output         string
	res            resolutionFlags
	scale          float64
	timeout        time.Duration
	query          map[string]string
	format         string
	quality        int
	fullPage       bool
	browser        browserFlags
	keepTemp       bool
	maxConcurrency int

	// changed records flags set on the command line; only those override
	// the config file and environment.
	changed map[string]bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show browser and page progress")
}

// addResolutionFlags adds output size flags to a FlagSet.
func addResolutionFlags(fs *flag.FlagSet, f *resolutionFlags) {
	fs.IntVarP(&f.width, "width", "W", 0, "screen width in pixels")
	fs.IntVarP(&f.height, "height", "H", 0, "screen height in pixels")
	fs.Float64Var(&f.cmWidth, "cm-width", 0, "content width in centimeters")
	fs.Float64Var(&f.cmHeight, "cm-height", 0, "content height in centimeters")
	fs.IntVar(&f.dpi, "dpi", 0, "dots per inch for centimeter sizes (default 300)")
	fs.StringVar(&f.fit, "fit", "", "fit mode when both sizes are set: contain, cover, fill, none")
}

// addBrowserFlags adds engine and launch flags to a FlagSet.
func addBrowserFlags(fs *flag.FlagSet, f *browserFlags) {
	fs.StringVar(&f.engine, "engine", "", "browser engine: rod, chromedp, playwright")
	fs.StringVar(&f.bin, "browser-bin", "", "browser executable path")
	fs.BoolVar(&f.noSandbox, "no-sandbox", false, "disable the Chrome sandbox (Docker/CI)")
	fs.BoolVar(&f.headful, "headful", false, "show the browser window")
	fs.StringArrayVar(&f.extra, "browser-flag", nil, "extra browser switch, e.g. lang=fr (repeatable)")
}

// parseCaptureFlags parses capture command flags and returns positional args.
func parseCaptureFlags(args []string, stderr io.Writer) (*captureFlags, []string, error) {
	fs := flag.NewFlagSet("capture", flag.ContinueOnError)
	fs.SetOutput(stderr)
	f := &captureFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "output file, or directory for several sources")
	fs.Float64Var(&f.scale, "scale", 0, "device scale factor (default 1.5)")
	fs.DurationVarP(&f.timeout, "timeout", "t", 0, "max wait for RENDER_COMPLETE (default 10s)")
	fs.StringToStringVar(&f.query, "query", nil, "query parameter key=value added to every page (repeatable)")
	fs.StringVar(&f.format, "format", "", "image format: png, jpeg, webp")
	fs.IntVar(&f.quality, "quality", 0, "jpeg/webp quality (0-100)")
	fs.BoolVar(&f.fullPage, "full-page", false, "capture the full scrollable page")
	fs.BoolVar(&f.keepTemp, "keep-temp", false, "keep temp files written for inline HTML")
	fs.IntVarP(&f.maxConcurrency, "max-concurrency", "j", 0, "max pages rendered at once (0 = all)")

	addCommonFlags(fs, &f.common)
	addResolutionFlags(fs, &f.res)
	addBrowserFlags(fs, &f.browser)

	fs.Usage = func() { printCaptureUsage(stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	f.changed = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { f.changed[fl.Name] = true })

	return f, fs.Args(), nil
}
