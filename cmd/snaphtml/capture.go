package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	flag "github.com/spf13/pflag"

	snaphtml "github.com/alnah/go-snaphtml"
	"github.com/alnah/go-snaphtml/engine"
	"github.com/alnah/go-snaphtml/internal/config"
	"github.com/alnah/go-snaphtml/internal/fileutil"
	"github.com/alnah/go-snaphtml/internal/hints"
	"github.com/alnah/go-snaphtml/internal/logger"
)

// ErrNoSource is returned when capture gets no source argument.
var ErrNoSource = errors.New("no source given")

// stdinSource reads the HTML document from standard input.
const stdinSource = "-"

// runCapture renders every source argument in one batch.
func runCapture(ctx context.Context, args []string, env *Environment) error {
	flags, sources, err := parseCaptureFlags(args, env.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		printCaptureUsage(env.Stderr)
		return fmt.Errorf("%w: pass a file path, URL, or HTML string", ErrNoSource)
	}

	log := newLogger(flags.common, env.Stderr)
	envCfg := loadEnvConfig(env.Getenv)
	if !flags.common.quiet {
		warnUnknownEnvVars(env.Stderr, env.Environ())
	}

	cfg, err := loadConfig(flags.common.config, envCfg)
	if err != nil {
		return err
	}
	applyEnvConfig(envCfg, cfg)
	mergeFlags(flags, cfg)

	eng, err := env.NewEngine(cfg.Engine, envCfg)
	if err != nil {
		return withHint(err, hints.ForChoices(config.Engines))
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	opts, err := cfg.RenderOptions()
	if err != nil {
		return err
	}

	jobs, err := buildJobs(sources, flags, cfg.Output.DefaultDir, opts.Format, env.Stdin)
	if err != nil {
		return err
	}

	r := snaphtml.NewRenderer(rendererOptions(cfg, eng, log)...)
	results, err := r.RenderBatch(ctx, jobs, &opts)
	printResults(env, results, flags.common, opts)
	if err != nil {
		return withHint(err, hintFor(err, eng.Name()))
	}
	return nil
}

// newLogger builds the CLI logger: errors only with --quiet, everything
// with --verbose, warnings otherwise.
func newLogger(f commonFlags, w io.Writer) snaphtml.Logger {
	level := logger.LevelWarn
	switch {
	case f.quiet:
		level = logger.LevelError
	case f.verbose:
		level = logger.LevelDebug
	}
	return logger.New(level, w, w, isTerminal(w))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// loadConfig loads the config named by --config, then SNAPHTML_CONFIG.
// Without either, defaults apply.
func loadConfig(flagConfig string, env *envConfig) (*config.Config, error) {
	name := flagConfig
	if name == "" {
		name = env.ConfigPath
	}
	if name == "" {
		return config.DefaultConfig(), nil
	}

	cfg, err := config.LoadConfig(name)
	if errors.Is(err, config.ErrConfigNotFound) {
		return nil, withHint(err, hints.ForConfigNotFound(config.SearchPaths(name)))
	}
	return cfg, err
}

// mergeFlags copies flags set on the command line into cfg.
func mergeFlags(f *captureFlags, cfg *config.Config) {
	set := f.changed

	if set["width"] {
		cfg.Resolution.Width = f.res.width
	}
	if set["height"] {
		cfg.Resolution.Height = f.res.height
	}
	if set["cm-width"] {
		cfg.Resolution.CMWidth = f.res.cmWidth
	}
	if set["cm-height"] {
		cfg.Resolution.CMHeight = f.res.cmHeight
	}
	if set["dpi"] {
		cfg.Resolution.DPI = f.res.dpi
	}
	if set["fit"] {
		cfg.Render.Fit = f.res.fit
	}

	if set["scale"] {
		cfg.Render.Scale = f.scale
	}
	if set["timeout"] {
		cfg.Render.Timeout = f.timeout.String()
	}
	if set["format"] {
		cfg.Render.Format = f.format
	}
	if set["quality"] {
		cfg.Render.Quality = f.quality
	}
	if set["full-page"] {
		cfg.Render.FullPage = f.fullPage
	}
	if set["max-concurrency"] {
		cfg.Render.MaxConcurrency = f.maxConcurrency
	}
	if set["keep-temp"] {
		cfg.Render.KeepTempFiles = f.keepTemp
	}

	if set["engine"] {
		cfg.Engine = f.browser.engine
	}
	if set["browser-bin"] {
		cfg.Browser.Bin = f.browser.bin
	}
	if set["no-sandbox"] {
		cfg.Browser.NoSandbox = f.browser.noSandbox
	}
	if set["headful"] {
		headless := !f.browser.headful
		cfg.Browser.Headless = &headless
	}
	if set["browser-flag"] {
		cfg.Browser.Flags = append(cfg.Browser.Flags, f.browser.extra...)
	}
}

func rendererOptions(cfg *config.Config, eng engine.Engine, log snaphtml.Logger) []snaphtml.Option {
	opts := []snaphtml.Option{
		snaphtml.WithEngine(eng),
		snaphtml.WithLogger(log),
		snaphtml.WithHeadless(cfg.Headless()),
	}
	if cfg.Browser.Bin != "" {
		opts = append(opts, snaphtml.WithBrowserBin(cfg.Browser.Bin))
	}
	if cfg.Browser.NoSandbox {
		opts = append(opts, snaphtml.WithNoSandbox())
	}
	if len(cfg.Browser.Flags) > 0 {
		opts = append(opts, snaphtml.WithBrowserFlags(cfg.Browser.Flags...))
	}
	if cfg.Render.KeepTempFiles {
		opts = append(opts, snaphtml.WithKeepTempFiles())
	}
	return opts
}

// buildJobs turns source arguments into jobs sharing the --query params.
func buildJobs(sources []string, f *captureFlags, defaultDir string, format engine.Format, stdin io.Reader) ([]snaphtml.Job, error) {
	outputs, err := outputPaths(len(sources), f.output, defaultDir, format)
	if err != nil {
		return nil, err
	}

	jobs := make([]snaphtml.Job, len(sources))
	readStdin := false
	for i, src := range sources {
		target := targetFor(src)
		if src == stdinSource {
			if readStdin {
				return nil, fmt.Errorf("%w: %q given more than once", snaphtml.ErrInvalidArgument, stdinSource)
			}
			readStdin = true
			data, err := io.ReadAll(stdin)
			if err != nil {
				return nil, fmt.Errorf("reading stdin: %w", err)
			}
			target = snaphtml.HTML(string(data))
		}
		jobs[i] = snaphtml.Job{Target: target, Query: f.query, OutputPath: outputs[i]}
	}
	return jobs, nil
}

// targetFor classifies a source argument: an existing file, an http(s)
// URL, or inline HTML.
func targetFor(source string) snaphtml.Target {
	switch {
	case fileutil.FileExists(source):
		return snaphtml.File(source)
	case fileutil.IsURL(source):
		return snaphtml.URL(source)
	default:
		return snaphtml.HTML(source)
	}
}

// outputPaths names the output of each of n sources.
//
// One source writes to output as a file, or into it as 001.<ext> when
// output is an existing directory or ends with a separator. Several
// sources always write 001.<ext>, 002.<ext>... into output. Without
// output, defaultDir is used; with neither, one source is rendered
// without writing a file and several go to the current directory.
func outputPaths(n int, output, defaultDir string, format engine.Format) ([]string, error) {
	paths := make([]string, n)
	if n == 0 {
		return paths, nil
	}

	if n == 1 && output != "" && !isDirTarget(output) {
		paths[0] = output
		return paths, nil
	}

	dir := output
	if dir == "" {
		dir = defaultDir
	}
	if dir == "" {
		if n == 1 {
			return paths, nil
		}
		dir = "."
	}
	if fileutil.FileExists(dir) {
		return nil, fmt.Errorf("%w: output %s is a file, need a directory for %d sources", snaphtml.ErrInvalidArgument, dir, n)
	}

	ext := extension(format)
	for i := range paths {
		paths[i] = filepath.Join(dir, fmt.Sprintf("%03d.%s", i+1, ext))
	}
	return paths, nil
}

func isDirTarget(path string) bool {
	if strings.HasSuffix(path, "/") || strings.HasSuffix(path, string(filepath.Separator)) {
		return true
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func extension(format engine.Format) string {
	if format == engine.FormatJPEG {
		return "jpg"
	}
	if format == "" {
		return string(engine.FormatPNG)
	}
	return string(format)
}

// printResults reports each successful render on stdout. Failures are
// reported once by the caller through the returned error.
func printResults(env *Environment, results []snaphtml.Result, f commonFlags, opts snaphtml.RenderOptions) {
	for i := range results {
		res := &results[i]
		if !res.OK() {
			continue
		}
		if f.verbose && !res.Signaled {
			fmt.Fprintf(env.Stderr, "note: %s sent no %s before the timeout%s\n",
				res.Target, snaphtml.CompletionMessage, hints.ForTimeout())
		}
		if f.quiet {
			continue
		}
		if res.OutputPath != "" {
			fmt.Fprintf(env.Stdout, "Image saved to %s\n", res.OutputPath)
		} else {
			fmt.Fprintf(env.Stdout, "Image generated (%d bytes)\n", len(res.Image))
		}
		if f.verbose {
			if w, h, err := res.Dimensions(); err == nil {
				fmt.Fprintf(env.Stderr, "  %dx%d %s in %s\n", w, h, opts.Format, res.Duration.Round(time.Millisecond))
			}
		}
	}
}

// hintFor picks the hint matching a render error.
func hintFor(err error, engineName string) string {
	switch {
	case errors.Is(err, snaphtml.ErrBrowserLaunch), errors.Is(err, snaphtml.ErrContextCreate):
		return hints.ForBrowserLaunch(engineName)
	case errors.Is(err, snaphtml.ErrNavigation):
		return hints.ForNavigation()
	case errors.Is(err, snaphtml.ErrWriteOutput):
		return hints.ForOutputDirectory()
	}
	return ""
}

// hintedError appends a hint to an error's message and keeps it
// matchable with errors.Is.
type hintedError struct {
	err  error
	hint string
}

func (e *hintedError) Error() string { return e.err.Error() + e.hint }
func (e *hintedError) Unwrap() error { return e.err }

func withHint(err error, hint string) error {
	if hint == "" {
		return err
	}
	return &hintedError{err: err, hint: hint}
}

// printError prints err as "error: <message>".
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "error: %v\n", err)
}
