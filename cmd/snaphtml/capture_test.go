package main

// Notes:
// - runCapture runs end to end against the mock engine; pixel output is
//   the mock's solid PNG, so only sizes, paths and messages are asserted.
// - Tests that set Getenv never touch the real process environment.

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	snaphtml "github.com/alnah/go-snaphtml"
	"github.com/alnah/go-snaphtml/engine"
	"github.com/alnah/go-snaphtml/internal/config"
	"github.com/alnah/go-snaphtml/internal/mocks"
)

// ---------------------------------------------------------------------------
// TestRunCapture - End-to-end against the mock engine
// ---------------------------------------------------------------------------

func TestRunCapture_WritesFile(t *testing.T) {
	t.Parallel()

	env, stdout, stderr, eng := testEnv(nil)
	out := filepath.Join(t.TempDir(), "shot.png")

	err := runCapture(context.Background(), []string{"<h1>hi</h1>", "-o", out, "-W", "800", "-H", "600", "--scale", "2", "--no-sandbox"}, env)
	if err != nil {
		t.Fatalf("runCapture() error = %v\nstderr: %s", err, stderr.String())
	}

	if !strings.Contains(stdout.String(), "Image saved to "+out) {
		t.Errorf("stdout = %q", stdout.String())
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("output not written: %v", err)
	}

	ctxOpts := eng.Browser.ContextOptions()
	if len(ctxOpts) != 1 || ctxOpts[0].Width != 800 || ctxOpts[0].Height != 600 || ctxOpts[0].DeviceScaleFactor != 2 {
		t.Errorf("context options = %+v, want 800x600@2", ctxOpts)
	}
	if l := eng.Launches(); len(l) != 1 || !l[0].NoSandbox || !l[0].Headless {
		t.Errorf("launches = %+v, want one headless no-sandbox launch", l)
	}
}

func TestRunCapture_SeveralSourcesIntoDirectory(t *testing.T) {
	t.Parallel()

	env, stdout, _, eng := testEnv(nil)
	dir := t.TempDir()
	page := filepath.Join(dir, "page.html")
	if err := os.WriteFile(page, []byte("<p>file</p>"), 0o600); err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(dir, "shots")

	err := runCapture(context.Background(), []string{page, "https://example.test/a", "<p>inline</p>", "-o", outDir + "/", "--query", "lang=fr"}, env)
	if err != nil {
		t.Fatalf("runCapture() error = %v", err)
	}

	for _, name := range []string{"001.png", "002.png", "003.png"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
	if got := strings.Count(stdout.String(), "Image saved to"); got != 3 {
		t.Errorf("saved lines = %d, want 3", got)
	}
	if got := eng.Log.Count("launch"); got != 1 {
		t.Errorf("launches = %d, want one browser for the batch", got)
	}

	var sawURL bool
	for _, p := range eng.Browser.Context.Pages() {
		if !strings.Contains(p.URL(), "lang=fr") {
			t.Errorf("page URL %q missing query", p.URL())
		}
		if strings.HasPrefix(p.URL(), "https://example.test/a?") {
			sawURL = true
		}
	}
	if !sawURL {
		t.Error("URL source was not navigated as a URL")
	}
}

func TestRunCapture_Stdin(t *testing.T) {
	t.Parallel()

	env, stdout, _, _ := testEnv(nil)
	env.Stdin = strings.NewReader("<h1>from stdin</h1>")

	if err := runCapture(context.Background(), []string{"-"}, env); err != nil {
		t.Fatalf("runCapture() error = %v", err)
	}
	if !strings.Contains(stdout.String(), "Image generated") {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestRunCapture_QuietPrintsNothing(t *testing.T) {
	t.Parallel()

	env, stdout, stderr, _ := testEnv(map[string]string{"SNAPHTML_TYPO": "1"})
	if err := runCapture(context.Background(), []string{"<p>x</p>", "-q"}, env); err != nil {
		t.Fatalf("runCapture() error = %v", err)
	}
	if stdout.Len() != 0 || stderr.Len() != 0 {
		t.Errorf("quiet output: stdout=%q stderr=%q", stdout.String(), stderr.String())
	}
}

func TestRunCapture_RenderFailureHasHint(t *testing.T) {
	t.Parallel()

	env, _, _, eng := testEnv(nil)
	eng.LaunchFunc = func(context.Context, engine.LaunchOptions) (engine.Browser, error) {
		return nil, errors.New("chrome exploded")
	}

	err := runCapture(context.Background(), []string{"<p>x</p>"}, env)
	if !errors.Is(err, snaphtml.ErrBrowserLaunch) {
		t.Fatalf("error = %v, want ErrBrowserLaunch", err)
	}
	if !strings.Contains(err.Error(), "hint:") {
		t.Errorf("error %q has no hint", err)
	}
}

func TestRunCapture_PartialBatchFails(t *testing.T) {
	t.Parallel()

	env, stdout, _, eng := testEnv(nil)
	eng.Browser.Context.Configure = func(p *mocks.Page) {
		p.Console = []string{snaphtml.CompletionMessage}
		p.GotoFunc = func(_ context.Context, url string, _ engine.WaitPolicy) error {
			if strings.Contains(url, "bad.test") {
				return errors.New("net::ERR_NAME_NOT_RESOLVED")
			}
			return nil
		}
	}

	err := runCapture(context.Background(), []string{"https://good.test", "https://bad.test", "-o", t.TempDir()}, env)
	var batchErr *snaphtml.BatchError
	if !errors.As(err, &batchErr) {
		t.Fatalf("error = %v, want *BatchError", err)
	}
	if len(batchErr.Failed) != 1 {
		t.Errorf("failed = %d, want 1", len(batchErr.Failed))
	}
	if !errors.Is(err, snaphtml.ErrNavigation) || !strings.Contains(err.Error(), "hint:") {
		t.Errorf("error %q should be a navigation error with a hint", err)
	}
	if got := strings.Count(stdout.String(), "Image saved to"); got != 1 {
		t.Errorf("saved lines = %d, want 1 for the good page", got)
	}
}

func TestRunCapture_InvalidSize(t *testing.T) {
	t.Parallel()

	env, _, _, eng := testEnv(nil)
	err := runCapture(context.Background(), []string{"<p>x</p>", "-W", "800"}, env)
	if !errors.Is(err, config.ErrInvalidValue) {
		t.Errorf("error = %v, want ErrInvalidValue", err)
	}
	if eng.Log.Count("launch") != 0 {
		t.Error("browser launched for invalid options")
	}
}

func TestRunCapture_MissingConfigHasHint(t *testing.T) {
	t.Parallel()

	env, _, _, _ := testEnv(nil)
	err := runCapture(context.Background(), []string{"<p>x</p>", "-c", filepath.Join(t.TempDir(), "none.yaml")}, env)
	if !errors.Is(err, config.ErrConfigNotFound) {
		t.Fatalf("error = %v, want ErrConfigNotFound", err)
	}
	if !strings.Contains(err.Error(), "hint: use --config") {
		t.Errorf("error %q has no config hint", err)
	}
}

// ---------------------------------------------------------------------------
// TestMergeFlags - Precedence: flags > env > config file
// ---------------------------------------------------------------------------

func TestMergeFlags_Precedence(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "snap.yaml")
	content := `engine: chromedp
render:
  scale: 3
  timeout: 20s
resolution:
  width: 1000
  height: 500
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	envCfg := loadEnvConfig(func(k string) string {
		return map[string]string{
			"SNAPHTML_SCALE":   "9",
			"SNAPHTML_DPI":     "150",
			"SNAPHTML_TIMEOUT": "1s",
		}[k]
	})
	cfg, err := loadConfig(cfgPath, envCfg)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	applyEnvConfig(envCfg, cfg)

	flags, _, err := parseCaptureFlags([]string{"--width", "640", "--height", "480", "-t", "2s", "--headful"}, os.Stderr)
	if err != nil {
		t.Fatalf("parseCaptureFlags() error = %v", err)
	}
	mergeFlags(flags, cfg)

	if cfg.Engine != "chromedp" {
		t.Errorf("Engine = %q, want config value", cfg.Engine)
	}
	if cfg.Render.Scale != 3 {
		t.Errorf("Scale = %g, config should win over env", cfg.Render.Scale)
	}
	if cfg.Resolution.DPI != 150 {
		t.Errorf("DPI = %d, want env value when config is empty", cfg.Resolution.DPI)
	}
	if cfg.Resolution.Width != 640 || cfg.Resolution.Height != 480 {
		t.Errorf("size = %dx%d, flags should win", cfg.Resolution.Width, cfg.Resolution.Height)
	}
	if d, _ := cfg.RenderTimeout(); d != 2*time.Second {
		t.Errorf("timeout = %s, want flag value 2s", d)
	}
	if cfg.Headless() {
		t.Error("Headless() = true after --headful")
	}
}

func TestMergeFlags_UnsetFlagsKeepConfig(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Render: config.RenderConfig{Format: "jpeg", Quality: 70}}
	flags, _, err := parseCaptureFlags(nil, os.Stderr)
	if err != nil {
		t.Fatal(err)
	}
	mergeFlags(flags, cfg)

	if cfg.Render.Format != "jpeg" || cfg.Render.Quality != 70 {
		t.Errorf("render = %+v, zero-valued flags must not override", cfg.Render)
	}
}

// ---------------------------------------------------------------------------
// TestOutputPaths / TestTargetFor - Source and output naming
// ---------------------------------------------------------------------------

func TestOutputPaths(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "exists.png")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		n          int
		output     string
		defaultDir string
		format     engine.Format
		want       []string
		wantErr    bool
	}{
		{"one source to file", 1, "out.png", "", engine.FormatPNG, []string{"out.png"}, false},
		{"one source no output", 1, "", "", engine.FormatPNG, []string{""}, false},
		{"one source default dir", 1, "", "shots", engine.FormatWebP, []string{filepath.Join("shots", "001.webp")}, false},
		{"one source into existing dir", 1, dir, "", engine.FormatPNG, []string{filepath.Join(dir, "001.png")}, false},
		{"several into dir", 2, "shots", "", engine.FormatJPEG, []string{filepath.Join("shots", "001.jpg"), filepath.Join("shots", "002.jpg")}, false},
		{"several to cwd", 2, "", "", engine.FormatPNG, []string{"001.png", "002.png"}, false},
		{"several onto a file", 2, file, "", engine.FormatPNG, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := outputPaths(tt.n, tt.output, tt.defaultDir, tt.format)
			if tt.wantErr {
				if !errors.Is(err, snaphtml.ErrInvalidArgument) {
					t.Errorf("error = %v, want ErrInvalidArgument", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("outputPaths() error = %v", err)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("outputPaths() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTargetFor(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "page.html")
	if err := os.WriteFile(file, []byte("<p>x</p>"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		source string
		want   snaphtml.TargetKind
	}{
		{file, snaphtml.KindFile},
		{"https://example.com", snaphtml.KindURL},
		{"http://localhost:8080", snaphtml.KindURL},
		{"<h1>hello</h1>", snaphtml.KindHTML},
		{"missing.html", snaphtml.KindHTML},
	}
	for _, tt := range tests {
		if got := targetFor(tt.source).Kind; got != tt.want {
			t.Errorf("targetFor(%q).Kind = %v, want %v", tt.source, got, tt.want)
		}
	}
}

func TestBuildJobs_StdinOnce(t *testing.T) {
	t.Parallel()

	f := &captureFlags{}
	_, err := buildJobs([]string{"-", "-"}, f, "", engine.FormatPNG, strings.NewReader("<p>x</p>"))
	if !errors.Is(err, snaphtml.ErrInvalidArgument) {
		t.Errorf("error = %v, want ErrInvalidArgument", err)
	}
}
