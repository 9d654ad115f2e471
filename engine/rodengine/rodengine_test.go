package rodengine

// Notes:
// - Launch, pages and screenshots need a real Chrome; they are covered by the
//   integration tests in the root package. Here we test flag handling and the
//   launcher configuration, which do not start a process. Teardown against a
//   fake DevTools endpoint lives in devtools_test.go.

import (
	"testing"

	"github.com/go-rod/rod/lib/launcher/flags"

	"github.com/alnah/go-snaphtml/engine"
)

func TestNewLauncher(t *testing.T) {
	t.Parallel()

	l := newLauncher(engine.LaunchOptions{
		Headless:   true,
		NoSandbox:  true,
		BrowserBin: "/opt/chrome/chrome",
		ExtraFlags: []string{"lang=de", "--mute-audio"},
	})

	if !l.Has(flags.NoSandbox) {
		t.Error("no-sandbox flag missing")
	}
	if !l.Has(flags.Headless) {
		t.Error("headless flag missing")
	}
	if got := l.Get(flags.Bin); got != "/opt/chrome/chrome" {
		t.Errorf("bin = %q", got)
	}
	if got := l.Get("lang"); got != "de" {
		t.Errorf("lang = %q, want de", got)
	}
	if !l.Has("mute-audio") {
		t.Error("mute-audio flag missing")
	}
}

func TestNewLauncher_Sandboxed(t *testing.T) {
	t.Parallel()

	l := newLauncher(engine.LaunchOptions{Headless: false})
	if l.Has(flags.NoSandbox) {
		t.Error("no-sandbox set without NoSandbox")
	}
	if l.Has(flags.Headless) {
		t.Error("headless set for headful launch")
	}
}

func TestEngineName(t *testing.T) {
	t.Parallel()

	if New().Name() != "rod" {
		t.Errorf("Name() = %q", New().Name())
	}
}
