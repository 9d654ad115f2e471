// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-snaphtml/internal/fileutil"
)

// IsInContainer reports whether the process runs inside Docker.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// InCI reports whether a well-known CI environment variable is set.
func InCI() bool {
	for _, name := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL"} {
		if os.Getenv(name) != "" {
			return true
		}
	}
	return false
}

// ForBrowserLaunch returns hints for browser launch and context errors.
// engine is the engine name the user selected.
func ForBrowserLaunch(engine string) string {
	var hints []string

	if (InCI() || IsInContainer()) && os.Getenv("SNAPHTML_NO_SANDBOX") != "1" {
		hints = append(hints, "use --no-sandbox (or SNAPHTML_NO_SANDBOX=1) in Docker/CI")
	}
	if engine == "playwright" {
		hints = append(hints, "run 'go run github.com/playwright-community/playwright-go/cmd/playwright install chromium'")
	}
	if os.Getenv("SNAPHTML_BROWSER_BIN") == "" {
		hints = append(hints, "set SNAPHTML_BROWSER_BIN or --browser-bin to use a custom Chrome")
	}
	hints = append(hints, "run 'snaphtml doctor' to check the setup")

	return formatHints(hints)
}

// ForNavigation returns a hint for pages that failed to load.
func ForNavigation() string {
	return format("check the URL is reachable or the file path exists")
}

// ForTimeout returns a hint about the render-complete wait.
func ForTimeout() string {
	return format("pages that finish late should call console.log('RENDER_COMPLETE'); raise --timeout otherwise")
}

// ForConfigNotFound suggests --config and the user config location.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"
	for _, p := range searchedPaths {
		if strings.Contains(p, ".config/go-snaphtml") || strings.Contains(p, "go-snaphtml") && strings.Contains(p, "Application Support") {
			hint += " or create " + p
			break
		}
	}
	return format(hint)
}

// ForOutputDirectory returns hints for output write errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForChoices lists the accepted values of a flag.
func ForChoices(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
