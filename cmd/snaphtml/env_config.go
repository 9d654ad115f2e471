package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-snaphtml/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath        string        // SNAPHTML_CONFIG: config file name or path
	Engine            string        // SNAPHTML_ENGINE: rod, chromedp, playwright
	Timeout           time.Duration // SNAPHTML_TIMEOUT: render-complete timeout
	BrowserBin        string        // SNAPHTML_BROWSER_BIN: browser executable
	NoSandbox         bool          // SNAPHTML_NO_SANDBOX=1: disable Chrome sandbox
	Scale             float64       // SNAPHTML_SCALE: device scale factor
	DPI               int           // SNAPHTML_DPI: dots per inch for cm sizes
	OutputDir         string        // SNAPHTML_OUTPUT_DIR: default output directory
	PlaywrightInstall bool          // SNAPHTML_PLAYWRIGHT_INSTALL=1: fetch driver on launch
}

// knownEnvVars lists valid SNAPHTML_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"SNAPHTML_CONFIG":             true,
	"SNAPHTML_ENGINE":             true,
	"SNAPHTML_TIMEOUT":            true,
	"SNAPHTML_BROWSER_BIN":        true,
	"SNAPHTML_NO_SANDBOX":         true,
	"SNAPHTML_SCALE":              true,
	"SNAPHTML_DPI":                true,
	"SNAPHTML_OUTPUT_DIR":         true,
	"SNAPHTML_PLAYWRIGHT_INSTALL": true,
	"SNAPHTML_CONTAINER":          true,
}

// loadEnvConfig reads configuration from environment variables.
// Unparsable numbers and durations are ignored.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath:        getenv("SNAPHTML_CONFIG"),
		Engine:            getenv("SNAPHTML_ENGINE"),
		BrowserBin:        getenv("SNAPHTML_BROWSER_BIN"),
		NoSandbox:         getenv("SNAPHTML_NO_SANDBOX") == "1",
		OutputDir:         getenv("SNAPHTML_OUTPUT_DIR"),
		PlaywrightInstall: getenv("SNAPHTML_PLAYWRIGHT_INSTALL") == "1",
	}

	if v := getenv("SNAPHTML_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	if v := getenv("SNAPHTML_SCALE"); v != "" {
		if s, err := strconv.ParseFloat(v, 64); err == nil && s > 0 {
			cfg.Scale = s
		}
	}
	if v := getenv("SNAPHTML_DPI"); v != "" {
		if d, err := strconv.Atoi(v); err == nil && d > 0 {
			cfg.DPI = d
		}
	}

	return cfg
}

// warnUnknownEnvVars reports unrecognized SNAPHTML_* variables.
// Helps catch typos like SNAPHTML_TIMOUT.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	for _, kv := range environ {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, "SNAPHTML_") && !knownEnvVars[name] {
			fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
		}
	}
}

// applyEnvConfig applies environment variable values to config.
// Only sets values if the env var is set AND the config value is empty/zero.
// This ensures: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via mergeFlags)
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Engine != "" && cfg.Engine == "" {
		cfg.Engine = env.Engine
	}
	if env.Timeout > 0 && cfg.Render.Timeout == "" {
		cfg.Render.Timeout = env.Timeout.String()
	}
	if env.BrowserBin != "" && cfg.Browser.Bin == "" {
		cfg.Browser.Bin = env.BrowserBin
	}
	if env.NoSandbox {
		cfg.Browser.NoSandbox = true
	}
	if env.Scale > 0 && cfg.Render.Scale == 0 {
		cfg.Render.Scale = env.Scale
	}
	if env.DPI > 0 && cfg.Resolution.DPI == 0 {
		cfg.Resolution.DPI = env.DPI
	}
	if env.OutputDir != "" && cfg.Output.DefaultDir == "" {
		cfg.Output.DefaultDir = env.OutputDir
	}
}
