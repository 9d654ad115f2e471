package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/alnah/go-snaphtml/internal/config"
)

func getenvFrom(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

// ---------------------------------------------------------------------------
// TestLoadEnvConfig - Environment parsing
// ---------------------------------------------------------------------------

func TestLoadEnvConfig(t *testing.T) {
	t.Parallel()

	env := loadEnvConfig(getenvFrom(map[string]string{
		"SNAPHTML_CONFIG":             "team",
		"SNAPHTML_ENGINE":             "chromedp",
		"SNAPHTML_TIMEOUT":            "15s",
		"SNAPHTML_BROWSER_BIN":        "/opt/chrome",
		"SNAPHTML_NO_SANDBOX":         "1",
		"SNAPHTML_SCALE":              "2.5",
		"SNAPHTML_DPI":                "600",
		"SNAPHTML_OUTPUT_DIR":         "out",
		"SNAPHTML_PLAYWRIGHT_INSTALL": "1",
	}))

	want := envConfig{
		ConfigPath:        "team",
		Engine:            "chromedp",
		Timeout:           15 * time.Second,
		BrowserBin:        "/opt/chrome",
		NoSandbox:         true,
		Scale:             2.5,
		DPI:               600,
		OutputDir:         "out",
		PlaywrightInstall: true,
	}
	if *env != want {
		t.Errorf("loadEnvConfig() = %+v, want %+v", *env, want)
	}
}

func TestLoadEnvConfig_IgnoresInvalidValues(t *testing.T) {
	t.Parallel()

	env := loadEnvConfig(getenvFrom(map[string]string{
		"SNAPHTML_TIMEOUT":    "soon",
		"SNAPHTML_SCALE":      "-1",
		"SNAPHTML_DPI":        "many",
		"SNAPHTML_NO_SANDBOX": "yes",
	}))

	if env.Timeout != 0 || env.Scale != 0 || env.DPI != 0 || env.NoSandbox {
		t.Errorf("loadEnvConfig() = %+v, want invalid values dropped", *env)
	}
}

func TestWarnUnknownEnvVars(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	warnUnknownEnvVars(&buf, []string{
		"SNAPHTML_TIMEOUT=5s",
		"SNAPHTML_TIMOUT=5s",
		"HOME=/root",
	})

	if !strings.Contains(buf.String(), "SNAPHTML_TIMOUT") {
		t.Errorf("output %q does not flag the typo", buf.String())
	}
	if strings.Count(buf.String(), "warning:") != 1 {
		t.Errorf("output %q, want exactly one warning", buf.String())
	}
}

// ---------------------------------------------------------------------------
// TestApplyEnvConfig - Env fills only empty config fields
// ---------------------------------------------------------------------------

func TestApplyEnvConfig(t *testing.T) {
	t.Parallel()

	env := &envConfig{
		Engine:     "playwright",
		Timeout:    3 * time.Second,
		BrowserBin: "/env/chrome",
		NoSandbox:  true,
		Scale:      2,
		DPI:        72,
		OutputDir:  "env-out",
	}

	t.Run("empty config takes env values", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		applyEnvConfig(env, cfg)

		if cfg.Engine != "playwright" || cfg.Render.Timeout != "3s" || cfg.Browser.Bin != "/env/chrome" {
			t.Errorf("cfg = %+v", cfg)
		}
		if !cfg.Browser.NoSandbox || cfg.Render.Scale != 2 || cfg.Resolution.DPI != 72 || cfg.Output.DefaultDir != "env-out" {
			t.Errorf("cfg = %+v", cfg)
		}
	})

	t.Run("config values win", func(t *testing.T) {
		t.Parallel()

		cfg := &config.Config{
			Engine:  "rod",
			Browser: config.BrowserConfig{Bin: "/cfg/chrome"},
			Render:  config.RenderConfig{Scale: 1, Timeout: "30s"},
		}
		applyEnvConfig(env, cfg)

		if cfg.Engine != "rod" || cfg.Browser.Bin != "/cfg/chrome" || cfg.Render.Scale != 1 || cfg.Render.Timeout != "30s" {
			t.Errorf("cfg = %+v, env overrode config", cfg)
		}
	})
}
