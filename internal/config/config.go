package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	snaphtml "github.com/alnah/go-snaphtml"
	"github.com/alnah/go-snaphtml/engine"
	"github.com/alnah/go-snaphtml/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxPathLength     = 4096 // PATH_MAX on Linux
	MaxEngineLength   = 20   // "rod", "chromedp", "playwright"
	MaxFlagLength     = 256  // One raw browser switch
	MaxDurationLength = 20   // "1m30s"
)

// Engines lists the accepted engine names.
var Engines = []string{"rod", "chromedp", "playwright"}

// Config holds all configuration for the CLI.
type Config struct {
	Engine     string              `yaml:"engine"` // Empty = rod
	Browser    BrowserConfig       `yaml:"browser"`
	Render     RenderConfig        `yaml:"render"`
	Resolution snaphtml.Resolution `yaml:"resolution"`
	Output     OutputConfig        `yaml:"output"`
}

// BrowserConfig defines browser launch options.
type BrowserConfig struct {
	Bin       string   `yaml:"bin"`       // Empty = engine lookup
	NoSandbox bool     `yaml:"noSandbox"` // Needed as root in containers
	Headless  *bool    `yaml:"headless"`  // Nil = true
	Flags     []string `yaml:"flags"`     // Raw switches, e.g. "lang=fr"
}

// RenderConfig defines per-render options.
type RenderConfig struct {
	Scale          float64 `yaml:"scale"`          // 0 = 1.5
	Timeout        string  `yaml:"timeout"`        // Go duration, empty = 10s
	Fit            string  `yaml:"fit"`            // contain, cover, fill, none
	Format         string  `yaml:"format"`         // png, jpeg, webp
	Quality        int     `yaml:"quality"`        // 0-100, jpeg/webp only
	FullPage       bool    `yaml:"fullPage"`       // Capture beyond the viewport
	MaxConcurrency int     `yaml:"maxConcurrency"` // 0 = unbounded
	KeepTempFiles  bool    `yaml:"keepTempFiles"`  // Keep inline-HTML temp files
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Empty = current directory
}

// DefaultConfig returns a configuration where every field falls back to
// library defaults.
func DefaultConfig() *Config {
	return &Config{}
}

// Validate checks field lengths and value ranges.
// Called automatically by LoadConfig, but available for callers that
// build a Config by hand.
func (c *Config) Validate() error {
	if err := validateFieldLength("engine", c.Engine, MaxEngineLength); err != nil {
		return err
	}
	if c.Engine != "" && !contains(Engines, c.Engine) {
		return fmt.Errorf("%w: engine %q (must be one of %s)", ErrInvalidValue, c.Engine, strings.Join(Engines, ", "))
	}

	if err := validateFieldLength("browser.bin", c.Browser.Bin, MaxPathLength); err != nil {
		return err
	}
	for i, f := range c.Browser.Flags {
		if err := validateFieldLength(fmt.Sprintf("browser.flags[%d]", i), f, MaxFlagLength); err != nil {
			return err
		}
	}

	if c.Render.Scale < 0 {
		return fmt.Errorf("%w: render.scale must be positive, got %g", ErrInvalidValue, c.Render.Scale)
	}
	if _, err := c.RenderTimeout(); err != nil {
		return err
	}
	if _, err := snaphtml.ParseFitMode(c.Render.Fit); err != nil {
		return fmt.Errorf("%w: render.fit %q", ErrInvalidValue, c.Render.Fit)
	}
	if _, err := ParseFormat(c.Render.Format); err != nil {
		return err
	}
	if c.Render.Quality < 0 || c.Render.Quality > 100 {
		return fmt.Errorf("%w: render.quality must be between 0 and 100, got %d", ErrInvalidValue, c.Render.Quality)
	}
	if c.Render.MaxConcurrency < 0 {
		return fmt.Errorf("%w: render.maxConcurrency must not be negative, got %d", ErrInvalidValue, c.Render.MaxConcurrency)
	}

	if err := c.Resolution.Validate(); err != nil {
		return fmt.Errorf("%w: resolution: %v", ErrInvalidValue, err)
	}

	return validateFieldLength("output.defaultDir", c.Output.DefaultDir, MaxPathLength)
}

// RenderTimeout parses render.timeout. Empty means zero (library default).
func (c *Config) RenderTimeout() (time.Duration, error) {
	s := c.Render.Timeout
	if s == "" {
		return 0, nil
	}
	if err := validateFieldLength("render.timeout", s, MaxDurationLength); err != nil {
		return 0, err
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: render.timeout %q (want a positive duration like 10s)", ErrInvalidValue, s)
	}
	return d, nil
}

// Headless reports browser.headless, true when unset.
func (c *Config) Headless() bool {
	return c.Browser.Headless == nil || *c.Browser.Headless
}

// RenderOptions converts the render and resolution sections. Call
// Validate first; invalid values are reported again here.
func (c *Config) RenderOptions() (snaphtml.RenderOptions, error) {
	timeout, err := c.RenderTimeout()
	if err != nil {
		return snaphtml.RenderOptions{}, err
	}
	fit, err := snaphtml.ParseFitMode(c.Render.Fit)
	if err != nil {
		return snaphtml.RenderOptions{}, fmt.Errorf("%w: render.fit %q", ErrInvalidValue, c.Render.Fit)
	}
	format, err := ParseFormat(c.Render.Format)
	if err != nil {
		return snaphtml.RenderOptions{}, err
	}

	opts := snaphtml.RenderOptions{
		ScaleFactor:    c.Render.Scale,
		RenderTimeout:  timeout,
		Fit:            fit,
		Format:         format,
		Quality:        c.Render.Quality,
		FullPage:       c.Render.FullPage,
		MaxConcurrency: c.Render.MaxConcurrency,
	}
	if c.Resolution != (snaphtml.Resolution{}) {
		res := c.Resolution
		opts.Resolution = &res
	}
	return opts, nil
}

// ParseFormat parses an image format name. "jpg" is accepted for jpeg and
// the empty string means png.
func ParseFormat(s string) (engine.Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "png":
		return engine.FormatPNG, nil
	case "jpeg", "jpg":
		return engine.FormatJPEG, nil
	case "webp":
		return engine.FormatWebP, nil
	default:
		return "", fmt.Errorf("%w: format %q (must be png, jpeg, or webp)", ErrInvalidValue, s)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !isFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := yamlutil.ReadFileStrict(configPath, &cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParse, configPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// SearchPaths returns the locations LoadConfig tries for a config name, in
// order: name.yaml and name.yml in the current directory, then in
// the go-snaphtml directory under os.UserConfigDir.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)
	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, "go-snaphtml", name+ext))
		}
	}
	return paths
}

// resolveConfigPath returns the first existing path of SearchPaths.
func resolveConfigPath(name string) (string, error) {
	paths := SearchPaths(name)
	for _, p := range paths {
		if fileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(paths, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
