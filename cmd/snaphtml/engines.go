package main

import (
	"errors"
	"fmt"

	"github.com/alnah/go-snaphtml/engine"
	"github.com/alnah/go-snaphtml/engine/cdpengine"
	"github.com/alnah/go-snaphtml/engine/pwengine"
	"github.com/alnah/go-snaphtml/engine/rodengine"
)

// ErrUnknownEngine is returned for an --engine value with no adapter.
var ErrUnknownEngine = errors.New("unknown engine")

// newEngine maps an engine name to its adapter. The empty name is rod.
func newEngine(name string, env *envConfig) (engine.Engine, error) {
	switch name {
	case "", "rod":
		return rodengine.New(), nil
	case "chromedp":
		return cdpengine.New(), nil
	case "playwright":
		return &pwengine.Engine{Install: env != nil && env.PlaywrightInstall}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, name)
	}
}
