package main

import (
	"io"
	"os"

	"github.com/alnah/go-snaphtml/engine"
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Getenv and Environ read SNAPHTML_* variables.
	Getenv  func(string) string
	Environ func() []string

	// NewEngine builds the engine named by --engine.
	NewEngine func(name string, env *envConfig) (engine.Engine, error)
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		Getenv:    os.Getenv,
		Environ:   os.Environ,
		NewEngine: newEngine,
	}
}
