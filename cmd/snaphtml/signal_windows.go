//go:build windows

package main

import (
	"context"
	"os"
	"os/signal"
)

// shutdownSignals end a capture early. Windows only delivers interrupts.
var shutdownSignals = []os.Signal{os.Interrupt}

// notifyContext returns the context a capture runs under. An interrupt
// cancels it: pages still rendering abort with the context error, and the
// browser session is closed before the command returns.
func notifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, shutdownSignals...)
}
