//go:build !windows

// Package shutdown cancels a context on the signals that end the program.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func Context(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
}
