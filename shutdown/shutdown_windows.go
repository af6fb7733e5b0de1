//go:build windows

package shutdown

import (
	"context"
	"os"
	"os/signal"
)

// Context is cancelled on Ctrl+C. Console close and logoff end the process
// without a catchable signal.
func Context(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt)
}
