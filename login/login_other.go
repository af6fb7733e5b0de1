//go:build !darwin && !linux && !windows

package login

import (
	"fmt"
	"runtime"
)

func Enabled() bool { return false }

func Enable() error {
	return fmt.Errorf("launch at login is not supported on %s", runtime.GOOS)
}

func Disable() error { return nil }
