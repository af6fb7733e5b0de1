//go:build !linux

package main

import (
	"os"
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	// Set up crash logging early, before any CGO code runs
	initCrashLog()

	args := os.Args[1:]
	if wantsGUI(args) {
		os.Exit(runGUIMain(args)) // takes main thread, runs execute in a goroutine
	}
	code := 0
	mainthread.Init(func() { code = execute(args) })
	os.Exit(code)
}

// hotkeyUsable reports whether the global hotkey can run next to ui. On
// macOS the hotkey needs the main thread, which fyne owns in gui mode.
func hotkeyUsable(ui string) bool {
	return ui != "gui" || runtime.GOOS != "darwin"
}
