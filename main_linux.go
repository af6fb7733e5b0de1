//go:build linux

package main

import "os"

func main() {
	// Set up crash logging early, before any CGO code runs
	initCrashLog()

	args := os.Args[1:]
	if wantsGUI(args) {
		os.Exit(runGUIMain(args))
	}
	os.Exit(execute(args))
}

// hotkeyUsable reports whether the global hotkey can run next to ui.
func hotkeyUsable(string) bool { return true }
