//go:build !gui

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"dysaccess/dictation"
	"dysaccess/host"
	"dysaccess/toolbar"
	"dysaccess/tray"
)

var errNoGUI = errors.New("built without GUI support (rebuild with -tags gui)")

func runGUIMain([]string) int {
	fmt.Fprintf(os.Stderr, "Erreur : %v\n", errNoGUI)
	return 1
}

func guiWindows() (host.Windows, error) { return nil, errNoGUI }

func runGUI(context.Context, *host.Host, *toolbar.Toolbar, toolbar.Client,
	*toolbar.Focus, *tray.Menu, *dictation.Machine, <-chan error, bool) {
}
