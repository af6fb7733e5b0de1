//go:build gui

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync/atomic"

	"dysaccess/dictation"
	"dysaccess/gui"
	"dysaccess/host"
	"dysaccess/toolbar"
	"dysaccess/tray"
)

var guiApp *gui.App

// runGUIMain gives the main thread to fyne and runs the command line in a
// goroutine once the toolkit is ready.
func runGUIMain(args []string) int {
	// Lock this goroutine to OS thread for Fyne/GLFW
	runtime.LockOSThread()

	var code atomic.Int32
	guiApp = gui.NewApp(func() {
		code.Store(int32(execute(args)))
		guiApp.Quit()
	})
	if err := gui.Run(guiApp); err != nil {
		fmt.Fprintf(os.Stderr, "Erreur : %v\n", err)
		return 1
	}
	return int(code.Load())
}

func guiWindows() (host.Windows, error) {
	if guiApp == nil {
		return nil, errors.New("gui front end must be selected on the command line or in the config before start")
	}
	return guiApp, nil
}

func runGUI(ctx context.Context, h *host.Host, tb *toolbar.Toolbar, client toolbar.Client,
	focus *toolbar.Focus, menu *tray.Menu, machine *dictation.Machine, errs <-chan error, hidden bool) {
	guiApp.Attach(gui.Options{
		Toolbar: tb,
		Client:  client,
		Focus:   focus,
		Menu:    menu,
		Hidden:  hidden,
	})
	h.ApplyStartup()

	status, unsubscribe := machine.Subscribe()
	defer unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-status:
			if !ok {
				return
			}
			guiApp.SetDictation(s)
		case err := <-errs:
			guiApp.ShowError(err)
		}
	}
}
