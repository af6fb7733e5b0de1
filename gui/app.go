//go:build gui

// Package gui draws the floating toolbar, the shortcut editor and the
// system tray with fyne.
package gui

import (
	"sync"
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"github.com/go-gl/glfw/v3.3/glfw"

	"dysaccess/dictation"
	"dysaccess/host"
	"dysaccess/log"
	"dysaccess/registry"
	"dysaccess/toolbar"
	"dysaccess/tray"
)

const AppID = "fr.dysaccess.buddy"

// Options are bound once the rest of the program is wired.
type Options struct {
	Toolbar *toolbar.Toolbar
	Client  toolbar.Client
	Focus   *toolbar.Focus
	Menu    *tray.Menu
	// Hidden starts with the toolbar window hidden.
	Hidden bool
}

type App struct {
	fyneApp fyne.App
	onReady func()

	opts    Options
	toolbar fyne.Window
	bar     *toolbarView
	editor  *editorWindow

	mu         sync.Mutex
	editorOpen atomic.Bool
	visible    atomic.Bool
	onTop      atomic.Bool
	posX, posY int
}

var _ host.Windows = (*App)(nil)

func NewApp(onReady func()) *App {
	a := &App{onReady: onReady}
	a.onTop.Store(true)
	return a
}

// Run starts the fyne event loop on the calling goroutine, which must be
// the main thread. onReady runs in its own goroutine.
func Run(a *App) error {
	a.fyneApp = app.NewWithID(AppID)
	a.fyneApp.Settings().SetTheme(&buddyTheme{})

	go a.onReady()

	a.fyneApp.Run()
	return nil
}

func (a *App) Quit() {
	if a.fyneApp != nil {
		fyne.Do(a.fyneApp.Quit)
	}
}

// Attach builds the windows and the tray for opts and shows the toolbar.
func (a *App) Attach(opts Options) {
	a.mu.Lock()
	a.opts = opts
	a.mu.Unlock()

	done := make(chan struct{})
	fyne.Do(func() {
		defer close(done)
		a.buildTray()
		a.buildToolbar()
		if !opts.Hidden {
			a.showToolbar()
		}
	})
	<-done

	opts.Toolbar.Watch(func(registry.Change) {
		fyne.Do(a.bar.refresh)
	})
}

func (a *App) buildTray() {
	desk, ok := a.fyneApp.(desktop.App)
	if !ok || a.opts.Menu == nil {
		return
	}
	m := a.opts.Menu
	refresh := func() {
		desk.SetSystemTrayMenu(trayMenu(m))
		desk.SetSystemTrayIcon(fyne.NewStaticResource("tray.png", m.Icon()))
	}
	refresh()
	m.OnChange(func() { fyne.Do(refresh) })
}

// trayMenu mirrors the toolkit-neutral menu model.
func trayMenu(m *tray.Menu) *fyne.Menu {
	var items []*fyne.MenuItem
	for _, it := range m.Items() {
		if it.SeparatorBefore {
			items = append(items, fyne.NewMenuItemSeparator())
		}
		id := it.ID
		mi := fyne.NewMenuItem(it.Label, func() { go m.Activate(id) })
		mi.Checked = it.Checkbox && it.Checked
		items = append(items, mi)
	}
	return fyne.NewMenu(tray.Tooltip, items...)
}

func (a *App) buildToolbar() {
	if drv, ok := a.fyneApp.Driver().(desktop.Driver); ok {
		a.toolbar = drv.CreateSplashWindow()
	} else {
		a.toolbar = a.fyneApp.NewWindow(tray.Tooltip)
	}
	quit := a.fyneApp.Quit
	if m := a.opts.Menu; m != nil {
		quit = func() { go m.Activate(tray.ItemQuit) }
	}
	a.bar = newToolbarView(a.opts.Toolbar, a.opts.Client, quit)
	a.toolbar.SetContent(a.bar.content())
	a.toolbar.SetPadded(false)
	a.toolbar.SetCloseIntercept(a.hideToolbar)

	var screenW int
	if monitor := glfw.GetPrimaryMonitor(); monitor != nil {
		_, _, screenW, _ = monitor.GetWorkarea()
	} else {
		screenW = 1920
	}
	size := a.toolbar.Content().MinSize()
	a.toolbar.Resize(size)
	a.posX = (screenW - int(size.Width)) / 2
	a.posY = 20
}

// SetDictation updates the toolbar's microphone button.
func (a *App) SetDictation(s dictation.Status) {
	fyne.Do(func() {
		if a.bar != nil {
			a.bar.setDictation(s)
		}
	})
}

// ShowError shows a validation failure in the toolbar.
func (a *App) ShowError(err error) {
	fyne.Do(func() {
		if a.bar != nil {
			a.bar.flash(err.Error())
		}
	})
}

func (a *App) OpenEditor(url string) error {
	f, err := toolbar.FromURL(url)
	if err != nil {
		return err
	}
	a.editorOpen.Store(true)
	fyne.Do(func() {
		a.editor = newEditorWindow(a.fyneApp, f, a.opts.Client, a.opts.Focus, func() {
			a.editorOpen.Store(false)
			a.editor = nil
		})
		a.editor.show()
	})
	log.Infof("editor opened: %s", f.Title())
	return nil
}

func (a *App) FocusEditor() {
	fyne.Do(func() {
		if a.editor != nil {
			a.editor.win.RequestFocus()
		}
	})
}

func (a *App) CloseEditor() {
	fyne.Do(func() {
		if a.editor != nil {
			a.editor.win.Close()
		}
	})
}

func (a *App) EditorOpen() bool { return a.editorOpen.Load() }

func (a *App) ShowToolbar() { fyne.Do(a.showToolbar) }

func (a *App) HideToolbar() { fyne.Do(a.hideToolbar) }

func (a *App) ToolbarVisible() bool { return a.visible.Load() }

func (a *App) SetAlwaysOnTop(on bool) {
	a.onTop.Store(on)
	fyne.Do(func() {
		if !a.visible.Load() {
			return
		}
		withNative(a.toolbar, glfw.GetCurrentContext, func(w *glfw.Window) {
			w.SetAttrib(glfw.Floating, glfwBool(on))
		})
	})
}

func (a *App) showToolbar() {
	if a.toolbar == nil {
		return
	}
	a.visible.Store(true)
	a.toolbar.Show()
	withNative(a.toolbar, glfw.GetCurrentContext, func(w *glfw.Window) {
		w.SetPos(a.posX, a.posY)
		w.SetAttrib(glfw.Floating, glfwBool(a.onTop.Load()))
	})
}

// contextRunner is implemented by the desktop driver's windows: it makes the
// window's GL context current for the duration of f.
type contextRunner interface {
	RunWithContext(f func())
}

// withNative calls f with win's own GLFW window. The current context alone may
// belong to the editor. Must run on the main goroutine.
func withNative(win fyne.Window, current func() *glfw.Window, f func(*glfw.Window)) {
	rc, ok := win.(contextRunner)
	if !ok {
		return
	}
	rc.RunWithContext(func() {
		if w := current(); w != nil {
			f(w)
		}
	})
}

func (a *App) hideToolbar() {
	if a.toolbar == nil {
		return
	}
	a.visible.Store(false)
	a.toolbar.Hide()
}

func glfwBool(b bool) int {
	if b {
		return glfw.True
	}
	return glfw.False
}
