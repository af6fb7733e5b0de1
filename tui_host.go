package main

import (
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"dysaccess/host"
	"dysaccess/log"
	"dysaccess/toolbar"
)

// tuiWindows shows the toolbar and the editor as two views of one terminal
// program. State lives in atomics so the host can query it from the bridge
// goroutine without waiting on the update loop.
type tuiWindows struct {
	mu sync.Mutex
	p  *tea.Program

	editorOpen atomic.Bool
	visible    atomic.Bool
	onTop      atomic.Bool
}

var _ host.Windows = (*tuiWindows)(nil)

func newTUIWindows() *tuiWindows {
	w := &tuiWindows{}
	w.visible.Store(true)
	w.onTop.Store(true)
	return w
}

func (w *tuiWindows) attach(p *tea.Program) {
	w.mu.Lock()
	w.p = p
	w.mu.Unlock()
}

func (w *tuiWindows) send(msg tea.Msg) {
	w.mu.Lock()
	p := w.p
	w.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func (w *tuiWindows) OpenEditor(url string) error {
	f, err := toolbar.FromURL(url)
	if err != nil {
		return err
	}
	w.editorOpen.Store(true)
	w.send(editorOpenMsg{form: f})
	log.Infof("editor opened: %s", f.Title())
	return nil
}

func (w *tuiWindows) FocusEditor() { w.send(editorFocusMsg{}) }

func (w *tuiWindows) CloseEditor() {
	if w.editorOpen.Swap(false) {
		w.send(editorCloseMsg{})
	}
}

func (w *tuiWindows) EditorOpen() bool { return w.editorOpen.Load() }

func (w *tuiWindows) ShowToolbar() {
	w.visible.Store(true)
	w.send(toolbarVisibleMsg{visible: true})
}

func (w *tuiWindows) HideToolbar() {
	w.visible.Store(false)
	w.send(toolbarVisibleMsg{visible: false})
}

func (w *tuiWindows) ToolbarVisible() bool { return w.visible.Load() }

// SetAlwaysOnTop only records the preference; a terminal has no stacking.
func (w *tuiWindows) SetAlwaysOnTop(on bool) {
	w.onTop.Store(on)
	w.send(alwaysOnTopMsg{on: on})
}
