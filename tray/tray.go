// Package tray holds the notification-area menu: show the toolbar, the two
// persisted toggles, dictation, and quit.
package tray

import (
	"context"
	"sync"

	"dysaccess/dictation"
	"dysaccess/log"
)

const Tooltip = "DysAccess Buddy"

// Controls is what the menu acts on. host.Host satisfies it.
type Controls interface {
	ShowToolbar()
	ToggleToolbar()
	AlwaysOnTop() bool
	SetAlwaysOnTop(on bool) error
	AutoLaunch() bool
	SetAutoLaunch(on bool) error
	ToggleDictation(ctx context.Context) (bool, error)
}

type ID int

const (
	ItemShow ID = iota
	ItemAlwaysOnTop
	ItemAutoLaunch
	ItemDictation
	ItemQuit
)

type Item struct {
	ID       ID
	Label    string
	Checkbox bool
	Checked  bool
	// SeparatorBefore draws a divider above the item.
	SeparatorBefore bool
}

// Menu is the tray state, independent of the toolkit drawing it.
type Menu struct {
	c    Controls
	quit func()

	mu       sync.Mutex
	status   dictation.Status
	onChange []func()
}

func New(c Controls, quit func()) *Menu {
	return &Menu{c: c, quit: quit}
}

func (m *Menu) Items() []Item {
	m.mu.Lock()
	listening := m.status.State == dictation.Listening
	m.mu.Unlock()

	dictate := "Démarrer la dictée"
	if listening {
		dictate = "Arrêter la dictée"
	}
	return []Item{
		{ID: ItemShow, Label: "Afficher DysAccess"},
		{ID: ItemAlwaysOnTop, Label: "Toujours au premier plan", Checkbox: true, Checked: m.c.AlwaysOnTop()},
		{ID: ItemAutoLaunch, Label: "Lancer au démarrage", Checkbox: true, Checked: m.c.AutoLaunch()},
		{ID: ItemDictation, Label: dictate, SeparatorBefore: true},
		{ID: ItemQuit, Label: "Quitter", SeparatorBefore: true},
	}
}

// Activate runs the action behind an item.
func (m *Menu) Activate(id ID) {
	switch id {
	case ItemShow:
		m.c.ShowToolbar()
	case ItemAlwaysOnTop:
		if err := m.c.SetAlwaysOnTop(!m.c.AlwaysOnTop()); err != nil {
			log.Warnf("tray: always on top: %v", err)
		}
	case ItemAutoLaunch:
		if err := m.c.SetAutoLaunch(!m.c.AutoLaunch()); err != nil {
			log.Warnf("tray: launch at login: %v", err)
		}
	case ItemDictation:
		if _, err := m.c.ToggleDictation(context.Background()); err != nil {
			log.Warnf("tray: toggle dictation: %v", err)
		}
	case ItemQuit:
		if m.quit != nil {
			m.quit()
		} else {
			Quit()
		}
		return
	}
	m.changed()
}

// Tapped handles a primary click on the tray icon itself.
func (m *Menu) Tapped() {
	m.c.ToggleToolbar()
}

// SetDictation mirrors the dictation state in the icon, tooltip and label.
func (m *Menu) SetDictation(s dictation.Status) {
	m.mu.Lock()
	same := m.status == s
	m.status = s
	m.mu.Unlock()
	if !same {
		m.changed()
	}
}

func (m *Menu) Tooltip() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.status.State {
	case dictation.Listening:
		return Tooltip + " : dictée en cours"
	case dictation.Failed:
		return Tooltip + " : " + m.status.Kind.Message()
	}
	return Tooltip
}

// Icon returns PNG bytes for the current state.
func (m *Menu) Icon() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.status.State {
	case dictation.Listening:
		return iconListening
	case dictation.Failed:
		return iconError
	}
	return iconIdleHi
}

func (m *Menu) idle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status.State == dictation.Idle
}

// OnChange registers fn to run after any state the menu shows has changed.
func (m *Menu) OnChange(fn func()) {
	m.mu.Lock()
	m.onChange = append(m.onChange, fn)
	m.mu.Unlock()
}

func (m *Menu) changed() {
	m.mu.Lock()
	fns := append([]func(){}, m.onChange...)
	m.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Follow keeps the menu in step with status updates until the channel closes.
func (m *Menu) Follow(updates <-chan dictation.Status) {
	for s := range updates {
		m.SetDictation(s)
	}
}
