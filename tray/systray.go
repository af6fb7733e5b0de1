package tray

import (
	"sync"
	"sync/atomic"

	"fyne.io/systray"
)

var (
	quitCh    = make(chan struct{})
	closeOnce sync.Once
	started   atomic.Bool
)

// Quit tears down the tray and closes the channel Init returned.
func Quit() {
	if started.Load() {
		systray.Quit()
	}
	closeOnce.Do(func() { close(quitCh) })
}

// Init shows m in the notification area. The returned channel closes when
// the user picks "Quitter" or Quit is called.
func Init(m *Menu) <-chan struct{} {
	start, _ := systray.RunWithExternalLoop(func() { onReady(m) }, onExit)
	runOnMain(start)
	started.Store(true)
	return quitCh
}

func onReady(m *Menu) {
	setIcon(m)
	systray.SetTooltip(m.Tooltip())
	systray.SetOnTapped(m.Tapped)

	items := make(map[ID]*systray.MenuItem)
	for _, it := range m.Items() {
		if it.SeparatorBefore {
			systray.AddSeparator()
		}
		var mi *systray.MenuItem
		if it.Checkbox {
			mi = systray.AddMenuItemCheckbox(it.Label, it.Label, it.Checked)
		} else {
			mi = systray.AddMenuItem(it.Label, it.Label)
		}
		items[it.ID] = mi
		go func(id ID, mi *systray.MenuItem) {
			for range mi.ClickedCh {
				m.Activate(id)
			}
		}(it.ID, mi)
	}

	m.OnChange(func() {
		setIcon(m)
		systray.SetTooltip(m.Tooltip())
		for _, it := range m.Items() {
			mi := items[it.ID]
			mi.SetTitle(it.Label)
			if !it.Checkbox {
				continue
			}
			if it.Checked {
				mi.Check()
			} else {
				mi.Uncheck()
			}
		}
	})
}

func setIcon(m *Menu) {
	if m.idle() {
		systray.SetTemplateIcon(iconIdleHi, iconIdle)
		return
	}
	systray.SetIcon(m.Icon())
}

func onExit() {
	closeOnce.Do(func() { close(quitCh) })
}
