package host

import (
	"dysaccess/log"
	"dysaccess/login"
)

func setLogin(on bool) error { return login.Set(on) }

// ShowToolbar backs the "Afficher DysAccess" tray entry.
func (h *Host) ShowToolbar() {
	if h.win != nil {
		h.win.ShowToolbar()
	}
}

// ToggleToolbar backs a click on the tray icon.
func (h *Host) ToggleToolbar() {
	if h.win == nil {
		return
	}
	if h.win.ToolbarVisible() {
		h.win.HideToolbar()
	} else {
		h.win.ShowToolbar()
	}
}

func (h *Host) AlwaysOnTop() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cfg.AlwaysOnTop
}

// SetAlwaysOnTop applies and persists the toolbar's stacking preference.
func (h *Host) SetAlwaysOnTop(on bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.win != nil {
		h.win.SetAlwaysOnTop(on)
	}
	h.cfg.AlwaysOnTop = on
	return h.save()
}

func (h *Host) AutoLaunch() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cfg.AutoLaunch
}

// SetAutoLaunch registers or removes the login item and records the choice.
// The config keeps the previous value when the OS refuses.
func (h *Host) SetAutoLaunch(on bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.setLogin(on); err != nil {
		log.Errorf("set launch at login: %v", err)
		return err
	}
	h.cfg.AutoLaunch = on
	return h.save()
}

// ApplyStartup re-registers the login item when the config asks for it and
// applies the stacking preference. Called once the windows exist.
func (h *Host) ApplyStartup() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.win != nil {
		h.win.SetAlwaysOnTop(h.cfg.AlwaysOnTop)
	}
	if h.cfg.AutoLaunch {
		if err := h.setLogin(true); err != nil {
			log.Warnf("refresh launch at login: %v", err)
		}
	}
}

func (h *Host) save() error {
	if h.cfg.Path() == "" {
		return nil
	}
	if err := h.cfg.Save(); err != nil {
		log.Errorf("save config: %v", err)
		return err
	}
	return nil
}
