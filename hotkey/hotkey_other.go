//go:build !linux

package hotkey

import (
	"sync"

	"golang.design/x/hotkey"
)

// osHotkey registers the combination with the window system. On macOS the
// events are delivered on the main thread, so the caller must be running
// under mainthread.Init.
type osHotkey struct {
	edges
	hk   *hotkey.Hotkey
	done chan struct{}
	once sync.Once
}

func New() Hotkey {
	return &osHotkey{
		edges: newEdges(),
		hk:    hotkey.New([]hotkey.Modifier{hotkey.ModCtrl, hotkey.ModShift}, hotkey.KeyD),
		done:  make(chan struct{}),
	}
}

func (h *osHotkey) Register() error {
	if err := h.hk.Register(); err != nil {
		return err
	}
	go h.relay()
	return nil
}

func (h *osHotkey) relay() {
	down, up := h.hk.Keydown(), h.hk.Keyup()
	for {
		select {
		case <-h.done:
			return
		case <-down:
			h.press()
		case <-up:
			h.release()
		}
	}
}

func (h *osHotkey) Unregister() {
	h.once.Do(func() {
		close(h.done)
		h.hk.Unregister()
	})
}

func Diagnose() (string, error) {
	return Combo + " registered through the window system", nil
}
