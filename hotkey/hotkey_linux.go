//go:build linux

package hotkey

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Linux input event codes from linux/input-event-codes.h.
const (
	evKey     = 1
	keyLCtrl  = 29
	keyRCtrl  = 97
	keyLShift = 42
	keyRShift = 54
	keyD      = 32
)

// struct input_event on 64-bit: timeval, type u16, code u16, value s32.
const eventSize = 24

var (
	inputDir = "/dev/input"
	sysDir   = "/sys/class/input"
)

var errNoKeyboard = errors.New("no keyboard device found")

const inputGroupHint = "add yourself to the input group (sudo usermod -aG input $USER) and log in again"

// evdevHotkey reads raw key events from every keyboard. It works under
// both X11 and Wayland but needs read access to /dev/input.
type evdevHotkey struct {
	edges
	mu    sync.Mutex
	files []*os.File
	once  sync.Once
}

func New() Hotkey {
	return &evdevHotkey{edges: newEdges()}
}

func (h *evdevHotkey) Register() error {
	paths, err := keyboards()
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			continue
		}
		h.files = append(h.files, f)
		go h.watch(f)
	}
	if len(h.files) == 0 {
		return fmt.Errorf("cannot open any of %d keyboard(s): %s", len(paths), inputGroupHint)
	}
	return nil
}

// watch runs until the file is closed by Unregister.
func (h *evdevHotkey) watch(f *os.File) {
	var c chord
	buf := make([]byte, eventSize*16)
	for {
		n, err := f.Read(buf)
		if err != nil {
			return
		}
		for off := 0; off+eventSize <= n; off += eventSize {
			typ := binary.LittleEndian.Uint16(buf[off+16:])
			if typ != evKey {
				continue
			}
			code := binary.LittleEndian.Uint16(buf[off+18:])
			value := int32(binary.LittleEndian.Uint32(buf[off+20:]))
			switch c.feed(code, value) {
			case chordDown:
				h.press()
			case chordUp:
				h.release()
			}
		}
	}
}

func (h *evdevHotkey) Unregister() {
	h.once.Do(func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		for _, f := range h.files {
			f.Close()
		}
		h.files = nil
	})
}

type chordEdge int

const (
	chordNone chordEdge = iota
	chordDown
	chordUp
)

// chord tracks Ctrl+Shift+D across key events. Value 1 is a press,
// 0 a release and 2 an autorepeat.
type chord struct {
	ctrl, shift, held bool
}

func (c *chord) feed(code uint16, value int32) chordEdge {
	if value == 2 {
		return chordNone
	}
	down := value == 1
	switch code {
	case keyLCtrl, keyRCtrl:
		c.ctrl = down
	case keyLShift, keyRShift:
		c.shift = down
	case keyD:
		switch {
		case down && !c.held && c.ctrl && c.shift:
			c.held = true
			return chordDown
		case !down && c.held:
			c.held = false
			return chordUp
		}
	}
	return chordNone
}

func keyboards() ([]string, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("scanning input devices: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "event") && hasKeys(e.Name()) {
			paths = append(paths, filepath.Join(inputDir, e.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, errNoKeyboard
	}
	return paths, nil
}

// hasKeys reports whether the device advertises a full key bitmap. Mice and
// power buttons expose a handful of bits only.
func hasKeys(event string) bool {
	data, err := os.ReadFile(filepath.Join(sysDir, event, "device", "capabilities", "key"))
	if err != nil {
		return false
	}
	return len(strings.TrimSpace(string(data))) > 10
}

// Diagnose checks that at least one keyboard can be opened.
func Diagnose() (string, error) {
	paths, err := keyboards()
	if err != nil {
		return "", err
	}
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			continue
		}
		f.Close()
		return fmt.Sprintf("%d keyboard(s), reading %s", len(paths), p), nil
	}
	return "", fmt.Errorf("%d keyboard(s) found but none readable: %s", len(paths), inputGroupHint)
}
