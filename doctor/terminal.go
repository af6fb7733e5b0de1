package doctor

import (
	"io"

	"golang.org/x/term"
)

// saveTerminal snapshots the mode of the terminal behind r, if any, and
// returns a func that puts it back. Global hotkeys and audio backends can
// leave the terminal in raw mode.
func saveTerminal(r io.Reader) (restore func()) {
	f, ok := r.(interface{ Fd() uintptr })
	if !ok {
		return func() {}
	}
	fd := int(f.Fd())
	st, err := term.GetState(fd)
	if err != nil {
		return func() {}
	}
	return func() { term.Restore(fd, st) }
}
