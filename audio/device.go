package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// ErrCancelled is returned when the picker is dismissed with Ctrl+C or Esc.
var ErrCancelled = errors.New("device selection cancelled")

// SelectDevice lets the user choose a microphone on the terminal. A single
// device is returned without prompting.
func SelectDevice(ctx Context) (*DeviceInfo, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("no capture devices found")
	}
	if len(devices) == 1 {
		return &devices[0], nil
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("setting raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	i, err := pick(os.Stdin, os.Stdout, devices)
	if err != nil {
		return nil, err
	}
	return &devices[i], nil
}

type picker struct {
	devices []DeviceInfo
	cursor  int
}

// pick runs the picker over raw terminal input and returns the chosen index.
func pick(in io.Reader, out io.Writer, devices []DeviceInfo) (int, error) {
	p := &picker{devices: devices}
	p.render(out, false)
	buf := make([]byte, 3)
	for {
		n, err := in.Read(buf)
		if err != nil {
			return 0, fmt.Errorf("reading input: %w", err)
		}
		done, err := p.key(buf[:n])
		if done || err != nil {
			fmt.Fprint(out, "\r\n")
			return p.cursor, err
		}
		p.render(out, true)
	}
}

// key applies one keypress. It reports done on Enter.
func (p *picker) key(b []byte) (bool, error) {
	switch {
	case len(b) == 1 && b[0] == '\r':
		return true, nil
	case len(b) == 1 && (b[0] == 3 || b[0] == 0x1b):
		return false, ErrCancelled
	case len(b) == 1 && b[0] == 'j', len(b) == 3 && b[0] == 0x1b && b[1] == '[' && b[2] == 'B':
		if p.cursor < len(p.devices)-1 {
			p.cursor++
		}
	case len(b) == 1 && b[0] == 'k', len(b) == 3 && b[0] == 0x1b && b[1] == '[' && b[2] == 'A':
		if p.cursor > 0 {
			p.cursor--
		}
	}
	return false, nil
}

func (p *picker) render(w io.Writer, redraw bool) {
	if redraw {
		fmt.Fprintf(w, "\x1b[%dA", len(p.devices)+2)
	}
	fmt.Fprint(w, "\r\x1b[J")
	fmt.Fprint(w, "Choisissez le micro (↑/↓, Entrée pour valider) :\r\n\r\n")
	for i, d := range p.devices {
		tag := ""
		if IsBluetooth(d.Name) {
			tag = " \x1b[33m[Bluetooth : qualité réduite]\x1b[0m"
		}
		if i == p.cursor {
			fmt.Fprintf(w, "  \x1b[1;36m▶ %s%s\x1b[0m\r\n", d.Name, tag)
		} else {
			fmt.Fprintf(w, "    %s%s\r\n", d.Name, tag)
		}
	}
}
