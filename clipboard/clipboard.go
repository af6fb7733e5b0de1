// Package clipboard is where dictated text lands when no input has focus.
package clipboard

import cb "github.com/atotto/clipboard"

func Read() (string, error) {
	return cb.ReadAll()
}

func Copy(text string) error {
	return cb.WriteAll(text)
}

// System is the desktop clipboard. With AutoPaste set, each write is
// followed by a paste keystroke into the frontmost application.
type System struct {
	AutoPaste bool

	copy  func(string) error
	paste func() error
}

func New(autoPaste bool) *System {
	return &System{AutoPaste: autoPaste, copy: Copy, paste: Paste}
}

func (s *System) Write(text string) error {
	if err := s.copy(text); err != nil {
		return err
	}
	if !s.AutoPaste {
		return nil
	}
	return s.paste()
}
