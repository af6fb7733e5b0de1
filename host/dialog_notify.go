//go:build !gui

package host

import "dysaccess/notify"

// NotifyDialog reports errors as desktop alerts when no window toolkit is built in.
type NotifyDialog struct {
	d *notify.Desktop
}

func (n NotifyDialog) Error(title, message string) {
	n.d.Error(title + " : " + message)
}

func NewDialog() Dialog { return NotifyDialog{d: notify.New()} }
