// Package notify shows user-visible notices: desktop notifications for
// messages and short synthesized cues for dictation start, stop and errors.
package notify

import (
	"sync"

	"github.com/gen2brain/beeep"

	"dysaccess/log"
)

const AppTitle = "DysAccess Buddy"

// Desktop sends notices through the OS notification center.
type Desktop struct {
	title string
	send  func(title, message string) error
	alert func(title, message string) error

	mu     sync.Mutex
	silent bool
}

func New() *Desktop {
	return &Desktop{
		title: AppTitle,
		send:  func(title, message string) error { return beeep.Notify(title, message, "") },
		alert: func(title, message string) error { return beeep.Alert(title, message, "") },
	}
}

// SetSilent turns notifications and cues off, e.g. in tests or headless runs.
func (d *Desktop) SetSilent(on bool) {
	d.mu.Lock()
	d.silent = on
	d.mu.Unlock()
	setCuesDisabled(on)
}

func (d *Desktop) isSilent() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.silent
}

func (d *Desktop) Info(message string) {
	if d.isSilent() {
		return
	}
	if err := d.send(d.title, message); err != nil {
		log.Warnf("notify: %v", err)
	}
}

// Error shows message as an alert, which also plays the system sound.
func (d *Desktop) Error(message string) {
	if d.isSilent() {
		return
	}
	if err := d.alert(d.title, message); err != nil {
		log.Warnf("notify alert: %v", err)
	}
}

func (d *Desktop) Cue(c Cue) {
	if d.isSilent() {
		return
	}
	play(c)
}
