//go:build gui

package host

import "github.com/sqweek/dialog"

// NativeDialog uses the platform message box.
type NativeDialog struct{}

func (NativeDialog) Error(title, message string) {
	dialog.Message("%s", message).Title(title).Error()
}

func NewDialog() Dialog { return NativeDialog{} }
