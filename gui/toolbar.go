//go:build gui

package gui

import (
	"context"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"dysaccess/dictation"
	"dysaccess/log"
	"dysaccess/shortcut"
	"dysaccess/toolbar"
)

type toolbarView struct {
	tb     *toolbar.Toolbar
	client toolbar.Client
	quit   func()

	tiles  *fyne.Container
	add    *widget.Button
	edit   *widget.Button
	mic    *widget.Button
	pulse  *pulse
	status *widget.Label
	clear  *time.Timer
}

func newToolbarView(tb *toolbar.Toolbar, client toolbar.Client, quit func()) *toolbarView {
	v := &toolbarView{tb: tb, client: client, quit: quit}
	v.tiles = container.NewHBox()
	v.add = widget.NewButtonWithIcon("", theme.ContentAddIcon(), func() {
		go v.call("add", v.tb.Add)
	})
	v.edit = widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		v.tb.ToggleEditMode()
		v.refresh()
	})
	v.mic = widget.NewButtonWithIcon("Dictée", theme.MediaRecordIcon(), func() {
		go v.call("dictation", v.tb.ToggleDictation)
	})
	v.pulse = newPulse()
	v.status = widget.NewLabel("")
	v.status.Hide()
	v.refresh()
	return v
}

func (v *toolbarView) content() fyne.CanvasObject {
	hide := widget.NewButtonWithIcon("", theme.CancelIcon(), v.quit)
	row := container.NewHBox(v.tiles, v.add, v.edit, v.mic, v.pulse, hide)
	return container.NewVBox(row, v.status)
}

// refresh rebuilds the shortcut tiles. Must run on the fyne thread.
func (v *toolbarView) refresh() {
	editing := v.tb.Editing()
	var objs []fyne.CanvasObject
	for _, r := range v.tb.Shortcuts() {
		objs = append(objs, v.tile(r, editing))
	}
	v.tiles.Objects = objs
	v.tiles.Refresh()
	if editing {
		v.add.Show()
		v.edit.Importance = widget.HighImportance
	} else {
		v.add.Hide()
		v.edit.Importance = widget.MediumImportance
	}
	v.edit.Refresh()
}

func (v *toolbarView) tile(r shortcut.Record, editing bool) fyne.CanvasObject {
	bg := canvas.NewRectangle(accent(r.Color))
	bg.CornerRadius = 8
	id := r.ID
	open := widget.NewButtonWithIcon(r.Name, iconFor(r.Icon), func() {
		go v.call("open", func(ctx context.Context) error { return v.tb.Open(ctx, id) })
	})
	open.Importance = widget.LowImportance
	if !editing {
		return container.NewStack(bg, open)
	}
	modify := widget.NewButtonWithIcon("", theme.DocumentCreateIcon(), func() {
		go v.call("edit", func(ctx context.Context) error { return v.tb.Edit(ctx, id) })
	})
	remove := widget.NewButtonWithIcon("", theme.DeleteIcon(), func() {
		if err := v.tb.Remove(id); err != nil {
			v.flash(err.Error())
		}
	})
	return container.NewStack(bg, container.NewHBox(open, modify, remove))
}

// call runs a host request off the fyne thread and reports failures.
func (v *toolbarView) call(action string, fn func(context.Context) error) {
	if err := fn(context.Background()); err != nil {
		log.Warnf("toolbar %s: %v", action, err)
		msg := err.Error()
		if action == "open" {
			msg = "Échec du lancement : " + msg
		}
		fyne.Do(func() { v.flash(msg) })
	}
}

func (v *toolbarView) setDictation(s dictation.Status) {
	switch s.State {
	case dictation.Listening:
		v.mic.SetIcon(theme.MediaStopIcon())
		v.mic.Importance = widget.DangerImportance
		v.pulse.set(pulseListen, true)
	case dictation.Failed:
		v.mic.SetIcon(theme.MediaRecordIcon())
		v.mic.Importance = widget.WarningImportance
		v.pulse.set(pulseError, false)
		v.flash(s.Kind.Message())
	default:
		v.mic.SetIcon(theme.MediaRecordIcon())
		v.mic.Importance = widget.MediumImportance
		v.pulse.set(pulseIdle, false)
	}
	v.mic.Refresh()
}

// flash shows msg under the toolbar for a few seconds.
func (v *toolbarView) flash(msg string) {
	v.status.SetText(msg)
	v.status.Show()
	if v.clear != nil {
		v.clear.Stop()
	}
	v.clear = time.AfterFunc(4*time.Second, func() {
		fyne.Do(v.status.Hide)
	})
}
