//go:build gui

package gui

import (
	"context"
	"errors"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"dysaccess/shortcut"
	"dysaccess/toolbar"
)

// dictEntry is an Entry that tells the dictation target when it has focus.
type dictEntry struct {
	widget.Entry
	onFocus func(focused bool)
}

func newDictEntry(onFocus func(bool)) *dictEntry {
	e := &dictEntry{onFocus: onFocus}
	e.ExtendBaseWidget(e)
	return e
}

func (e *dictEntry) FocusGained() {
	e.Entry.FocusGained()
	e.onFocus(true)
}

func (e *dictEntry) FocusLost() {
	e.Entry.FocusLost()
	e.onFocus(false)
}

type editorWindow struct {
	win    fyne.Window
	form   *toolbar.Form
	client toolbar.Client
	focus  *toolbar.Focus

	name, target *dictEntry
	kind         *widget.Select
	icon         *widget.Select
	color        *widget.Select
	fields       *widget.Form
	errLabel     *widget.Label
}

func newEditorWindow(app fyne.App, f *toolbar.Form, client toolbar.Client, focus *toolbar.Focus, onClosed func()) *editorWindow {
	e := &editorWindow{win: app.NewWindow(f.Title()), form: f, client: client, focus: focus}

	e.name = newDictEntry(nil)
	e.name.onFocus = e.focusChanged(e.name)
	e.name.SetText(f.Name)
	e.target = newDictEntry(nil)
	e.target.onFocus = e.focusChanged(e.target)
	e.target.SetText(f.Target)

	e.kind = widget.NewSelect(toolbar.KindLabels, func(label string) {
		e.form.Kind = toolbar.KindFromLabel(label)
		e.relabel()
	})
	e.kind.SetSelected(f.Value(toolbar.FieldKind))
	e.icon = widget.NewSelect(shortcut.IconKeys(), nil)
	e.icon.SetSelected(string(f.Icon))
	e.color = widget.NewSelect(shortcut.ColorKeys(), nil)
	e.color.SetSelected(string(f.Color))

	e.errLabel = widget.NewLabel("")
	e.errLabel.Wrapping = fyne.TextWrapWord
	e.errLabel.Hide()

	e.fields = &widget.Form{
		Items: []*widget.FormItem{
			widget.NewFormItem(toolbar.FieldName.Label(f.Kind), e.name),
			widget.NewFormItem(toolbar.FieldKind.Label(f.Kind), e.kind),
			widget.NewFormItem(toolbar.FieldTarget.Label(f.Kind), e.target),
			widget.NewFormItem(toolbar.FieldIcon.Label(f.Kind), e.icon),
			widget.NewFormItem(toolbar.FieldColor.Label(f.Kind), e.color),
		},
		SubmitText: "Enregistrer",
		CancelText: "Annuler",
		OnSubmit:   e.submit,
		OnCancel:   e.cancel,
	}
	e.relabel()

	e.win.SetContent(container.NewPadded(container.NewVBox(e.fields, e.errLabel)))
	e.win.Resize(fyne.NewSize(440, 0))
	e.win.SetOnClosed(func() {
		if focus != nil {
			focus.Clear()
		}
		onClosed()
	})
	return e
}

func (e *editorWindow) show() {
	e.win.Show()
	e.win.Canvas().Focus(e.name)
}

// focusChanged routes dictation into entry while it has focus.
func (e *editorWindow) focusChanged(entry *dictEntry) func(bool) {
	return func(focused bool) {
		if e.focus == nil {
			return
		}
		if !focused {
			e.focus.Clear()
			return
		}
		e.focus.Set(func(text string) {
			fyne.Do(func() { entry.Append(text) })
		})
	}
}

func (e *editorWindow) relabel() {
	if e.fields == nil {
		return
	}
	e.fields.Items[2].Text = toolbar.FieldTarget.Label(e.form.Kind)
	if e.form.Kind == shortcut.KindWeb {
		e.target.SetPlaceHolder("https://...")
	} else {
		e.target.SetPlaceHolder("Chemin vers le programme")
	}
	e.fields.Refresh()
}

func (e *editorWindow) sync() {
	e.form.Name = e.name.Text
	e.form.Target = e.target.Text
	e.form.Kind = toolbar.KindFromLabel(e.kind.Selected)
	e.form.Icon = shortcut.IconKey(e.icon.Selected)
	e.form.Color = shortcut.ColorKey(e.color.Selected)
}

func (e *editorWindow) submit() {
	e.sync()
	if err := e.form.Validate(); err != nil {
		e.showError(err)
		return
	}
	f := *e.form
	go func() {
		// The host closes this window once the toolbar has the shortcut.
		if err := f.Submit(context.Background(), e.client); err != nil {
			fyne.Do(func() { e.showError(err) })
		}
	}()
}

func (e *editorWindow) cancel() {
	go e.form.Cancel(context.Background(), e.client)
}

func (e *editorWindow) showError(err error) {
	var msg string
	if errors.Is(err, toolbar.ErrNoPrimary) {
		msg = "La barre d'outils n'a pas reçu le raccourci"
	} else {
		msg = err.Error()
	}
	e.errLabel.SetText(msg)
	e.errLabel.Show()
}
