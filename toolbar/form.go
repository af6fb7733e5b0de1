package toolbar

import (
	"context"
	"errors"

	"dysaccess/shortcut"
)

// ErrNoPrimary is returned when the toolbar window did not take a submission.
var ErrNoPrimary = errors.New("la barre d'outils n'est pas disponible")

type Field int

const (
	FieldName Field = iota
	FieldKind
	FieldTarget
	FieldIcon
	FieldColor
)

var Fields = []Field{FieldName, FieldKind, FieldTarget, FieldIcon, FieldColor}

// Label is the French caption for f. The target caption depends on kind.
func (f Field) Label(kind shortcut.Kind) string {
	switch f {
	case FieldName:
		return "Nom"
	case FieldKind:
		return "Type"
	case FieldTarget:
		if kind == shortcut.KindWeb {
			return "Adresse web"
		}
		return "Chemin de l'application"
	case FieldIcon:
		return "Icône"
	case FieldColor:
		return "Couleur"
	}
	return ""
}

// Text reports whether f takes free text (and so can receive dictation).
func (f Field) Text() bool { return f == FieldName || f == FieldTarget }

// Form is the editor's state. The zero value is not ready; use NewForm.
type Form struct {
	ID     string
	Name   string
	Kind   shortcut.Kind
	Icon   shortcut.IconKey
	Color  shortcut.ColorKey
	Target string
}

// NewForm starts an add form, or an edit form when existing is set.
func NewForm(existing *shortcut.Record) *Form {
	if existing == nil {
		return &Form{Kind: shortcut.KindWeb, Icon: shortcut.DefaultIcon, Color: shortcut.DefaultColor}
	}
	r := *existing
	f := &Form{ID: r.ID, Name: r.Name, Kind: r.Kind, Icon: r.Icon, Color: r.Color}
	if !f.Kind.Valid() {
		f.Kind = shortcut.KindWeb
	}
	if !f.Icon.Valid() {
		f.Icon = shortcut.DefaultIcon
	}
	if !f.Color.Valid() {
		f.Color = shortcut.DefaultColor
	}
	f.Target = r.Target()
	return f
}

// FromURL builds the form an editor navigation target asks for.
func FromURL(raw string) (*Form, error) {
	r, err := shortcut.ParseEditorURL(raw)
	if err != nil {
		return nil, err
	}
	return NewForm(r), nil
}

func (f *Form) Editing() bool { return f.ID != "" }

func (f *Form) Title() string {
	if f.Editing() {
		return "Modifier le raccourci"
	}
	return "Ajouter un raccourci"
}

// Value returns the current text of a text field.
func (f *Form) Value(field Field) string {
	switch field {
	case FieldName:
		return f.Name
	case FieldTarget:
		return f.Target
	case FieldKind:
		return kindLabel(f.Kind)
	case FieldIcon:
		return string(f.Icon)
	case FieldColor:
		return string(f.Color)
	}
	return ""
}

func (f *Form) SetValue(field Field, v string) {
	switch field {
	case FieldName:
		f.Name = v
	case FieldTarget:
		f.Target = v
	}
}

// Append adds dictated text to a text field.
func (f *Form) Append(field Field, text string) {
	if field.Text() {
		f.SetValue(field, f.Value(field)+text)
	}
}

// Cycle steps a choice field forward (delta 1) or back (-1).
func (f *Form) Cycle(field Field, delta int) {
	switch field {
	case FieldKind:
		if f.Kind == shortcut.KindWeb {
			f.Kind = shortcut.KindApp
		} else {
			f.Kind = shortcut.KindWeb
		}
	case FieldIcon:
		f.Icon = shortcut.Icons[step(indexOf(shortcut.IconKeys(), string(f.Icon)), delta, len(shortcut.Icons))]
	case FieldColor:
		f.Color = shortcut.Colors[step(indexOf(shortcut.ColorKeys(), string(f.Color)), delta, len(shortcut.Colors))].Key
	}
}

func step(i, delta, n int) int {
	return ((i+delta)%n + n) % n
}

func indexOf(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return 0
}

func kindLabel(k shortcut.Kind) string {
	if k == shortcut.KindApp {
		return "Application"
	}
	return "Site web"
}

// KindLabels are the choices offered for FieldKind, in Kinds order.
var (
	Kinds      = []shortcut.Kind{shortcut.KindWeb, shortcut.KindApp}
	KindLabels = []string{kindLabel(shortcut.KindWeb), kindLabel(shortcut.KindApp)}
)

// KindFromLabel maps a KindLabels entry back to its kind.
func KindFromLabel(label string) shortcut.Kind {
	for i, l := range KindLabels {
		if l == label {
			return Kinds[i]
		}
	}
	return shortcut.KindWeb
}

// Record returns the normalized record the form describes.
func (f *Form) Record() shortcut.Record {
	r := shortcut.Record{ID: f.ID, Name: f.Name, Kind: f.Kind, Icon: f.Icon, Color: f.Color}
	if f.Kind == shortcut.KindWeb {
		r.URL = f.Target
	} else {
		r.Path = f.Target
	}
	return shortcut.Normalize(r)
}

func (f *Form) Validate() error {
	return shortcut.Validate(f.Record())
}

// Submit validates and sends the form to the toolbar window through the
// host. The host closes the editor once the toolbar has applied it; a
// registry refusal comes back as the error and leaves the editor open.
func (f *Form) Submit(ctx context.Context, c Client) error {
	r := f.Record()
	if err := shortcut.Validate(r); err != nil {
		return err
	}
	var ok bool
	var err error
	if f.Editing() {
		ok, err = c.SubmitShortcutEdit(ctx, r)
	} else {
		ok, err = c.SubmitNewShortcut(ctx, r)
	}
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoPrimary
	}
	return nil
}

// Cancel closes the editor without submitting.
func (f *Form) Cancel(ctx context.Context, c Client) error {
	return c.CloseShortcutEditor(ctx)
}
