package toolbar

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dysaccess/shortcut"
)

func TestNewFormDefaults(t *testing.T) {
	f := NewForm(nil)
	assert.False(t, f.Editing())
	assert.Equal(t, "Ajouter un raccourci", f.Title())
	assert.Equal(t, shortcut.KindWeb, f.Kind)
	assert.Equal(t, shortcut.DefaultIcon, f.Icon)
	assert.Equal(t, shortcut.DefaultColor, f.Color)
}

func TestFormFromEditorURL(t *testing.T) {
	rec := shortcut.Record{ID: "abc", Name: "Calcul", Kind: shortcut.KindApp, Path: "calc.exe", Icon: shortcut.IconCalculator, Color: "Orange"}
	u, err := shortcut.EditorURL("dysaccess://editor", &rec)
	require.NoError(t, err)

	f, err := FromURL(u)
	require.NoError(t, err)
	assert.True(t, f.Editing())
	assert.Equal(t, "Modifier le raccourci", f.Title())
	assert.Equal(t, "calc.exe", f.Target)
	assert.Equal(t, "Chemin de l'application", FieldTarget.Label(f.Kind))

	f, err = FromURL("dysaccess://editor")
	require.NoError(t, err)
	assert.False(t, f.Editing())
}

func TestFormCycleAndAppend(t *testing.T) {
	f := NewForm(nil)
	f.Cycle(FieldKind, 1)
	assert.Equal(t, shortcut.KindApp, f.Kind)
	f.Cycle(FieldIcon, -1)
	assert.Equal(t, shortcut.Icons[len(shortcut.Icons)-1], f.Icon)
	f.Cycle(FieldColor, 1)
	assert.Equal(t, shortcut.Colors[1].Key, f.Color)

	f.Append(FieldName, "Mon ")
	f.Append(FieldName, "jeu ")
	f.Append(FieldIcon, "ignored")
	assert.Equal(t, "Mon jeu ", f.Name)
	assert.Equal(t, "Mon jeu", f.Record().Name)
}

func TestFormRecordClearsOtherTarget(t *testing.T) {
	f := NewForm(nil)
	f.Name = "Dico"
	f.Target = " https://dico.example "
	r := f.Record()
	assert.Equal(t, "https://dico.example", r.URL)
	assert.Empty(t, r.Path)
	assert.NoError(t, f.Validate())

	f.Cycle(FieldKind, 1)
	r = f.Record()
	assert.Empty(t, r.URL)
	assert.Equal(t, "https://dico.example", r.Path)
}

func TestFormSubmit(t *testing.T) {
	c := &fakeClient{deliver: true}
	f := NewForm(nil)
	f.Target = "https://dico.example"

	err := f.Submit(context.Background(), c)
	assert.ErrorIs(t, err, shortcut.ErrInvalid)
	assert.Empty(t, c.calls)

	f.Name = "Dico"
	require.NoError(t, f.Submit(context.Background(), c))
	assert.Equal(t, []string{"add"}, c.calls)

	edit := NewForm(&shortcut.Record{ID: "x1", Name: "Dico", Kind: shortcut.KindWeb, URL: "https://a.example", Icon: shortcut.IconGlobe, Color: "Bleu"})
	require.NoError(t, edit.Submit(context.Background(), c))
	assert.Equal(t, "update", c.calls[1])
	assert.Equal(t, "x1", c.submitted[1].ID)

	c.deliver = false
	assert.ErrorIs(t, f.Submit(context.Background(), c), ErrNoPrimary)

	c.err = shortcut.CapacityError(6)
	assert.ErrorIs(t, f.Submit(context.Background(), c), shortcut.ErrCapacity, "refusals from the toolbar reach the editor")
	c.err = nil

	require.NoError(t, f.Cancel(context.Background(), c))
	assert.Equal(t, "close", c.calls[len(c.calls)-1])
}

func TestFocusTarget(t *testing.T) {
	var f Focus
	assert.False(t, f.Focused())
	f.Append("lost")

	var got string
	f.Set(func(s string) { got += s })
	assert.True(t, f.Focused())
	f.Append("bonjour ")
	assert.Equal(t, "bonjour ", got)

	f.Clear()
	assert.False(t, f.Focused())
}
