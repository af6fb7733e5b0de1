package main

import (
	"context"
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dysaccess/dictation"
	"dysaccess/registry"
	"dysaccess/shortcut"
	"dysaccess/toolbar"
)

type fakeClient struct {
	mu        sync.Mutex
	calls     []string
	submitted []shortcut.Record
	err       error
}

func (c *fakeClient) record(s string) {
	c.mu.Lock()
	c.calls = append(c.calls, s)
	c.mu.Unlock()
}

func (c *fakeClient) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func (c *fakeClient) OpenExternalURL(_ context.Context, url string) (bool, error) {
	c.record("url:" + url)
	return true, c.err
}

func (c *fakeClient) LaunchLocalProgram(_ context.Context, path string) error {
	c.record("app:" + path)
	return c.err
}

func (c *fakeClient) OpenShortcutEditor(context.Context, *shortcut.Record) error {
	c.record("editor")
	return nil
}

func (c *fakeClient) CloseShortcutEditor(context.Context) error {
	c.record("close")
	return nil
}

func (c *fakeClient) SubmitNewShortcut(_ context.Context, r shortcut.Record) (bool, error) {
	c.record("add")
	c.mu.Lock()
	c.submitted = append(c.submitted, r)
	c.mu.Unlock()
	return c.err == nil, c.err
}

func (c *fakeClient) SubmitShortcutEdit(_ context.Context, r shortcut.Record) (bool, error) {
	c.record("update")
	return true, nil
}

func (c *fakeClient) ToggleDictation(context.Context) (bool, error) {
	c.record("dictation")
	return true, nil
}

type tuiFixture struct {
	m      tuiModel
	reg    *registry.Registry
	client *fakeClient
	focus  *toolbar.Focus
	sent   []tea.Msg
}

func newTUIFixture(t *testing.T) *tuiFixture {
	t.Helper()
	reg := registry.New(nil, registry.Options{Defaults: []shortcut.Record{
		{ID: "a", Name: "Wikipédia", Kind: shortcut.KindWeb, URL: "https://fr.wikipedia.org", Icon: shortcut.IconBook, Color: "Vert"},
		{ID: "b", Name: "Traitement de texte", Kind: shortcut.KindApp, Path: "/usr/bin/libreoffice", Icon: shortcut.IconFileText, Color: "Bleu"},
		{ID: "c", Name: "Musique", Kind: shortcut.KindWeb, URL: "https://example.org/music", Icon: shortcut.IconMusic, Color: "Orange"},
	}})
	t.Cleanup(func() { reg.Close() })
	f := &tuiFixture{reg: reg, client: &fakeClient{}, focus: &toolbar.Focus{}}
	tb := toolbar.New(reg, f.client)
	f.m = newTUIModel(context.Background(), tb, f.client, f.focus)
	f.m.send = func(msg tea.Msg) { f.sent = append(f.sent, msg) }
	return f
}

func (f *tuiFixture) update(msg tea.Msg) tea.Cmd {
	next, cmd := f.m.Update(msg)
	f.m = next.(tuiModel)
	return cmd
}

func (f *tuiFixture) press(keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		cmd = f.update(keyMsg(k))
	}
	return cmd
}

// run executes cmd the way the program would and feeds its result back.
func (f *tuiFixture) run(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	f.update(cmd())
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func TestTUISelection(t *testing.T) {
	f := newTUIFixture(t)
	f.press("right", "right", "right")
	assert.Equal(t, 2, f.m.sel)
	f.press("left")
	assert.Equal(t, 1, f.m.sel)
	f.press("h", "h")
	assert.Equal(t, 0, f.m.sel)
}

func TestTUIOpenRunsOffTheLoop(t *testing.T) {
	f := newTUIFixture(t)
	cmd := f.press("enter")
	assert.Empty(t, f.client.Calls(), "host is called by the command, not by Update")

	f.run(t, cmd)
	assert.Equal(t, []string{"url:https://fr.wikipedia.org"}, f.client.Calls())
	assert.Contains(t, f.m.flash, "Wikipédia")
	assert.False(t, f.m.flashErr)

	f.run(t, f.press("l", " "))
	assert.Equal(t, "app:/usr/bin/libreoffice", f.client.Calls()[1])
}

func TestTUIOpenFailure(t *testing.T) {
	f := newTUIFixture(t)
	f.client.err = errors.New("introuvable")
	f.run(t, f.press("enter"))
	assert.True(t, f.m.flashErr)
	assert.Contains(t, f.m.flash, "Échec du lancement")
}

func TestTUIEditModeGuardsControls(t *testing.T) {
	f := newTUIFixture(t)
	assert.Nil(t, f.press("a"))
	assert.Nil(t, f.press("x"))
	assert.Equal(t, 3, f.reg.Len())

	f.press("e")
	require.True(t, f.m.tb.Editing())
	f.run(t, f.press("a"))
	assert.Equal(t, []string{"editor"}, f.client.Calls())

	f.press("right", "x")
	assert.Equal(t, 2, f.reg.Len())
	assert.Contains(t, f.m.flash, "Traitement de texte")
}

func TestTUIRemovalRefreshesList(t *testing.T) {
	f := newTUIFixture(t)
	f.press("e", "right", "right", "x")
	f.update(shortcutsMsg{list: f.reg.List()})
	assert.Len(t, f.m.shortcuts, 2)
	assert.Equal(t, 1, f.m.sel, "selection clamps to the new end")
}

func TestTUICollapse(t *testing.T) {
	f := newTUIFixture(t)
	f.press("c")
	assert.True(t, f.m.collapsed)
	assert.Nil(t, f.press("enter"), "shortcuts are not reachable while collapsed")
	assert.NotContains(t, f.m.View(), "Musique")
	f.run(t, f.press("v"))
	assert.Equal(t, []string{"dictation"}, f.client.Calls())
}

func TestTUIHiddenShowsOnAnyKey(t *testing.T) {
	f := newTUIFixture(t)
	f.update(toolbarVisibleMsg{visible: false})
	assert.Contains(t, f.m.View(), "masqué")
	f.press("x")
	assert.False(t, f.m.hidden)
	assert.Equal(t, 3, f.reg.Len())
}

func TestTUIEditorSubmit(t *testing.T) {
	f := newTUIFixture(t)
	f.update(editorOpenMsg{form: toolbar.NewForm(nil)})
	require.NotNil(t, f.m.form)

	f.press("Vikidia", "tab", "tab", "https://fr.vikidia.org")
	cmd := f.press("ctrl+s")
	assert.Empty(t, f.m.formErr)
	f.run(t, cmd)

	require.Len(t, f.client.submitted, 1)
	got := f.client.submitted[0]
	assert.Equal(t, "Vikidia", got.Name)
	assert.Equal(t, shortcut.KindWeb, got.Kind)
	assert.Equal(t, "https://fr.vikidia.org", got.URL)
	assert.Contains(t, f.m.flash, "Vikidia")
}

func TestTUIEditorSubmitRefused(t *testing.T) {
	f := newTUIFixture(t)
	f.client.err = shortcut.CapacityError(3)
	f.update(editorOpenMsg{form: toolbar.NewForm(nil)})

	f.press("Vikidia", "tab", "tab", "https://fr.vikidia.org")
	f.run(t, f.press("ctrl+s"))

	require.NotNil(t, f.m.form, "the editor stays open")
	assert.Equal(t, "La barre est pleine", f.m.formErr)
	assert.Empty(t, f.m.flash)
}

func TestTUIEditorValidation(t *testing.T) {
	f := newTUIFixture(t)
	f.update(editorOpenMsg{form: toolbar.NewForm(nil)})
	assert.Nil(t, f.press("ctrl+s"))
	assert.Contains(t, f.m.formErr, "Champ invalide")
	assert.Empty(t, f.client.Calls())

	f.press("N")
	assert.Empty(t, f.m.formErr, "typing clears the error")
}

func TestTUIEditorCycleKind(t *testing.T) {
	f := newTUIFixture(t)
	f.update(editorOpenMsg{form: toolbar.NewForm(nil)})
	f.press("tab", "right")
	assert.Equal(t, shortcut.KindApp, f.m.form.Kind)
	assert.Equal(t, "Chemin vers le programme", f.m.inputs[1].Placeholder)
}

func TestTUIEditorPrefill(t *testing.T) {
	f := newTUIFixture(t)
	rec := f.reg.List()[1]
	f.update(editorOpenMsg{form: toolbar.NewForm(&rec)})
	assert.Equal(t, "Traitement de texte", f.m.inputs[0].Value())
	assert.Equal(t, "/usr/bin/libreoffice", f.m.inputs[1].Value())
	assert.Contains(t, f.m.View(), "Modifier")
}

func TestTUIEditorCancel(t *testing.T) {
	f := newTUIFixture(t)
	f.update(editorOpenMsg{form: toolbar.NewForm(nil)})
	f.run(t, f.press("esc"))
	assert.Equal(t, []string{"close"}, f.client.Calls())

	f.update(editorCloseMsg{})
	assert.Nil(t, f.m.form)
	assert.False(t, f.focus.Focused())
}

func TestTUIDictationTargetsFocusedField(t *testing.T) {
	f := newTUIFixture(t)
	assert.False(t, f.focus.Focused())

	f.update(editorOpenMsg{form: toolbar.NewForm(nil)})
	require.True(t, f.focus.Focused())

	f.focus.Append("bonjour")
	require.Len(t, f.sent, 1)
	f.update(f.sent[0])
	assert.Equal(t, "bonjour", f.m.inputs[0].Value())
	assert.Equal(t, "bonjour", f.m.form.Name)

	f.press("tab")
	assert.False(t, f.focus.Focused(), "choice fields take no dictation")
	f.press("tab")
	assert.True(t, f.focus.Focused())
}

func TestTUIDictationStatus(t *testing.T) {
	f := newTUIFixture(t)
	f.update(dictationMsg{status: dictation.Status{State: dictation.Listening}})
	assert.Contains(t, f.m.View(), "Dictée en cours")

	f.update(dictationMsg{status: dictation.Status{State: dictation.Failed, Kind: dictation.NoSpeechDetected}})
	assert.Contains(t, f.m.View(), dictation.NoSpeechDetected.Message())
}

func TestTUIAlwaysOnTop(t *testing.T) {
	f := newTUIFixture(t)
	f.update(alwaysOnTopMsg{on: false})
	assert.Contains(t, f.m.View(), "pas au premier plan")
}

func TestTUIWindowsTracksState(t *testing.T) {
	w := newTUIWindows()
	assert.True(t, w.ToolbarVisible())
	w.HideToolbar()
	assert.False(t, w.ToolbarVisible())

	url, err := shortcut.EditorURL("dysaccess://editor", nil)
	require.NoError(t, err)
	require.NoError(t, w.OpenEditor(url))
	assert.True(t, w.EditorOpen())
	w.CloseEditor()
	assert.False(t, w.EditorOpen())

	assert.Error(t, w.OpenEditor("::"))
}
