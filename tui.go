package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"dysaccess/dictation"
	"dysaccess/hotkey"
	"dysaccess/shortcut"
	"dysaccess/toolbar"
)

// TUI message types
type shortcutsMsg struct{ list []shortcut.Record }
type dictationMsg struct{ status dictation.Status }
type editorOpenMsg struct{ form *toolbar.Form }
type editorCloseMsg struct{}
type editorFocusMsg struct{}
type toolbarVisibleMsg struct{ visible bool }
type alwaysOnTopMsg struct{ on bool }
type dictatedMsg struct{ text string } // text for the focused input
type flashMsg struct {
	text string
	err  bool
}
type resultMsg struct {
	action string
	name   string
	err    error
}

type keyMap struct {
	Left, Right, Open, EditMode, Add, Modify, Remove key.Binding
	Dictation, Collapse, Quit                        key.Binding
	Next, Prev, Submit, Cancel                       key.Binding
}

var keys = keyMap{
	Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/→", "choisir")),
	Right:     key.NewBinding(key.WithKeys("right", "l")),
	Open:      key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("entrée", "ouvrir")),
	EditMode:  key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "modifier la barre")),
	Add:       key.NewBinding(key.WithKeys("a", "+"), key.WithHelp("a", "ajouter")),
	Modify:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "modifier")),
	Remove:    key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "supprimer")),
	Dictation: key.NewBinding(key.WithKeys("v", "ctrl+d"), key.WithHelp("v", "dictée")),
	Collapse:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "replier")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quitter")),

	Next:   key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "champ suivant")),
	Prev:   key.NewBinding(key.WithKeys("shift+tab", "up")),
	Submit: key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "enregistrer")),
	Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("échap", "annuler")),
}

type tuiModel struct {
	ctx    context.Context
	tb     *toolbar.Toolbar
	client toolbar.Client
	focus  *toolbar.Focus
	// send posts a message to the running program; nil before it starts.
	send func(tea.Msg)

	shortcuts []shortcut.Record
	sel       int
	hidden    bool
	collapsed bool
	onTop     bool
	dictation dictation.Status

	form    *toolbar.Form
	field   int
	inputs  [2]textinput.Model // name, target
	formErr string

	flash    string
	flashErr bool
	width    int
	help     help.Model
}

func newTUIModel(ctx context.Context, tb *toolbar.Toolbar, client toolbar.Client, focus *toolbar.Focus) tuiModel {
	m := tuiModel{
		ctx:       ctx,
		tb:        tb,
		client:    client,
		focus:     focus,
		shortcuts: tb.Shortcuts(),
		onTop:     true,
		help:      help.New(),
	}
	for i := range m.inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 512
		m.inputs[i] = ti
	}
	m.inputs[0].Placeholder = "Nom du raccourci"
	return m
}

func (m tuiModel) Init() tea.Cmd {
	return nil
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.form != nil {
			return m.updateEditor(msg)
		}
		return m.updateToolbar(msg)

	case shortcutsMsg:
		m.shortcuts = msg.list
		m.clampSel()

	case dictationMsg:
		m.dictation = msg.status

	case editorOpenMsg:
		m.hidden = false
		return m.openForm(msg.form)

	case editorCloseMsg:
		m.form = nil
		m.formErr = ""
		m.syncFocus()

	case editorFocusMsg:
		m.hidden = false

	case toolbarVisibleMsg:
		m.hidden = !msg.visible

	case alwaysOnTopMsg:
		m.onTop = msg.on

	case dictatedMsg:
		if i, ok := m.focusedInput(); ok {
			m.inputs[i].SetValue(m.inputs[i].Value() + msg.text)
			m.inputs[i].CursorEnd()
			m.form.SetValue(toolbar.Fields[m.field], m.inputs[i].Value())
		}

	case flashMsg:
		m.flash, m.flashErr = msg.text, msg.err

	case resultMsg:
		m.result(msg)
	}
	return m, nil
}

func (m tuiModel) updateToolbar(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.hidden {
		m.hidden = false
		return m, nil
	}
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Collapse):
		m.collapsed = !m.collapsed
	case key.Matches(msg, keys.Dictation):
		return m, m.do("dictation", "", m.tb.ToggleDictation)
	case m.collapsed:
	case key.Matches(msg, keys.Left):
		m.sel--
		m.clampSel()
	case key.Matches(msg, keys.Right):
		m.sel++
		m.clampSel()
	case key.Matches(msg, keys.EditMode):
		m.tb.ToggleEditMode()
	case key.Matches(msg, keys.Open):
		if r, ok := m.selected(); ok {
			return m, m.do("open", r.Name, func(ctx context.Context) error { return m.tb.Open(ctx, r.ID) })
		}
	case !m.tb.Editing():
	case key.Matches(msg, keys.Add):
		return m, m.do("add", "", m.tb.Add)
	case key.Matches(msg, keys.Modify):
		if r, ok := m.selected(); ok {
			return m, m.do("edit", r.Name, func(ctx context.Context) error { return m.tb.Edit(ctx, r.ID) })
		}
	case key.Matches(msg, keys.Remove):
		if r, ok := m.selected(); ok {
			if err := m.tb.Remove(r.ID); err != nil {
				m.flash, m.flashErr = err.Error(), true
			} else {
				m.flash, m.flashErr = fmt.Sprintf("« %s » supprimé", r.Name), false
			}
		}
	}
	return m, nil
}

func (m tuiModel) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	field := toolbar.Fields[m.field]
	switch {
	case key.Matches(msg, keys.Cancel):
		form := m.form
		return m, m.do("cancel", "", func(ctx context.Context) error { return form.Cancel(ctx, m.client) })
	case key.Matches(msg, keys.Submit), msg.Type == tea.KeyEnter && m.field == len(toolbar.Fields)-1:
		return m.submit()
	case key.Matches(msg, keys.Next), msg.Type == tea.KeyEnter:
		return m.moveField(1)
	case key.Matches(msg, keys.Prev):
		return m.moveField(-1)
	case !field.Text() && (msg.Type == tea.KeyLeft || msg.Type == tea.KeyRight):
		delta := 1
		if msg.Type == tea.KeyLeft {
			delta = -1
		}
		m.form.Cycle(field, delta)
		m.refreshTargetPlaceholder()
		return m, nil
	}

	if i, ok := m.focusedInput(); ok {
		var cmd tea.Cmd
		m.inputs[i], cmd = m.inputs[i].Update(msg)
		m.form.SetValue(field, m.inputs[i].Value())
		m.formErr = ""
		return m, cmd
	}
	return m, nil
}

func (m tuiModel) openForm(f *toolbar.Form) (tea.Model, tea.Cmd) {
	m.form = f
	m.formErr = ""
	m.field = 0
	m.inputs[0].SetValue(f.Name)
	m.inputs[1].SetValue(f.Target)
	m.refreshTargetPlaceholder()
	cmd := m.focusField()
	return m, cmd
}

func (m tuiModel) moveField(delta int) (tea.Model, tea.Cmd) {
	n := len(toolbar.Fields)
	m.field = ((m.field+delta)%n + n) % n
	cmd := m.focusField()
	return m, cmd
}

func (m *tuiModel) focusField() tea.Cmd {
	var cmd tea.Cmd
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	if i, ok := m.focusedInput(); ok {
		cmd = m.inputs[i].Focus()
	}
	m.syncFocus()
	return cmd
}

func (m tuiModel) submit() (tea.Model, tea.Cmd) {
	m.form.SetValue(toolbar.FieldName, m.inputs[0].Value())
	m.form.SetValue(toolbar.FieldTarget, m.inputs[1].Value())
	if err := m.form.Validate(); err != nil {
		m.formErr = formError(err)
		return m, nil
	}
	form := m.form
	return m, m.do("submit", form.Record().Name, func(ctx context.Context) error { return form.Submit(ctx, m.client) })
}

// syncFocus points dictation at the focused text field, or at nothing.
func (m *tuiModel) syncFocus() {
	if m.focus == nil {
		return
	}
	if _, ok := m.focusedInput(); ok && m.send != nil {
		send := m.send
		m.focus.Set(func(text string) { send(dictatedMsg{text: text}) })
		return
	}
	m.focus.Clear()
}

func (m tuiModel) focusedInput() (int, bool) {
	if m.form == nil {
		return 0, false
	}
	switch toolbar.Fields[m.field] {
	case toolbar.FieldName:
		return 0, true
	case toolbar.FieldTarget:
		return 1, true
	}
	return 0, false
}

func (m *tuiModel) refreshTargetPlaceholder() {
	if m.form.Kind == shortcut.KindWeb {
		m.inputs[1].Placeholder = "https://..."
	} else {
		m.inputs[1].Placeholder = "Chemin vers le programme"
	}
}

func (m *tuiModel) clampSel() {
	if m.sel >= len(m.shortcuts) {
		m.sel = len(m.shortcuts) - 1
	}
	if m.sel < 0 {
		m.sel = 0
	}
}

func (m tuiModel) selected() (shortcut.Record, bool) {
	if m.sel < 0 || m.sel >= len(m.shortcuts) {
		return shortcut.Record{}, false
	}
	return m.shortcuts[m.sel], true
}

// do runs a host call off the update loop; the host answers by sending
// window messages back into the program.
func (m tuiModel) do(action, name string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return resultMsg{action: action, name: name, err: fn(ctx)}
	}
}

func (m *tuiModel) result(r resultMsg) {
	if r.action == "submit" {
		if r.err != nil {
			m.formErr = formError(r.err)
		} else {
			m.flash, m.flashErr = fmt.Sprintf("« %s » enregistré", r.name), false
		}
		return
	}
	if r.err != nil {
		m.flash, m.flashErr = actionError(r.action, r.err), true
		return
	}
	if r.action == "open" {
		m.flash, m.flashErr = fmt.Sprintf("Ouverture de « %s »", r.name), false
	}
}

func formError(err error) string {
	var ve *shortcut.ValidationError
	switch {
	case errors.Is(err, shortcut.ErrCapacity):
		return "La barre est pleine"
	case errors.As(err, &ve):
		return "Champ invalide : " + ve.Field + " " + ve.Reason
	case errors.Is(err, toolbar.ErrNoPrimary):
		return "La barre d'outils n'a pas reçu le raccourci"
	}
	return err.Error()
}

func actionError(action string, err error) string {
	switch action {
	case "open":
		return "Échec du lancement : " + err.Error()
	case "dictation":
		return "Dictée indisponible : " + err.Error()
	}
	return err.Error()
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	listenStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	labelStyle   = lipgloss.NewStyle().Width(26).Foreground(lipgloss.Color("245"))
	focusedLabel = labelStyle.Foreground(lipgloss.Color("63")).Bold(true)
	tileStyle    = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder())
)

var iconGlyphs = map[shortcut.IconKey]string{
	shortcut.IconFileText:   "▤",
	shortcut.IconGlobe:      "◍",
	shortcut.IconKeyboard:   "⌨",
	shortcut.IconGrid:       "▦",
	shortcut.IconBook:       "❏",
	shortcut.IconCalculator: "±",
	shortcut.IconMusic:      "♪",
	shortcut.IconVideo:      "▶",
	shortcut.IconImage:      "◩",
	shortcut.IconMail:       "✉",
	shortcut.IconPencil:     "✎",
	shortcut.IconGamepad:    "◈",
}

func glyph(k shortcut.IconKey) string {
	if g, ok := iconGlyphs[k]; ok {
		return g
	}
	return iconGlyphs[shortcut.DefaultIcon]
}

func accent(k shortcut.ColorKey) lipgloss.Color {
	c, ok := k.RGB()
	if !ok {
		c, _ = shortcut.DefaultColor.RGB()
	}
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}

func (m tuiModel) View() string {
	if m.hidden {
		return dimStyle.Render("DysAccess Buddy est masqué. Appuyez sur une touche pour l'afficher.")
	}
	if m.form != nil {
		return m.editorView()
	}
	return m.toolbarView()
}

func (m tuiModel) toolbarView() string {
	var b strings.Builder
	head := titleStyle.Render("DysAccess Buddy")
	if m.tb.Editing() {
		head += " " + lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Render("[mode édition]")
	}
	if !m.onTop {
		head += dimStyle.Render("  (pas au premier plan)")
	}
	b.WriteString(head + "\n")

	if !m.collapsed {
		if len(m.shortcuts) == 0 {
			b.WriteString(dimStyle.Render("Aucun raccourci. Appuyez sur e puis a pour en ajouter un.") + "\n")
		} else {
			tiles := make([]string, len(m.shortcuts))
			for i, r := range m.shortcuts {
				style := tileStyle.BorderForeground(accent(r.Color))
				if i == m.sel {
					style = style.Bold(true).Foreground(accent(r.Color)).BorderStyle(lipgloss.ThickBorder())
				}
				label := glyph(r.Icon) + " " + r.Name
				if m.tb.Editing() {
					label += dimStyle.Render(" ✕")
				}
				tiles[i] = style.Render(label)
			}
			b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tiles...) + "\n")
		}
	}

	b.WriteString(m.dictationLine() + "\n")
	if m.flash != "" {
		if m.flashErr {
			b.WriteString(errStyle.Render(m.flash) + "\n")
		} else {
			b.WriteString(okStyle.Render(m.flash) + "\n")
		}
	}

	bindings := []key.Binding{keys.Left, keys.Open, keys.EditMode, keys.Dictation, keys.Collapse, keys.Quit}
	if m.tb.Editing() {
		bindings = []key.Binding{keys.Left, keys.Add, keys.Modify, keys.Remove, keys.EditMode, keys.Quit}
	}
	b.WriteString(m.help.ShortHelpView(bindings))
	return b.String()
}

func (m tuiModel) dictationLine() string {
	s := m.dictation
	switch s.State {
	case dictation.Listening:
		return listenStyle.Render("● Dictée en cours") + dimStyle.Render("  "+hotkey.Combo+" pour arrêter")
	case dictation.Failed:
		line := errStyle.Render("⚠ " + s.Kind.Message())
		if s.Retrying {
			line += dimStyle.Render("  nouvel essai...")
		}
		return line
	}
	return dimStyle.Render("○ Dictée arrêtée  " + hotkey.Combo + " pour dicter")
}

func (m tuiModel) editorView() string {
	f := m.form
	var b strings.Builder
	b.WriteString(titleStyle.Render(f.Title()) + "\n\n")
	for i, field := range toolbar.Fields {
		label := labelStyle
		if i == m.field {
			label = focusedLabel
		}
		var value string
		switch field {
		case toolbar.FieldName:
			value = m.inputs[0].View()
		case toolbar.FieldTarget:
			value = m.inputs[1].View()
		case toolbar.FieldIcon:
			value = "‹ " + glyph(f.Icon) + " " + f.Value(field) + " ›"
		case toolbar.FieldColor:
			value = "‹ " + lipgloss.NewStyle().Foreground(accent(f.Color)).Render("■ "+f.Value(field)) + " ›"
		default:
			value = "‹ " + f.Value(field) + " ›"
		}
		b.WriteString(label.Render(field.Label(f.Kind)) + value + "\n")
	}
	if m.formErr != "" {
		b.WriteString("\n" + errStyle.Render(m.formErr) + "\n")
	}
	if s := m.dictation; s.State == dictation.Listening {
		b.WriteString("\n" + listenStyle.Render("● Dictée en cours"))
	}
	b.WriteString("\n" + m.help.ShortHelpView([]key.Binding{keys.Next, keys.Submit, keys.Cancel}))
	return b.String()
}
