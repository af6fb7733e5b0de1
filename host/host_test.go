package host

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dysaccess/config"
	"dysaccess/ipc"
	"dysaccess/launcher"
	"dysaccess/registry"
	"dysaccess/shortcut"
)

type fakeWindows struct {
	mu          sync.Mutex
	editors     int
	focused     int
	lastURL     string
	visible     bool
	alwaysOnTop bool
}

func (f *fakeWindows) OpenEditor(url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.editors++
	f.lastURL = url
	return nil
}

func (f *fakeWindows) FocusEditor() {
	f.mu.Lock()
	f.focused++
	f.mu.Unlock()
}

func (f *fakeWindows) CloseEditor() {
	f.mu.Lock()
	if f.editors > 0 {
		f.editors--
	}
	f.mu.Unlock()
}

func (f *fakeWindows) EditorOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.editors > 0
}

func (f *fakeWindows) ShowToolbar()           { f.visible = true }
func (f *fakeWindows) HideToolbar()           { f.visible = false }
func (f *fakeWindows) ToolbarVisible() bool   { return f.visible }
func (f *fakeWindows) SetAlwaysOnTop(on bool) { f.alwaysOnTop = on }

type fakeDialog struct {
	titles, messages []string
}

func (f *fakeDialog) Error(title, message string) {
	f.titles = append(f.titles, title)
	f.messages = append(f.messages, message)
}

type fakeOpener struct {
	err  error
	urls []string
	apps []string
}

func (f *fakeOpener) OpenURL(_ context.Context, url string) error {
	f.urls = append(f.urls, url)
	return f.err
}

func (f *fakeOpener) LaunchProgram(_ context.Context, path string) error {
	f.apps = append(f.apps, path)
	return f.err
}

func newHost(t *testing.T, opener *fakeOpener) (*Host, *fakeWindows, *fakeDialog, *ipc.Bridge) {
	t.Helper()
	win := &fakeWindows{}
	dlg := &fakeDialog{}
	b := ipc.New()
	t.Cleanup(b.Close)
	h := New(Options{
		Windows:  win,
		Dialog:   dlg,
		Opener:   opener,
		Bridge:   b,
		SetLogin: func(bool) error { return nil },
	})
	return h, win, dlg, b
}

func TestEditorIsSingleton(t *testing.T) {
	h, win, _, _ := newHost(t, &fakeOpener{})
	ctx := context.Background()

	require.NoError(t, h.OpenShortcutEditor(ctx, nil))
	require.NoError(t, h.OpenShortcutEditor(ctx, nil))

	assert.Equal(t, 1, win.editors)
	assert.Equal(t, 1, win.focused)
}

func TestEditorSingletonUnderConcurrency(t *testing.T) {
	h, win, _, _ := newHost(t, &fakeOpener{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.OpenShortcutEditor(context.Background(), nil)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, win.editors)
}

func TestEditorPrefill(t *testing.T) {
	h, win, _, _ := newHost(t, &fakeOpener{})
	rec := shortcut.Defaults()[1]

	require.NoError(t, h.OpenShortcutEditor(context.Background(), &rec))

	got, err := shortcut.ParseEditorURL(win.lastURL)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.URL, got.URL)
}

func TestCloseEditorNoop(t *testing.T) {
	h, win, _, _ := newHost(t, &fakeOpener{})
	require.NoError(t, h.CloseShortcutEditor(context.Background()))
	assert.Equal(t, 0, win.editors)

	require.NoError(t, h.OpenShortcutEditor(context.Background(), nil))
	require.NoError(t, h.CloseShortcutEditor(context.Background()))
	assert.False(t, win.EditorOpen())
}

func TestLaunchFailureShowsDialogAndReturnsError(t *testing.T) {
	cause := errors.New("exit status 4")
	h, _, dlg, _ := newHost(t, &fakeOpener{err: &launcher.LaunchError{Kind: shortcut.KindApp, Target: "/opt/x", Err: cause}})

	err := h.LaunchLocalProgram(context.Background(), "/opt/x")
	assert.ErrorIs(t, err, launcher.ErrLaunch)
	require.Len(t, dlg.titles, 1)
	assert.Equal(t, "Erreur de lancement", dlg.titles[0])
	assert.Equal(t, "Échec du lancement : exit status 4", dlg.messages[0])
	assert.Equal(t, 0, h.Launches())
}

func TestLaunchSuccess(t *testing.T) {
	op := &fakeOpener{}
	h, _, dlg, _ := newHost(t, op)

	require.NoError(t, h.OpenExternalURL(context.Background(), "https://www.google.fr"))
	require.NoError(t, h.LaunchLocalProgram(context.Background(), "/usr/bin/libreoffice"))
	assert.Equal(t, []string{"https://www.google.fr"}, op.urls)
	assert.Equal(t, []string{"/usr/bin/libreoffice"}, op.apps)
	assert.Empty(t, dlg.titles)
	assert.Equal(t, 2, h.Launches())
}

func TestSubmitForwardsAndClosesEditor(t *testing.T) {
	h, win, _, b := newHost(t, &fakeOpener{})
	ctx := context.Background()
	notes, cancel := b.Subscribe()
	defer cancel()

	got := make(chan ipc.Notification, 1)
	go func() {
		n := <-notes
		got <- n
		n.Ack(nil)
	}()

	require.NoError(t, h.OpenShortcutEditor(ctx, nil))
	rec := shortcut.Record{Name: "Wiki", Icon: shortcut.IconBook, Color: "Vert", Kind: shortcut.KindWeb, URL: "https://fr.wikipedia.org"}
	ok, err := h.SubmitNewShortcut(ctx, rec)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, win.EditorOpen())

	n := <-got
	assert.Equal(t, ipc.OpAddApp, n.Op)
	sent, err := n.Record()
	require.NoError(t, err)
	assert.Equal(t, rec, sent)
}

func TestSubmitRefusedKeepsEditorOpen(t *testing.T) {
	h, win, _, b := newHost(t, &fakeOpener{})
	ctx := context.Background()
	notes, cancel := b.Subscribe()
	defer cancel()
	go func() {
		n := <-notes
		n.Ack(&shortcut.NotFoundError{ID: "gone"})
	}()

	require.NoError(t, h.OpenShortcutEditor(ctx, nil))
	ok, err := h.SubmitShortcutEdit(ctx, shortcut.Record{ID: "gone", Name: "x"})
	assert.False(t, ok)
	assert.ErrorIs(t, err, shortcut.ErrNotFound)
	assert.True(t, win.EditorOpen())
}

func TestSubmitWithoutPrimaryWindow(t *testing.T) {
	h, win, _, _ := newHost(t, &fakeOpener{})
	ctx := context.Background()
	require.NoError(t, h.OpenShortcutEditor(ctx, nil))

	ok, err := h.SubmitNewShortcut(ctx, shortcut.Record{Name: "x"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, win.EditorOpen(), "editor stays open when nobody took the shortcut")
}

func TestSubmitEditNeedsID(t *testing.T) {
	h, _, _, _ := newHost(t, &fakeOpener{})
	_, err := h.SubmitShortcutEdit(context.Background(), shortcut.Record{Name: "x"})
	assert.ErrorIs(t, err, shortcut.ErrInvalid)
}

func TestToggleDictationBroadcasts(t *testing.T) {
	h, _, _, b := newHost(t, &fakeOpener{})
	notes, cancel := b.Subscribe()
	defer cancel()

	ok, err := h.ToggleDictation(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, ipc.OpToggleSpeech, (<-notes).Op)
}

func TestToggleToolbar(t *testing.T) {
	h, win, _, _ := newHost(t, &fakeOpener{})
	h.ToggleToolbar()
	assert.True(t, win.visible)
	h.ToggleToolbar()
	assert.False(t, win.visible)
	h.ShowToolbar()
	assert.True(t, win.visible)
}

func TestSettingsPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := config.Load(path)
	require.NoError(t, err)

	var loginCalls []bool
	win := &fakeWindows{}
	h := New(Options{
		Windows:  win,
		Config:   cfg,
		Opener:   &fakeOpener{},
		SetLogin: func(on bool) error { loginCalls = append(loginCalls, on); return nil },
	})

	require.NoError(t, h.SetAlwaysOnTop(false))
	require.NoError(t, h.SetAutoLaunch(true))
	assert.False(t, win.alwaysOnTop)
	assert.Equal(t, []bool{true}, loginCalls)

	reloaded, err := config.Load(path)
	require.NoError(t, err)
	assert.False(t, reloaded.AlwaysOnTop)
	assert.True(t, reloaded.AutoLaunch)
}

func TestAutoLaunchFailureKeepsSetting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := config.Load(path)
	require.NoError(t, err)

	h := New(Options{
		Config:   cfg,
		Opener:   &fakeOpener{},
		SetLogin: func(bool) error { return errors.New("denied") },
	})
	assert.Error(t, h.SetAutoLaunch(true))
	assert.False(t, h.AutoLaunch())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "config should not be written")
}

func TestApplyStartup(t *testing.T) {
	cfg := config.Default()
	cfg.AutoLaunch = true
	var loginCalls []bool
	win := &fakeWindows{}
	h := New(Options{
		Windows:  win,
		Config:   cfg,
		Opener:   &fakeOpener{},
		SetLogin: func(on bool) error { loginCalls = append(loginCalls, on); return nil },
	})
	h.ApplyStartup()
	assert.True(t, win.alwaysOnTop)
	assert.Equal(t, []bool{true}, loginCalls)
}

type toggleCounter struct {
	mu sync.Mutex
	n  int
}

func (c *toggleCounter) Toggle() {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

func (c *toggleCounter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func runPrimary(t *testing.T, b *ipc.Bridge, p *Primary) {
	t.Helper()
	notes, cancel := b.Subscribe()
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx, notes)
	}()
	t.Cleanup(func() { stop(); cancel(); <-done })
}

func TestPrimaryAppliesNotifications(t *testing.T) {
	h, _, _, b := newHost(t, &fakeOpener{})
	reg := registry.New(nil, registry.Options{Defaults: []shortcut.Record{}})
	defer reg.Close()
	toggles := &toggleCounter{}

	var (
		mu   sync.Mutex
		errs []error
	)
	runPrimary(t, b, &Primary{Registry: reg, Dictation: toggles, OnError: func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}})

	bg := context.Background()
	ok, err := h.SubmitNewShortcut(bg, shortcut.Record{Name: "Browser", Icon: shortcut.IconGlobe, Color: "Bleu", Kind: shortcut.KindWeb, URL: "https://example.com"})
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = h.SubmitNewShortcut(bg, shortcut.Record{Name: "", Kind: shortcut.KindWeb, URL: "https://example.com"})
	assert.False(t, ok)
	assert.ErrorIs(t, err, shortcut.ErrInvalid)
	h.ToggleDictation(bg)

	require.Eventually(t, func() bool { return toggles.count() == 1 }, time.Second, 5*time.Millisecond)

	list := reg.List()
	require.Len(t, list, 1)
	assert.Equal(t, "Browser", list[0].Name)
	assert.NotEmpty(t, list[0].ID)

	mu.Lock()
	assert.Empty(t, errs, "refusals go to the submitter")
	mu.Unlock()

	ok, err = h.SubmitShortcutEdit(bg, shortcut.Record{ID: list[0].ID, Name: "Navigateur", Icon: shortcut.IconGlobe, Color: "Bleu", Kind: shortcut.KindWeb, URL: "https://example.com"})
	require.NoError(t, err)
	require.True(t, ok)
	r, err := reg.Get(list[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Navigateur", r.Name, "applied before the host answers")
}

func TestSubmitAtCapacityReachesEditor(t *testing.T) {
	h, win, _, b := newHost(t, &fakeOpener{})
	reg := registry.New(nil, registry.Options{Capacity: 1, Defaults: []shortcut.Record{}})
	defer reg.Close()
	runPrimary(t, b, &Primary{Registry: reg})

	ctx, stop := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- b.Serve(ctx, h) }()
	defer func() { stop(); <-served }()

	c := b.Client()
	require.NoError(t, c.OpenShortcutEditor(context.Background(), nil))
	ok, err := c.SubmitNewShortcut(context.Background(), shortcut.Record{Name: "Wiki", Icon: shortcut.IconBook, Color: "Vert", Kind: shortcut.KindWeb, URL: "https://fr.wikipedia.org"})
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, c.OpenShortcutEditor(context.Background(), nil))
	ok, err = c.SubmitNewShortcut(context.Background(), shortcut.Record{Name: "Docs", Icon: shortcut.IconBook, Color: "Bleu", Kind: shortcut.KindWeb, URL: "https://example.com"})
	assert.False(t, ok)
	require.ErrorIs(t, err, shortcut.ErrCapacity)
	assert.ErrorIs(t, err, shortcut.ErrInvalid)
	assert.Contains(t, err.Error(), "at most 1 shortcuts")
	assert.True(t, win.EditorOpen(), "editor stays open to show the error")
	assert.Equal(t, 1, reg.Len())

	ok, err = c.SubmitShortcutEdit(context.Background(), shortcut.Record{ID: "missing", Name: "Docs", Icon: shortcut.IconBook, Color: "Bleu", Kind: shortcut.KindWeb, URL: "https://example.com"})
	assert.False(t, ok)
	assert.ErrorIs(t, err, shortcut.ErrNotFound)
}
