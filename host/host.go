// Package host performs the privileged side of the IPC bridge: launching
// programs and pages, owning the shortcut editor window and the tray-level
// settings.
package host

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"dysaccess/config"
	"dysaccess/ipc"
	"dysaccess/launcher"
	"dysaccess/log"
	"dysaccess/shortcut"
)

// Windows is the UI toolkit's view of the toolbar and editor windows.
type Windows interface {
	OpenEditor(url string) error
	FocusEditor()
	CloseEditor()
	EditorOpen() bool

	ShowToolbar()
	HideToolbar()
	ToolbarVisible() bool
	SetAlwaysOnTop(on bool)
}

// Dialog shows a blocking host-native error box.
type Dialog interface {
	Error(title, message string)
}

type Opener interface {
	OpenURL(ctx context.Context, url string) error
	LaunchProgram(ctx context.Context, path string) error
}

// Broadcaster delivers notifications to the primary window. Shortcut
// submissions return the primary window's result of applying them, or
// ipc.ErrNoSubscriber when no window took them.
type Broadcaster interface {
	ShortcutAdded(ctx context.Context, r shortcut.Record) error
	ShortcutUpdated(ctx context.Context, r shortcut.Record) error
	ToggleDictation() bool
}

type Options struct {
	Windows    Windows
	Dialog     Dialog
	Opener     Opener
	Bridge     Broadcaster
	Config     *config.Config
	EditorBase string
	// SetLogin registers or removes the login item. Nil uses login.Set.
	SetLogin func(on bool) error
}

type Host struct {
	win        Windows
	dialog     Dialog
	opener     Opener
	bridge     Broadcaster
	cfg        *config.Config
	editorBase string
	setLogin   func(bool) error

	// serializes editor and settings changes
	mu       sync.Mutex
	launches atomic.Int64
}

func New(opts Options) *Host {
	if opts.Opener == nil {
		opts.Opener = launcher.New()
	}
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.EditorBase == "" {
		opts.EditorBase = "dysaccess://editor"
	}
	if opts.SetLogin == nil {
		opts.SetLogin = setLogin
	}
	return &Host{
		win:        opts.Windows,
		dialog:     opts.Dialog,
		opener:     opts.Opener,
		bridge:     opts.Bridge,
		cfg:        opts.Config,
		editorBase: opts.EditorBase,
		setLogin:   opts.SetLogin,
	}
}

var _ ipc.Handler = (*Host)(nil)

// Launches counts successful launches this session.
func (h *Host) Launches() int { return int(h.launches.Load()) }

func (h *Host) OpenExternalURL(ctx context.Context, url string) error {
	if err := h.opener.OpenURL(ctx, url); err != nil {
		h.launchFailed(err)
		return err
	}
	h.launches.Add(1)
	return nil
}

func (h *Host) LaunchLocalProgram(ctx context.Context, path string) error {
	if err := h.opener.LaunchProgram(ctx, path); err != nil {
		h.launchFailed(err)
		return err
	}
	h.launches.Add(1)
	return nil
}

func (h *Host) launchFailed(err error) {
	log.Errorf("launch failed: %v", err)
	if h.dialog == nil {
		return
	}
	msg := err.Error()
	var le *launcher.LaunchError
	if errors.As(err, &le) {
		msg = le.Err.Error()
	}
	h.dialog.Error("Erreur de lancement", "Échec du lancement : "+msg)
}

// OpenShortcutEditor opens the editor, or focuses it when already open.
// existing pre-fills the form for an edit.
func (h *Host) OpenShortcutEditor(_ context.Context, existing *shortcut.Record) error {
	if h.win == nil {
		return errors.New("no window toolkit")
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.win.EditorOpen() {
		h.win.FocusEditor()
		return nil
	}
	url, err := shortcut.EditorURL(h.editorBase, existing)
	if err != nil {
		return err
	}
	if err := h.win.OpenEditor(url); err != nil {
		return fmt.Errorf("open editor: %w", err)
	}
	return nil
}

func (h *Host) CloseShortcutEditor(context.Context) error {
	if h.win == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.win.EditorOpen() {
		h.win.CloseEditor()
	}
	return nil
}

// SubmitNewShortcut forwards r to the primary window and closes the editor
// once it was added. It reports false without error when no primary window
// exists; a registry refusal is returned and the editor stays open.
func (h *Host) SubmitNewShortcut(ctx context.Context, r shortcut.Record) (bool, error) {
	if h.bridge == nil {
		return false, nil
	}
	return h.submitted(ctx, ipc.OpAddApp, h.bridge.ShortcutAdded(ctx, r))
}

func (h *Host) SubmitShortcutEdit(ctx context.Context, r shortcut.Record) (bool, error) {
	if r.ID == "" {
		return false, &shortcut.ValidationError{Field: "id", Reason: "must not be empty for an edit"}
	}
	if h.bridge == nil {
		return false, nil
	}
	return h.submitted(ctx, ipc.OpUpdateApp, h.bridge.ShortcutUpdated(ctx, r))
}

func (h *Host) submitted(ctx context.Context, op ipc.Op, err error) (bool, error) {
	switch {
	case errors.Is(err, ipc.ErrNoSubscriber):
		return false, nil
	case err != nil:
		log.Warnf("%s refused: %v", op, err)
		return false, err
	}
	h.CloseShortcutEditor(ctx)
	return true, nil
}

func (h *Host) ToggleDictation(context.Context) (bool, error) {
	if h.bridge == nil {
		return false, nil
	}
	return h.bridge.ToggleDictation(), nil
}
