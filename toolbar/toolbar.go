// Package toolbar is the toolkit-neutral state behind the floating toolbar
// and the shortcut editor. The terminal and desktop front ends both render
// from it.
package toolbar

import (
	"context"
	"fmt"
	"sync"

	"dysaccess/registry"
	"dysaccess/shortcut"
)

type Registry interface {
	List() []shortcut.Record
	Remove(id string) error
	Subscribe() (<-chan registry.Change, func())
}

// Client is the toolbar's view of the host, reached over the IPC bridge.
// *ipc.Client satisfies it.
type Client interface {
	OpenExternalURL(ctx context.Context, url string) (bool, error)
	LaunchLocalProgram(ctx context.Context, path string) error
	OpenShortcutEditor(ctx context.Context, existing *shortcut.Record) error
	CloseShortcutEditor(ctx context.Context) error
	SubmitNewShortcut(ctx context.Context, r shortcut.Record) (bool, error)
	SubmitShortcutEdit(ctx context.Context, r shortcut.Record) (bool, error)
	ToggleDictation(ctx context.Context) (bool, error)
}

type Toolbar struct {
	reg    Registry
	client Client

	mu      sync.Mutex
	editing bool
}

func New(reg Registry, client Client) *Toolbar {
	return &Toolbar{reg: reg, client: client}
}

func (t *Toolbar) Shortcuts() []shortcut.Record { return t.reg.List() }

// Editing reports whether the add and delete controls are shown.
func (t *Toolbar) Editing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.editing
}

func (t *Toolbar) ToggleEditMode() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.editing = !t.editing
	return t.editing
}

func (t *Toolbar) find(id string) (shortcut.Record, error) {
	for _, r := range t.reg.List() {
		if r.ID == id {
			return r, nil
		}
	}
	return shortcut.Record{}, &shortcut.NotFoundError{ID: id}
}

// Open launches the shortcut's page or program through the host.
func (t *Toolbar) Open(ctx context.Context, id string) error {
	r, err := t.find(id)
	if err != nil {
		return err
	}
	switch r.Kind {
	case shortcut.KindWeb:
		_, err = t.client.OpenExternalURL(ctx, r.URL)
	case shortcut.KindApp:
		err = t.client.LaunchLocalProgram(ctx, r.Path)
	default:
		err = fmt.Errorf("shortcut %q has unknown type %q", r.Name, r.Kind)
	}
	return err
}

// Add opens the editor empty.
func (t *Toolbar) Add(ctx context.Context) error {
	return t.client.OpenShortcutEditor(ctx, nil)
}

// Edit opens the editor prefilled with the shortcut.
func (t *Toolbar) Edit(ctx context.Context, id string) error {
	r, err := t.find(id)
	if err != nil {
		return err
	}
	return t.client.OpenShortcutEditor(ctx, &r)
}

func (t *Toolbar) Remove(id string) error {
	return t.reg.Remove(id)
}

func (t *Toolbar) ToggleDictation(ctx context.Context) error {
	_, err := t.client.ToggleDictation(ctx)
	return err
}

// Watch calls fn after every registry change until the returned cancel runs.
func (t *Toolbar) Watch(fn func(registry.Change)) (cancel func()) {
	ch, stop := t.reg.Subscribe()
	go func() {
		for c := range ch {
			fn(c)
		}
	}()
	return stop
}
