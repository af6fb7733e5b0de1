package hotkey

import "sync/atomic"

// FakeHotkey is driven by tests instead of a keyboard.
type FakeHotkey struct {
	edges

	// RegisterErr is returned by Register when set.
	RegisterErr  error
	registered   atomic.Bool
	unregistered atomic.Bool
}

func NewFake() *FakeHotkey {
	return &FakeHotkey{edges: newEdges()}
}

func (f *FakeHotkey) Register() error {
	if f.RegisterErr != nil {
		return f.RegisterErr
	}
	f.registered.Store(true)
	return nil
}

func (f *FakeHotkey) Unregister() { f.unregistered.Store(true) }

// Registered reports whether Register succeeded and Unregister has not run.
func (f *FakeHotkey) Registered() bool {
	return f.registered.Load() && !f.unregistered.Load()
}

func (f *FakeHotkey) SimKeydown() { f.keydown <- struct{}{} }
func (f *FakeHotkey) SimKeyup()   { f.keyup <- struct{}{} }

// Tap presses and releases the combination.
func (f *FakeHotkey) Tap() {
	f.SimKeydown()
	f.SimKeyup()
}
