// Package hotkey watches the global Ctrl+Shift+D combination that toggles
// dictation from any application.
package hotkey

const Combo = "Ctrl+Shift+D"

type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}

// edges fans key transitions out to one-slot channels. A transition is
// dropped when the previous one has not been read yet.
type edges struct {
	keydown chan struct{}
	keyup   chan struct{}
}

func newEdges() edges {
	return edges{keydown: make(chan struct{}, 1), keyup: make(chan struct{}, 1)}
}

func (e edges) Keydown() <-chan struct{} { return e.keydown }
func (e edges) Keyup() <-chan struct{}   { return e.keyup }

func (e edges) press()   { signal(e.keydown) }
func (e edges) release() { signal(e.keyup) }

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
