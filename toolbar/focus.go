package toolbar

import "sync"

// Focus tracks the text input that currently has keyboard focus and
// implements dictation.Target. Front ends call Set when an input gains
// focus and Clear when it loses it.
type Focus struct {
	mu     sync.Mutex
	append func(string)
}

// Set routes dictated text to fn. fn must hand the text over to the UI
// thread itself; it is called from the dictation loop.
func (f *Focus) Set(fn func(text string)) {
	f.mu.Lock()
	f.append = fn
	f.mu.Unlock()
}

func (f *Focus) Clear() { f.Set(nil) }

func (f *Focus) Focused() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.append != nil
}

func (f *Focus) Append(text string) {
	f.mu.Lock()
	fn := f.append
	f.mu.Unlock()
	if fn != nil {
		fn(text)
	}
}
