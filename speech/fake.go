package speech

import (
	"context"
	"sync"
)

// Fake returns canned texts in order, then the last one forever.
type Fake struct {
	mu    sync.Mutex
	texts []string
	err   error
	calls int
}

func NewFake(err error, texts ...string) *Fake {
	return &Fake{texts: texts, err: err}
}

func (f *Fake) Name() string { return "fake" }
func (f *Fake) Ready() error { return nil }

func (f *Fake) Transcribe(ctx context.Context, flac []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.err != nil {
		return "", f.err
	}
	if len(f.texts) == 0 {
		return "", nil
	}
	i := min(f.calls-1, len(f.texts)-1)
	return f.texts[i], nil
}

// Calls is the number of utterances sent so far.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
