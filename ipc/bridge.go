// Package ipc is the message contract between the host process and the UI.
// Requests are JSON-encoded on the way in and answered with a Reply; the
// host pushes notifications to every subscribed UI.
package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"dysaccess/log"
	"dysaccess/shortcut"
)

const DefaultTimeout = 5 * time.Second

// AckTimeout bounds the wait for the UI to apply a submitted shortcut. It is
// shorter than DefaultTimeout so the submitter gets the host's answer.
const AckTimeout = 4 * time.Second

var (
	ErrTimeout = errors.New("ipc: request timed out")
	ErrClosed  = errors.New("ipc: bridge closed")
	// ErrNoSubscriber means no UI window took a notification.
	ErrNoSubscriber = errors.New("ipc: no window listening")
)

// Handler performs privileged actions on behalf of the UI.
type Handler interface {
	OpenExternalURL(ctx context.Context, url string) error
	LaunchLocalProgram(ctx context.Context, path string) error
	OpenShortcutEditor(ctx context.Context, existing *shortcut.Record) error
	CloseShortcutEditor(ctx context.Context) error
	SubmitNewShortcut(ctx context.Context, r shortcut.Record) (bool, error)
	SubmitShortcutEdit(ctx context.Context, r shortcut.Record) (bool, error)
	ToggleDictation(ctx context.Context) (bool, error)
}

type request struct {
	msg   []byte
	reply chan Reply
}

type Bridge struct {
	requests chan request
	closed   chan struct{}
	once     sync.Once

	mu   sync.Mutex
	subs map[chan Notification]struct{}
}

func New() *Bridge {
	return &Bridge{
		requests: make(chan request),
		closed:   make(chan struct{}),
		subs:     make(map[chan Notification]struct{}),
	}
}

// Close stops accepting requests and closes every subscription.
func (b *Bridge) Close() {
	b.once.Do(func() {
		close(b.closed)
		b.mu.Lock()
		for ch := range b.subs {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	})
}

// Serve dispatches requests to h until ctx is done or the bridge is closed.
// Requests run concurrently; Serve waits for in-flight ones before returning.
func (b *Bridge) Serve(ctx context.Context, h Handler) error {
	g, gctx := errgroup.WithContext(ctx)
	defer g.Wait()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.closed:
			return nil
		case req := <-b.requests:
			g.Go(func() error {
				req.reply <- dispatch(gctx, h, req.msg)
				return nil
			})
		}
	}
}

func dispatch(ctx context.Context, h Handler, raw []byte) Reply {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Reply{Error: &RemoteError{Kind: KindInternal, Message: "malformed message: " + err.Error()}}
	}

	ok, err := handle(ctx, h, msg)
	if err != nil {
		log.Warnf("ipc %s: %v", msg.Op, err)
		return Reply{Error: remoteError(msg.Op, err)}
	}
	return Reply{OK: ok}
}

func handle(ctx context.Context, h Handler, msg Message) (bool, error) {
	switch msg.Op {
	case OpOpenURL:
		var url string
		if err := decode(msg, &url); err != nil {
			return false, err
		}
		return true, h.OpenExternalURL(ctx, url)
	case OpOpenLocalApp:
		var path string
		if err := decode(msg, &path); err != nil {
			return false, err
		}
		return true, h.LaunchLocalProgram(ctx, path)
	case OpOpenEditor:
		var existing *shortcut.Record
		if len(msg.Payload) > 0 {
			if err := decode(msg, &existing); err != nil {
				return false, err
			}
		}
		return true, h.OpenShortcutEditor(ctx, existing)
	case OpCloseEditor:
		return true, h.CloseShortcutEditor(ctx)
	case OpAddApp:
		var r shortcut.Record
		if err := decode(msg, &r); err != nil {
			return false, err
		}
		return h.SubmitNewShortcut(ctx, r)
	case OpUpdateApp:
		var r shortcut.Record
		if err := decode(msg, &r); err != nil {
			return false, err
		}
		return h.SubmitShortcutEdit(ctx, r)
	case OpToggleSpeech:
		return h.ToggleDictation(ctx)
	}
	return false, fmt.Errorf("unknown op %q", msg.Op)
}

func decode(msg Message, v any) error {
	if len(msg.Payload) == 0 {
		return fmt.Errorf("%s: missing payload", msg.Op)
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("%s: bad payload: %w", msg.Op, err)
	}
	return nil
}

// Subscribe registers a UI for notifications. Slow subscribers miss
// notifications instead of blocking the host.
func (b *Bridge) Subscribe() (<-chan Notification, func()) {
	ch := make(chan Notification, 16)
	b.mu.Lock()
	select {
	case <-b.closed:
		close(ch)
		b.mu.Unlock()
		return ch, func() {}
	default:
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			if _, ok := b.subs[ch]; ok {
				delete(b.subs, ch)
				close(ch)
			}
			b.mu.Unlock()
		})
	}
}

// Notify sends n to every subscriber and reports whether at least one took it.
func (b *Bridge) Notify(n Notification) bool {
	return b.notify(n) > 0
}

func (b *Bridge) notify(n Notification) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	delivered := 0
	for ch := range b.subs {
		select {
		case ch <- n:
			delivered++
		default:
			log.Warnf("ipc: dropped %s notification for slow subscriber", n.Op)
		}
	}
	return delivered
}

// ShortcutAdded asks the UI to add r and waits, up to AckTimeout, for the
// result of applying it.
func (b *Bridge) ShortcutAdded(ctx context.Context, r shortcut.Record) error {
	return b.notifyRecord(ctx, OpAddApp, r)
}

func (b *Bridge) ShortcutUpdated(ctx context.Context, r shortcut.Record) error {
	return b.notifyRecord(ctx, OpUpdateApp, r)
}

func (b *Bridge) ToggleDictation() bool {
	return b.Notify(Notification{Op: OpToggleSpeech})
}

func (b *Bridge) notifyRecord(ctx context.Context, op Op, r shortcut.Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode %s: %w", op, err)
	}
	// The first window to apply it answers.
	ack := make(chan error, 1)
	if b.notify(Notification{Op: op, Payload: data, ack: ack}) == 0 {
		return ErrNoSubscriber
	}

	ctx, cancel := context.WithTimeout(ctx, AckTimeout)
	defer cancel()
	select {
	case err := <-ack:
		return err
	case <-b.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctxErr(ctx)
	}
}
