package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"dysaccess/shortcut"
)

// Client is the UI side of the bridge. Every call is bounded by Timeout
// (DefaultTimeout when zero) in addition to the caller's context.
type Client struct {
	b       *Bridge
	Timeout time.Duration
}

func (b *Bridge) Client() *Client {
	return &Client{b: b}
}

func (c *Client) call(ctx context.Context, op Op, payload any) (bool, error) {
	msg := Message{Op: op}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return false, err
		}
		msg.Payload = data
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return false, err
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req := request{msg: raw, reply: make(chan Reply, 1)}
	select {
	case c.b.requests <- req:
	case <-c.b.closed:
		return false, ErrClosed
	case <-ctx.Done():
		return false, ctxErr(ctx)
	}

	select {
	case r := <-req.reply:
		if r.Error != nil {
			return false, r.Error
		}
		return r.OK, nil
	case <-c.b.closed:
		return false, ErrClosed
	case <-ctx.Done():
		return false, ctxErr(ctx)
	}
}

func ctxErr(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	return ctx.Err()
}

// OpenExternalURL reports whether the browser was asked to open url.
func (c *Client) OpenExternalURL(ctx context.Context, url string) (bool, error) {
	return c.call(ctx, OpOpenURL, url)
}

func (c *Client) LaunchLocalProgram(ctx context.Context, path string) error {
	_, err := c.call(ctx, OpOpenLocalApp, path)
	return err
}

// OpenShortcutEditor opens the editor, prefilled with existing when not nil.
func (c *Client) OpenShortcutEditor(ctx context.Context, existing *shortcut.Record) error {
	var payload any
	if existing != nil {
		payload = existing
	}
	_, err := c.call(ctx, OpOpenEditor, payload)
	return err
}

func (c *Client) CloseShortcutEditor(ctx context.Context) error {
	_, err := c.call(ctx, OpCloseEditor, nil)
	return err
}

func (c *Client) SubmitNewShortcut(ctx context.Context, r shortcut.Record) (bool, error) {
	return c.call(ctx, OpAddApp, r)
}

func (c *Client) SubmitShortcutEdit(ctx context.Context, r shortcut.Record) (bool, error) {
	return c.call(ctx, OpUpdateApp, r)
}

func (c *Client) ToggleDictation(ctx context.Context) (bool, error) {
	return c.call(ctx, OpToggleSpeech, nil)
}
