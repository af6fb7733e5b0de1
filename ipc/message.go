package ipc

import (
	"encoding/json"
	"errors"
	"fmt"

	"dysaccess/launcher"
	"dysaccess/shortcut"
)

// Op names are the wire contract between the host and the UI.
type Op string

const (
	OpOpenURL      Op = "open-url"
	OpOpenLocalApp Op = "open-local-app"
	OpOpenEditor   Op = "open-add-shortcut-window"
	OpCloseEditor  Op = "close-add-shortcut-window"
	OpAddApp       Op = "add-app"
	OpUpdateApp    Op = "update-app"
	OpToggleSpeech Op = "toggle-speech-recognition"
)

// Message is one request crossing the bridge. Payload is plain JSON so no
// live reference can cross.
type Message struct {
	Op      Op              `json:"op"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Reply struct {
	OK    bool         `json:"ok"`
	Error *RemoteError `json:"error,omitempty"`
}

// Notification is a host-to-UI event. Ops reuse the request names:
// OpAddApp, OpUpdateApp and OpToggleSpeech.
type Notification struct {
	Op      Op              `json:"op"`
	Payload json.RawMessage `json:"payload,omitempty"`

	ack chan error
}

// Ack hands the result of applying n back to the host. It reports whether
// the host asked for one.
func (n Notification) Ack(err error) bool {
	if n.ack == nil {
		return false
	}
	select {
	case n.ack <- err:
		return true
	default:
		return false
	}
}

// Record decodes the shortcut carried by an add or update notification.
func (n Notification) Record() (shortcut.Record, error) {
	var r shortcut.Record
	if len(n.Payload) == 0 {
		return r, fmt.Errorf("%s: empty payload", n.Op)
	}
	if err := json.Unmarshal(n.Payload, &r); err != nil {
		return r, fmt.Errorf("%s: %w", n.Op, err)
	}
	return r, nil
}

type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindCapacity   ErrorKind = "capacity"
	KindNotFound   ErrorKind = "not_found"
	KindLaunch     ErrorKind = "launch"
	KindInternal   ErrorKind = "internal"
)

// RemoteError is a handler failure carried back to the caller. It matches
// the sentinel of the error that produced it.
type RemoteError struct {
	Op      Op        `json:"op"`
	Kind    ErrorKind `json:"kind"`
	Field   string    `json:"field,omitempty"`
	Target  string    `json:"target,omitempty"`
	Message string    `json:"message"`
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *RemoteError) Is(target error) bool {
	switch e.Kind {
	case KindValidation:
		return target == shortcut.ErrInvalid
	case KindCapacity:
		return target == shortcut.ErrInvalid || target == shortcut.ErrCapacity
	case KindNotFound:
		return target == shortcut.ErrNotFound
	case KindLaunch:
		return target == launcher.ErrLaunch
	}
	return false
}

func remoteError(op Op, err error) *RemoteError {
	re := &RemoteError{Op: op, Kind: KindInternal, Message: err.Error()}
	var (
		ve *shortcut.ValidationError
		le *launcher.LaunchError
		pe *RemoteError
	)
	switch {
	case errors.As(err, &pe):
		return pe
	case errors.Is(err, shortcut.ErrCapacity):
		re.Kind = KindCapacity
	case errors.As(err, &ve):
		re.Kind = KindValidation
		re.Field = ve.Field
	case errors.Is(err, shortcut.ErrNotFound):
		re.Kind = KindNotFound
	case errors.As(err, &le):
		re.Kind = KindLaunch
		re.Target = le.Target
	}
	return re
}
