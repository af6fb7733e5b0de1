package host

import (
	"context"
	"fmt"

	"dysaccess/ipc"
	"dysaccess/log"
	"dysaccess/shortcut"
)

type Registry interface {
	Add(r shortcut.Record) (shortcut.Record, error)
	Update(id string, r shortcut.Record) (shortcut.Record, error)
}

type Toggler interface {
	Toggle()
}

// Primary is the toolbar window's end of the notification channel: it
// applies submitted shortcuts to the registry and routes dictation toggles.
type Primary struct {
	Registry  Registry
	Dictation Toggler
	// OnError receives failures that no submitter is waiting for.
	OnError func(error)
}

// Run applies notifications until ctx is done or notes is closed. The
// result of each shortcut submission goes back to the waiting host.
func (p *Primary) Run(ctx context.Context, notes <-chan ipc.Notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-notes:
			if !ok {
				return
			}
			err := p.Apply(n)
			if n.Ack(err) || err == nil {
				continue
			}
			log.Warnf("apply %s: %v", n.Op, err)
			if p.OnError != nil {
				p.OnError(err)
			}
		}
	}
}

func (p *Primary) Apply(n ipc.Notification) error {
	switch n.Op {
	case ipc.OpAddApp:
		r, err := n.Record()
		if err != nil {
			return err
		}
		_, err = p.Registry.Add(r)
		return err
	case ipc.OpUpdateApp:
		r, err := n.Record()
		if err != nil {
			return err
		}
		_, err = p.Registry.Update(r.ID, r)
		return err
	case ipc.OpToggleSpeech:
		if p.Dictation != nil {
			p.Dictation.Toggle()
		}
		return nil
	}
	return fmt.Errorf("unexpected notification %q", n.Op)
}
