package hotkey

import (
	"context"
	"time"
)

// DefaultLongPress separates a tap from a hold.
const DefaultLongPress = 400 * time.Millisecond

// Controller is what the hotkey drives. dictation.Machine satisfies it.
type Controller interface {
	Listening() bool
	Start()
	Stop()
}

// Hybrid gives one key combination two behaviors: a tap toggles
// dictation, a hold dictates until the keys are released.
type Hybrid struct {
	hk        Hotkey
	longPress time.Duration
}

func NewHybrid(hk Hotkey, longPress time.Duration) *Hybrid {
	if longPress <= 0 {
		longPress = DefaultLongPress
	}
	return &Hybrid{hk: hk, longPress: longPress}
}

// Run drives c until ctx is done.
func (h *Hybrid) Run(ctx context.Context, c Controller) {
	for {
		if !h.wait(ctx, h.hk.Keydown()) {
			return
		}
		if c.Listening() {
			c.Stop()
			if !h.wait(ctx, h.hk.Keyup()) {
				return
			}
			continue
		}

		c.Start()
		timer := time.NewTimer(h.longPress)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-h.hk.Keyup():
			// tap: keep listening until the next press
			timer.Stop()
		case <-timer.C:
			if !h.wait(ctx, h.hk.Keyup()) {
				return
			}
			c.Stop()
		}
	}
}

func (h *Hybrid) wait(ctx context.Context, ch <-chan struct{}) bool {
	select {
	case <-ctx.Done():
		return false
	case <-ch:
		return true
	}
}
