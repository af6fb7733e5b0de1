//go:build !linux && !darwin

package notify

import "github.com/gen2brain/beeep"

func playCue(c Cue) {
	t := tones[c]
	ms := int(t.duration * 1000)
	for i := 0; i < t.repeat; i++ {
		beeep.Beep(t.freq, ms)
	}
}
