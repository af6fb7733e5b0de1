package notify

import "math"

type Cue int

const (
	CueStart Cue = iota
	CueStop
	CueError
)

const sampleRate = 44100

type tone struct {
	freq     float64
	duration float64
	volume   float64
	decay    float64
	repeat   int
	gap      float64
}

// Start is high and short, stop a little lower, errors a low double beep.
var tones = map[Cue]tone{
	CueStart: {freq: 1200, duration: 0.05, volume: 0.5, decay: 60, repeat: 1},
	CueStop:  {freq: 900, duration: 0.08, volume: 0.5, decay: 40, repeat: 1},
	CueError: {freq: 350, duration: 0.08, volume: 0.6, decay: 30, repeat: 2, gap: 0.05},
}

var cuesDisabled bool

func setCuesDisabled(on bool) { cuesDisabled = on }

// samples renders t as mono PCM16.
func (t tone) samples() []int16 {
	n := int(math.Round(sampleRate * t.duration))
	gap := int(math.Round(sampleRate * t.gap))
	out := make([]int16, 0, t.repeat*(n+gap))
	for r := 0; r < t.repeat; r++ {
		if r > 0 {
			out = append(out, make([]int16, gap)...)
		}
		for i := 0; i < n; i++ {
			x := float64(i) / sampleRate
			env := math.Exp(-x * t.decay)
			out = append(out, int16(math.Sin(2*math.Pi*t.freq*x)*32767*t.volume*env))
		}
	}
	return out
}

func play(c Cue) {
	if cuesDisabled {
		return
	}
	if _, ok := tones[c]; ok {
		playCue(c)
	}
}
