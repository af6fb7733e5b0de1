package speech

import (
	"math"
	"time"

	"dysaccess/audio"
)

// SegmentConfig drives utterance detection on RMS energy.
type SegmentConfig struct {
	// Threshold is the RMS level (0..32767) above which a frame counts as speech.
	Threshold float64
	// Silence ends an utterance after speech.
	Silence time.Duration
	// MaxUtterance cuts long speech into pieces.
	MaxUtterance time.Duration
	// MinSpeech drops clicks and pops shorter than this.
	MinSpeech time.Duration
	// NoSpeech ends a session in which nothing has been said for this long.
	NoSpeech time.Duration
}

func DefaultSegmentConfig() SegmentConfig {
	return SegmentConfig{
		Threshold:    700,
		Silence:      700 * time.Millisecond,
		MaxUtterance: 15 * time.Second,
		MinSpeech:    200 * time.Millisecond,
		NoSpeech:     8 * time.Second,
	}
}

const frameMs = 20

var frameSamples = audio.SampleRate * frameMs / 1000

// segmenter groups 20ms frames into utterances. It is not safe for
// concurrent use.
type segmenter struct {
	cfg SegmentConfig

	pending   []int16 // partial frame
	utter     []int16
	speechMs  int
	silenceMs int
	idleMs    int
	heard     bool
}

func newSegmenter(cfg SegmentConfig) *segmenter {
	return &segmenter{cfg: cfg}
}

func rms(frame []int16) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(frame)))
}

// Feed adds samples and returns any utterances that completed.
func (s *segmenter) Feed(samples []int16) [][]int16 {
	s.pending = append(s.pending, samples...)
	var out [][]int16
	for len(s.pending) >= frameSamples {
		frame := s.pending[:frameSamples]
		if u := s.frame(frame); u != nil {
			out = append(out, u)
		}
		s.pending = s.pending[frameSamples:]
	}
	return out
}

func (s *segmenter) frame(frame []int16) []int16 {
	voiced := rms(frame) >= s.cfg.Threshold
	if voiced {
		s.speechMs += frameMs
		s.silenceMs = 0
		s.idleMs = 0
		s.heard = true
	} else {
		s.idleMs += frameMs
		if s.speechMs > 0 {
			s.silenceMs += frameMs
		}
	}

	if s.speechMs == 0 {
		// Keep a short lead-in so the first syllable is not clipped.
		s.utter = append(s.utter, frame...)
		if max := 3 * frameSamples; len(s.utter) > max {
			s.utter = s.utter[len(s.utter)-max:]
		}
		return nil
	}

	s.utter = append(s.utter, frame...)
	total := time.Duration(len(s.utter)*1000/audio.SampleRate) * time.Millisecond
	if time.Duration(s.silenceMs)*time.Millisecond >= s.cfg.Silence || total >= s.cfg.MaxUtterance {
		return s.cut()
	}
	return nil
}

// cut ends the current utterance and returns it, or nil if it was too short.
func (s *segmenter) cut() []int16 {
	u := s.utter
	speech := time.Duration(s.speechMs) * time.Millisecond
	s.utter, s.speechMs, s.silenceMs = nil, 0, 0
	if speech < s.cfg.MinSpeech {
		return nil
	}
	return u
}

// Flush returns the in-progress utterance, if it holds enough speech.
func (s *segmenter) Flush() []int16 {
	if s.speechMs == 0 {
		s.utter = nil
		return nil
	}
	return s.cut()
}

// Idle reports a session that has stayed silent for the whole NoSpeech
// window. Pauses after speech never count.
func (s *segmenter) Idle() bool {
	return !s.heard && s.cfg.NoSpeech > 0 && time.Duration(s.idleMs)*time.Millisecond >= s.cfg.NoSpeech
}

// Heard reports whether any speech frame was seen.
func (s *segmenter) Heard() bool { return s.heard }
