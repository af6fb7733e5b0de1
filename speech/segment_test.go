package speech

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dysaccess/audio"
)

func tone(ms int, amp float64) []int16 {
	n := audio.SampleRate * ms / 1000
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(amp * math.Sin(2*math.Pi*440*float64(i)/audio.SampleRate))
	}
	return out
}

func silence(ms int) []int16 {
	return make([]int16, audio.SampleRate*ms/1000)
}

func concat(parts ...[]int16) []int16 {
	var out []int16
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestSegmenterCutsAfterSilence(t *testing.T) {
	s := newSegmenter(DefaultSegmentConfig())
	got := s.Feed(concat(silence(500), tone(1000, 8000), silence(1000)))
	require.Len(t, got, 1)

	// lead-in + speech + trailing silence window
	want := 3*frameSamples + audio.SampleRate + audio.SampleRate*700/1000
	assert.Equal(t, want, len(got[0]))
	assert.Nil(t, s.Flush())
}

func TestSegmenterFeedsInOddChunks(t *testing.T) {
	s := newSegmenter(DefaultSegmentConfig())
	pcm := concat(tone(1000, 8000), silence(1000))
	var got [][]int16
	for off := 0; off < len(pcm); off += 777 {
		got = append(got, s.Feed(pcm[off:min(off+777, len(pcm))])...)
	}
	assert.Len(t, got, 1)
}

func TestSegmenterDropsClicks(t *testing.T) {
	s := newSegmenter(DefaultSegmentConfig())
	got := s.Feed(concat(tone(60, 8000), silence(1000)))
	assert.Empty(t, got)
}

func TestSegmenterMaxUtterance(t *testing.T) {
	cfg := DefaultSegmentConfig()
	cfg.MaxUtterance = 2 * time.Second
	s := newSegmenter(cfg)

	got := s.Feed(tone(3000, 8000))
	require.Len(t, got, 1)
	assert.Equal(t, 2*audio.SampleRate, len(got[0]))

	rest := s.Flush()
	require.NotNil(t, rest)
	assert.Equal(t, audio.SampleRate, len(rest))
}

func TestSegmenterFlushPartial(t *testing.T) {
	s := newSegmenter(DefaultSegmentConfig())
	assert.Empty(t, s.Feed(tone(1000, 8000)))
	assert.NotNil(t, s.Flush())
	assert.Nil(t, s.Flush())
}

func TestSegmenterIdle(t *testing.T) {
	cfg := DefaultSegmentConfig()
	cfg.NoSpeech = time.Second

	s := newSegmenter(cfg)
	s.Feed(silence(900))
	assert.False(t, s.Idle())
	s.Feed(silence(200))
	assert.True(t, s.Idle())
	assert.False(t, s.Heard())

	// A pause after speech is not "no speech".
	s = newSegmenter(cfg)
	s.Feed(concat(tone(500, 8000), silence(3000)))
	assert.True(t, s.Heard())
	assert.False(t, s.Idle())
}

func TestSegmenterQuietInputIsSilence(t *testing.T) {
	s := newSegmenter(DefaultSegmentConfig())
	assert.Empty(t, s.Feed(concat(tone(1000, 300), silence(1000))))
	assert.False(t, s.Heard())
}
