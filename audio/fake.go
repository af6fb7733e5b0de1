package audio

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// fakeChunk is the number of samples handed over per callback.
const fakeChunk = 1024

// FakeContext replays fixed PCM instead of a microphone.
type FakeContext struct {
	pcm      []byte
	realtime bool

	// StartErr, when set, is returned by every capture's Start.
	StartErr error
}

// NewFakeContext replays the samples of a 16 kHz mono PCM16 WAV file.
func NewFakeContext(wavPath string, realtime bool) (*FakeContext, error) {
	data, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, fmt.Errorf("reading fake audio: %w", err)
	}
	if len(data) > WAVHeaderSize {
		data = data[WAVHeaderSize:]
	}
	return NewFakeContextPCM(data, realtime), nil
}

// NewFakeContextPCM replays raw little-endian PCM16 samples.
func NewFakeContextPCM(pcm []byte, realtime bool) *FakeContext {
	return &FakeContext{pcm: pcm, realtime: realtime}
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake", Name: "fake"}}, nil
}

func (f *FakeContext) Close() {}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	tick := time.Millisecond
	if f.realtime {
		tick = fakeChunk * time.Second / SampleRate
	}
	return &FakeCapture{
		pcm:       f.pcm,
		tick:      tick,
		startErr:  f.StartErr,
		audioDone: make(chan struct{}),
	}, nil
}

// FakeCapture feeds the PCM once, then silence until stopped.
type FakeCapture struct {
	slot
	pcm       []byte
	tick      time.Duration
	startErr  error
	audioDone chan struct{}

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// AudioDone is closed once every sample has been fed.
func (f *FakeCapture) AudioDone() <-chan struct{} { return f.audioDone }

func (f *FakeCapture) DeviceName() string { return "fake" }

func (f *FakeCapture) Start() error {
	if f.startErr != nil {
		return f.startErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stop != nil {
		return errors.New("fake capture already started")
	}
	f.stop = make(chan struct{})
	f.done = make(chan struct{})
	go f.feed(f.stop, f.done)
	return nil
}

// next returns the chunk at pos and the position after it. Past the end
// it yields silence.
func (f *FakeCapture) next(pos int) ([]byte, int) {
	const size = fakeChunk * 2
	if pos >= len(f.pcm) {
		return make([]byte, size), pos
	}
	end := min(pos+size, len(f.pcm))
	return append([]byte(nil), f.pcm[pos:end]...), end
}

func (f *FakeCapture) feed(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	t := time.NewTicker(f.tick)
	defer t.Stop()
	pos, finished := 0, false
	for {
		chunk, after := f.next(pos)
		if f.deliver(chunk, uint32(len(chunk)/2)) {
			if !finished && after >= len(f.pcm) {
				finished = true
				close(f.audioDone)
			}
			pos = after
		}
		select {
		case <-stop:
			return
		case <-t.C:
		}
	}
}

func (f *FakeCapture) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stop == nil {
		return
	}
	select {
	case <-f.stop:
	default:
		close(f.stop)
		<-f.done
	}
}

func (f *FakeCapture) Close() { f.Stop() }
