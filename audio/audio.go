package audio

import (
	"encoding/binary"
	"strings"
	"sync/atomic"
)

const (
	WAVHeaderSize = 44

	// Dictation captures 16 kHz mono PCM16.
	SampleRate = 16000
	Channels   = 1
)

// DefaultCapture is the format the speech recognizer expects.
var DefaultCapture = CaptureConfig{SampleRate: SampleRate, Channels: Channels, Gain: 1}

// defaultDeviceName labels a capture opened without an explicit device.
const defaultDeviceName = "micro par défaut"

var btKeywords = []string{
	"airpods", "beats", "bose", "wh-1000", "wf-1000",
	"jabra", "galaxy buds", "pixel buds", "powerbeats",
	"jbl ", "sennheiser momentum", "plantronics",
	"tozo", "soundcore", "skullcandy",
	"bluetooth", "casque sans fil", " bt ", " bt)", " bt]",
}

// IsBluetooth guesses from its name whether a device is a Bluetooth headset.
// Those drop to a narrowband profile while the microphone is open.
func IsBluetooth(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range btKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// DataCallback receives little-endian PCM16 frames. It runs on the audio
// thread.
type DataCallback func(data []byte, frameCount uint32)

type CaptureConfig struct {
	SampleRate uint32
	Channels   uint32
	// Gain multiplies every sample before delivery. Values below 2 leave
	// the signal untouched.
	Gain int
}

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

func deviceName(d *DeviceInfo) string {
	if d == nil || d.Name == "" {
		return defaultDeviceName
	}
	return d.Name
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error)
	Close()
}

type CaptureDevice interface {
	Start() error
	Stop()
	Close()
	SetCallback(cb DataCallback)
	ClearCallback()
	DeviceName() string
}

// slot holds the current callback so backends can swap it while the
// device is running.
type slot struct{ p atomic.Pointer[DataCallback] }

func (s *slot) SetCallback(cb DataCallback) { s.p.Store(&cb) }
func (s *slot) ClearCallback()              { s.p.Store(nil) }

// deliver hands data to the callback, if any, and reports whether it did.
func (s *slot) deliver(data []byte, frames uint32) bool {
	cb := s.p.Load()
	if cb == nil {
		return false
	}
	(*cb)(data, frames)
	return true
}

// encode writes samples as PCM16 with gain applied, clipping at full scale.
func encode(samples []int16, gain int) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := int32(s)
		if gain > 1 {
			v = min(max(v*int32(gain), -32768), 32767)
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(v)))
	}
	return out
}

// Decode reads little-endian PCM16 samples.
func Decode(data []byte) []int16 {
	pcm := make([]int16, len(data)/2)
	for i := range pcm {
		pcm[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return pcm
}
