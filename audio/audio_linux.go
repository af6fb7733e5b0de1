//go:build linux

package audio

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
)

// Pulse sources arrive well below full scale at nominal volume.
const pulseGain = 8

var pulseVolume = 3 * uint32(proto.VolumeNorm)

type pulseContext struct {
	client *pulse.Client
}

func NewContext() (Context, error) {
	c, err := pulse.NewClient()
	if err != nil {
		return nil, fmt.Errorf("connecting to pulseaudio: %w", err)
	}
	return &pulseContext{client: c}, nil
}

// Devices lists capture sources. Monitors of output sinks are skipped; they
// record what the speakers play.
func (p *pulseContext) Devices() ([]DeviceInfo, error) {
	sources, err := p.client.ListSources()
	if err != nil {
		return nil, fmt.Errorf("listing pulseaudio sources: %w", err)
	}
	devices := make([]DeviceInfo, 0, len(sources))
	for _, s := range sources {
		if strings.HasSuffix(s.ID(), ".monitor") {
			continue
		}
		devices = append(devices, DeviceInfo{ID: s.ID(), Name: s.Name()})
	}
	return devices, nil
}

func (p *pulseContext) NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error) {
	c := &pulseCapture{client: p.client, name: deviceName(device), config: config}
	if device != nil {
		src, err := p.client.SourceByID(device.ID)
		if err != nil {
			return nil, fmt.Errorf("microphone %q: %w", device.Name, err)
		}
		c.source = src
	}
	return c, nil
}

func (p *pulseContext) Close() { p.client.Close() }

type pulseCapture struct {
	slot
	client *pulse.Client
	source *pulse.Source
	name   string
	config CaptureConfig

	mu     sync.Mutex
	stream *pulse.RecordStream
}

func (c *pulseCapture) DeviceName() string { return c.name }

func (c *pulseCapture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream != nil {
		return fmt.Errorf("capture on %s already running", c.name)
	}

	gain := max(c.config.Gain, pulseGain)
	w := pulse.Int16Writer(func(buf []int16) (int, error) {
		if len(buf) > 0 {
			c.deliver(encode(buf, gain), uint32(len(buf)))
		}
		return len(buf), nil
	})

	opts := []pulse.RecordOption{
		pulse.RecordMono,
		pulse.RecordSampleRate(int(c.config.SampleRate)),
		pulse.RecordLatency(0.05),
		pulse.RecordRawOption(func(r *proto.CreateRecordStream) {
			r.ChannelVolumes = proto.ChannelVolumes{pulseVolume}
		}),
	}
	if c.source != nil {
		opts = append(opts, pulse.RecordSource(c.source))
	}
	stream, err := c.client.NewRecord(w, opts...)
	if err != nil {
		return fmt.Errorf("opening record stream on %s: %w", c.name, err)
	}
	stream.Start()
	c.stream = stream
	return nil
}

func (c *pulseCapture) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream == nil {
		return
	}
	c.stream.Stop()
	c.stream.Close()
	c.stream = nil
}

func (c *pulseCapture) Close() { c.Stop() }
