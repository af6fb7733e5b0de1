// Package speech captures microphone audio, cuts it into utterances and
// sends each one to a Whisper-compatible transcription service.
package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"dysaccess/audio"
	"dysaccess/dictation"
	"dysaccess/log"
)

// Recognizer implements dictation.Recognizer.
type Recognizer struct {
	ctx    audio.Context
	device *audio.DeviceInfo
	tr     Transcriber
	seg    SegmentConfig
}

type Option func(*Recognizer)

// WithDevice pins capture to one input device instead of the default.
func WithDevice(d *audio.DeviceInfo) Option {
	return func(r *Recognizer) { r.device = d }
}

func WithSegments(cfg SegmentConfig) Option {
	return func(r *Recognizer) { r.seg = cfg }
}

func NewRecognizer(actx audio.Context, tr Transcriber, opts ...Option) *Recognizer {
	r := &Recognizer{ctx: actx, tr: tr, seg: DefaultSegmentConfig()}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Recognizer) Start(ctx context.Context) (dictation.Session, error) {
	if err := r.tr.Ready(); err != nil {
		return nil, err
	}
	capture, err := r.ctx.NewCapture(r.device, audio.DefaultCapture)
	if err != nil {
		return nil, captureError(err)
	}

	s := &session{
		capture: capture,
		samples: make(chan []int16, 256),
		jobs:    make(chan job, 8),
		stop:    make(chan struct{}),
		events:  make(chan dictation.Event, 4),
		seg:     newSegmenter(r.seg),
		tr:      r.tr,
	}
	capture.SetCallback(s.onData)
	if err := capture.Start(); err != nil {
		capture.ClearCallback()
		capture.Close()
		return nil, captureError(err)
	}
	log.Infof("speech: listening on %s via %s", capture.DeviceName(), r.tr.Name())

	go s.segment(ctx)
	go s.transcribe(ctx)
	return s, nil
}

func captureError(err error) error {
	msg := strings.ToLower(err.Error())
	for _, hint := range []string{"permission", "denied", "not authorized", "access"} {
		if strings.Contains(msg, hint) {
			return &dictation.Error{Kind: dictation.PermissionDenied, Err: err}
		}
	}
	return &dictation.Error{Kind: dictation.StartFailure, Err: fmt.Errorf("microphone: %w", err)}
}

// job is one utterance to transcribe, or a failure to report.
type job struct {
	pcm []int16
	err error
}

type session struct {
	capture audio.CaptureDevice
	samples chan []int16
	jobs    chan job
	stop    chan struct{}
	once    sync.Once
	events  chan dictation.Event
	seg     *segmenter
	tr      Transcriber
}

func (s *session) Events() <-chan dictation.Event { return s.events }

// Stop ends capture. Utterances already heard are still transcribed
// before Events closes.
func (s *session) Stop() {
	s.once.Do(func() {
		s.capture.ClearCallback()
		s.capture.Stop()
		s.capture.Close()
		close(s.stop)
	})
}

// onData runs on the audio thread and must not block.
func (s *session) onData(data []byte, _ uint32) {
	select {
	case s.samples <- audio.Decode(data):
	default:
		log.Warn("speech: capture buffer full, dropping audio")
	}
}

func (s *session) segment(ctx context.Context) {
	defer close(s.jobs)
	send := func(j job) bool {
		select {
		case s.jobs <- j:
			return true
		case <-ctx.Done():
			return false
		}
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			if u := s.seg.Flush(); u != nil {
				send(job{pcm: u})
			}
			return
		case pcm := <-s.samples:
			for _, u := range s.seg.Feed(pcm) {
				if !send(job{pcm: u}) {
					return
				}
			}
			if s.seg.Idle() {
				send(job{err: &dictation.Error{Kind: dictation.NoSpeechDetected}})
				go s.Stop()
				return
			}
		}
	}
}

func (s *session) transcribe(ctx context.Context) {
	defer close(s.events)
	failed := false
	for j := range s.jobs {
		if failed {
			continue
		}
		if j.err != nil {
			failed = true
			s.emit(ctx, dictation.Event{Err: j.err})
			continue
		}
		text, err := s.utterance(ctx, j.pcm)
		if err != nil {
			failed = true
			s.emit(ctx, dictation.Event{Err: err})
			go s.Stop()
			continue
		}
		if text != "" {
			s.emit(ctx, dictation.Event{Text: text})
		}
	}
}

func (s *session) utterance(ctx context.Context, pcm []int16) (string, error) {
	start := time.Now()
	data, err := EncodeFLAC(pcm)
	if err != nil {
		return "", &dictation.Error{Kind: dictation.Unknown, Err: err}
	}
	text, err := s.tr.Transcribe(ctx, data)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", &dictation.Error{Kind: dictation.UserAborted, Err: err}
		}
		return "", err
	}
	log.Debug(fmt.Sprintf("speech: %.1fs of audio transcribed in %s", float64(len(pcm))/audio.SampleRate, time.Since(start).Round(time.Millisecond)))
	return text, nil
}

func (s *session) emit(ctx context.Context, ev dictation.Event) {
	select {
	case s.events <- ev:
	case <-ctx.Done():
	}
}
