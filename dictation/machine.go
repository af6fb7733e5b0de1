// Package dictation runs the speech dictation state machine: one capture
// session at a time, recognized text routed to the focused input or the
// clipboard, and one automatic retry after a network failure.
package dictation

import (
	"context"
	"strings"
	"sync"
	"time"

	"dysaccess/log"
	"dysaccess/notify"
)

type State int

const (
	Idle State = iota
	Listening
	Failed
)

func (s State) String() string {
	switch s {
	case Listening:
		return "listening"
	case Failed:
		return "error"
	}
	return "idle"
}

type Status struct {
	State State
	// Kind is set when State is Failed.
	Kind ErrorKind
	// Retrying reports a scheduled retry after a network failure.
	Retrying bool
}

// Event is one recognizer output: a finalized utterance or a failure.
type Event struct {
	Text string
	Err  error
}

// Session is an active capture. Events is closed when the session ends.
type Session interface {
	Events() <-chan Event
	Stop()
}

type Recognizer interface {
	Start(ctx context.Context) (Session, error)
}

// Target is the text input that currently has focus, if any.
type Target interface {
	Focused() bool
	// Append adds text to the input's value and raises its change notification.
	Append(text string)
}

type Clipboard interface {
	Write(text string) error
}

type Notifier interface {
	Info(message string)
	Error(message string)
	Cue(c notify.Cue)
}

type nopNotifier struct{}

func (nopNotifier) Info(string)    {}
func (nopNotifier) Error(string)   {}
func (nopNotifier) Cue(notify.Cue) {}

const DefaultRetryDelay = 2 * time.Second

type Options struct {
	Recognizer Recognizer
	Target     Target
	Clipboard  Clipboard
	Notifier   Notifier
	RetryDelay time.Duration
}

type command int

const (
	cmdStart command = iota
	cmdStop
	cmdToggle
)

type Machine struct {
	opts Options
	cmds chan command

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu         sync.Mutex
	status     Status
	transcript strings.Builder
	subs       map[chan Status]struct{}
}

func New(opts Options) *Machine {
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Machine{
		opts:   opts,
		cmds:   make(chan command),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		subs:   make(map[chan Status]struct{}),
	}
	go m.loop()
	return m
}

func (m *Machine) Start()  { m.send(cmdStart) }
func (m *Machine) Stop()   { m.send(cmdStop) }
func (m *Machine) Toggle() { m.send(cmdToggle) }

func (m *Machine) send(c command) {
	select {
	case m.cmds <- c:
	case <-m.done:
	}
}

func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *Machine) State() State { return m.Status().State }

func (m *Machine) Listening() bool { return m.State() == Listening }

// Transcript is everything recognized since the machine was created.
func (m *Machine) Transcript() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transcript.String()
}

// Subscribe delivers status changes. A full subscriber misses updates.
func (m *Machine) Subscribe() (<-chan Status, func()) {
	ch := make(chan Status, 8)
	m.mu.Lock()
	m.subs[ch] = struct{}{}
	m.mu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			if _, ok := m.subs[ch]; ok {
				delete(m.subs, ch)
				close(ch)
			}
			m.mu.Unlock()
		})
	}
}

// Close ends any session and stops the machine.
func (m *Machine) Close() {
	m.cancel()
	<-m.done
	m.mu.Lock()
	for ch := range m.subs {
		delete(m.subs, ch)
		close(ch)
	}
	m.mu.Unlock()
}

func (m *Machine) setStatus(s Status, reason string) {
	m.mu.Lock()
	prev := m.status
	m.status = s
	if prev != s {
		for ch := range m.subs {
			select {
			case ch <- s:
			default:
			}
		}
	}
	m.mu.Unlock()
	if prev != s {
		log.DictationState(prev.State.String(), s.State.String(), reason)
	}
}

// run is the loop's private state. Only the loop goroutine touches it.
type run struct {
	session  Session
	events   <-chan Event
	draining []<-chan Event
	isRetry  bool
	retry    *time.Timer
	retryC   <-chan time.Time
}

func (m *Machine) loop() {
	defer close(m.done)
	var r run
	defer func() {
		if r.session != nil {
			r.session.Stop()
		}
		if r.retry != nil {
			r.retry.Stop()
		}
	}()

	for {
		var drain <-chan Event
		if len(r.draining) > 0 {
			drain = r.draining[0]
		}
		select {
		case <-m.ctx.Done():
			return
		case c := <-m.cmds:
			m.command(&r, c)
		case ev, ok := <-r.events:
			if !ok {
				m.sessionEnded(&r)
				continue
			}
			m.event(&r, ev)
		case ev, ok := <-drain:
			if !ok {
				r.draining = r.draining[1:]
				continue
			}
			// A stopped session may still deliver its last utterance.
			if ev.Err == nil {
				m.deliver(ev.Text)
			}
		case <-r.retryC:
			r.retry, r.retryC = nil, nil
			log.Info("dictation: retrying after network failure")
			m.startSession(&r, true)
		}
	}
}

func (m *Machine) command(r *run, c command) {
	listening := r.session != nil
	switch {
	case c == cmdStart && listening:
		return
	case c == cmdStart, c == cmdToggle && !listening:
		m.cancelRetry(r)
		m.startSession(r, false)
	case c == cmdStop && !listening:
		if m.cancelRetry(r) {
			m.setStatus(Status{State: Idle}, "retry cancelled")
		}
	default:
		m.stopSession(r)
		m.setStatus(Status{State: Idle}, "stopped")
		m.opts.Notifier.Cue(notify.CueStop)
	}
}

func (m *Machine) cancelRetry(r *run) bool {
	if r.retry == nil {
		return false
	}
	r.retry.Stop()
	r.retry, r.retryC = nil, nil
	return true
}

func (m *Machine) startSession(r *run, retry bool) {
	sess, err := m.opts.Recognizer.Start(m.ctx)
	if err != nil {
		kind := Classify(err)
		if kind != PermissionDenied {
			kind = StartFailure
		}
		log.Errorf("dictation start: %v", err)
		m.fail(Status{State: Failed, Kind: kind}, err)
		return
	}
	r.session = sess
	r.events = sess.Events()
	r.isRetry = retry
	m.setStatus(Status{State: Listening}, "")
	m.opts.Notifier.Cue(notify.CueStart)
}

// stopSession ends capture but keeps reading the session's events so a
// pending utterance is still delivered.
func (m *Machine) stopSession(r *run) {
	if r.session == nil {
		return
	}
	r.session.Stop()
	r.draining = append(r.draining, r.events)
	r.session, r.events = nil, nil
}

func (m *Machine) sessionEnded(r *run) {
	r.session, r.events = nil, nil
	m.setStatus(Status{State: Idle}, "session ended")
}

func (m *Machine) event(r *run, ev Event) {
	if ev.Err == nil {
		m.deliver(ev.Text)
		return
	}

	kind := Classify(ev.Err)
	wasRetry := r.isRetry
	m.stopSession(r)

	switch {
	case kind == UserAborted:
		m.setStatus(Status{State: Idle}, kind.String())
	case kind == NetworkUnavailable && !wasRetry:
		r.retry = time.NewTimer(m.opts.RetryDelay)
		r.retryC = r.retry.C
		log.Warnf("dictation: %v, retry in %s", ev.Err, m.opts.RetryDelay)
		m.fail(Status{State: Failed, Kind: kind, Retrying: true}, ev.Err)
	default:
		log.Errorf("dictation: %v", ev.Err)
		m.fail(Status{State: Failed, Kind: kind}, ev.Err)
	}
}

func (m *Machine) fail(s Status, err error) {
	m.setStatus(s, s.Kind.String())
	if s.Kind == UserAborted {
		return
	}
	m.opts.Notifier.Cue(notify.CueError)
	m.opts.Notifier.Error(s.Kind.Message())
}

func (m *Machine) deliver(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	m.mu.Lock()
	m.transcript.WriteString(text + " ")
	m.mu.Unlock()

	if t := m.opts.Target; t != nil && t.Focused() {
		t.Append(text + " ")
		log.DictationText(text, "input")
		return
	}
	if m.opts.Clipboard == nil {
		log.DictationText(text, "dropped")
		return
	}
	if err := m.opts.Clipboard.Write(text); err != nil {
		log.Errorf("dictation clipboard: %v", err)
		m.opts.Notifier.Error("Impossible de copier le texte")
		return
	}
	log.DictationText(text, "clipboard")
	m.opts.Notifier.Info("Texte copié dans le presse-papiers")
}
