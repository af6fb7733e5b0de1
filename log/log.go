// Package log writes the app's diagnostics as JSON lines to a rotating
// diagnostics_log.txt, and recognized dictation to dictation_log.txt.
// Every function is a no-op until Init succeeds.
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	diagName = "diagnostics_log.txt"
	dictName = "dictation_log.txt"
)

var (
	dir   string
	debug bool

	active atomic.Pointer[zerolog.Logger]

	mu   sync.Mutex
	diag io.WriteCloser
	dict *os.File
)

// ResolveDir picks the log directory: the --logpath flag, then
// DYSACCESS_LOG_PATH, then the platform default.
func ResolveDir(flagPath string) (string, error) {
	for _, p := range []string{flagPath, os.Getenv("DYSACCESS_LOG_PATH")} {
		if p != "" {
			return filepath.Abs(p)
		}
	}
	return defaultDir()
}

func SetDir(d string) { dir = d }

// SetDebug enables debug-level diagnostics. Must be called before Init.
func SetDebug(on bool) { debug = on }

func Init() error {
	mu.Lock()
	defer mu.Unlock()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, dictName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening dictation log: %w", err)
	}
	dict = f
	diag = &lumberjack.Logger{
		Filename:   filepath.Join(dir, diagName),
		MaxSize:    5, // MB
		MaxBackups: 3,
		MaxAge:     30,
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339
	l := zerolog.New(diag).Level(level).With().Timestamp().Int("pid", os.Getpid()).Logger()
	active.Store(&l)
	return nil
}

func Close() {
	active.Store(nil)
	mu.Lock()
	defer mu.Unlock()
	if diag != nil {
		diag.Close()
		diag = nil
	}
	if dict != nil {
		dict.Close()
		dict = nil
	}
}

// at starts an event. zerolog treats a nil event as disabled, so callers
// can chain on it before Init.
func at(level zerolog.Level) *zerolog.Event {
	l := active.Load()
	if l == nil {
		return nil
	}
	return l.WithLevel(level)
}

func Debug(msg string)                 { at(zerolog.DebugLevel).Msg(msg) }
func Info(msg string)                  { at(zerolog.InfoLevel).Msg(msg) }
func Infof(format string, args ...any) { at(zerolog.InfoLevel).Msgf(format, args...) }
func Warn(msg string)                  { at(zerolog.WarnLevel).Msg(msg) }
func Warnf(format string, args ...any) { at(zerolog.WarnLevel).Msgf(format, args...) }
func Error(msg string)                 { at(zerolog.ErrorLevel).Msg(msg) }

func Errorf(format string, args ...any) { at(zerolog.ErrorLevel).Msgf(format, args...) }

// ShortcutEvent records a registry mutation.
func ShortcutEvent(op, id, name string) {
	at(zerolog.InfoLevel).Str("op", op).Str("id", id).Str("name", name).Msg("shortcut")
}

// Persistence records a store failure. The toolbar keeps its in-memory list.
func Persistence(op, id string, err error) {
	at(zerolog.WarnLevel).Str("op", op).Str("id", id).Err(err).Msg("persistence_failed")
}

func LaunchEvent(kind, target string, dur time.Duration, err error) {
	level := zerolog.InfoLevel
	if err != nil {
		level = zerolog.ErrorLevel
	}
	at(level).Err(err).
		Str("kind", kind).
		Str("target", target).
		Float64("ms", float64(dur.Microseconds())/1000).
		Msg("launch")
}

func DictationState(from, to, reason string) {
	ev := at(zerolog.InfoLevel).Str("from", from).Str("to", to)
	if reason != "" {
		ev = ev.Str("reason", reason)
	}
	ev.Msg("dictation_state")
}

// DictationText appends a recognized utterance and where it went.
func DictationText(text, dest string) {
	if active.Load() == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	if dict == nil {
		return
	}
	fmt.Fprintf(dict, "%s\t[%d]\t%s\t%s\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid(), dest, text)
}

func SessionStart(ui, store, provider string) {
	at(zerolog.InfoLevel).Str("ui", ui).Str("store", store).Str("provider", provider).Msg("session_start")
}

func SessionEnd(shortcuts, launches int) {
	at(zerolog.InfoLevel).Int("shortcuts", shortcuts).Int("launches", launches).Msg("session_end")
}
