// Package launcher opens local programs and web pages with the platform's
// native opener.
package launcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"dysaccess/log"
	"dysaccess/shortcut"
)

var ErrLaunch = errors.New("launch failed")

// LaunchError reports an OS-level failure to open a program or URL.
type LaunchError struct {
	Kind   shortcut.Kind
	Target string
	Err    error
}

func (e *LaunchError) Error() string {
	what := "application"
	if e.Kind == shortcut.KindWeb {
		what = "url"
	}
	return fmt.Sprintf("open %s %q: %v", what, e.Target, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

func (e *LaunchError) Is(target error) bool { return target == ErrLaunch }

// Command returns the opener invocation for target on goos.
func Command(goos, target string) (string, []string, error) {
	switch goos {
	case "windows":
		// The empty argument is start's window title; without it a quoted
		// path would be taken as the title.
		return "cmd", []string{"/c", "start", "", target}, nil
	case "darwin":
		return "open", []string{target}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{target}, nil
	}
	return "", nil, fmt.Errorf("unsupported platform: %s", goos)
}

type Launcher struct {
	goos string
	run  func(ctx context.Context, name string, args ...string) error
	stat func(string) (os.FileInfo, error)
}

func New() *Launcher {
	return &Launcher{goos: runtime.GOOS, run: runCommand, stat: os.Stat}
}

// NewWith builds a launcher for goos that runs commands through run. Tests
// use it to observe invocations without spawning processes.
func NewWith(goos string, run func(ctx context.Context, name string, args ...string) error) *Launcher {
	return &Launcher{goos: goos, run: run, stat: os.Stat}
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

// OpenURL opens an absolute URL in the default browser.
func (l *Launcher) OpenURL(ctx context.Context, url string) error {
	url = strings.TrimSpace(url)
	if !shortcut.IsAbsoluteURL(url) {
		return &LaunchError{Kind: shortcut.KindWeb, Target: url, Err: errors.New("not an absolute url")}
	}
	return l.open(ctx, shortcut.KindWeb, url)
}

// LaunchProgram opens a local application, document or folder.
func (l *Launcher) LaunchProgram(ctx context.Context, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return &LaunchError{Kind: shortcut.KindApp, Target: path, Err: errors.New("empty path")}
	}
	if filepath.IsAbs(path) && l.stat != nil {
		if _, err := l.stat(path); err != nil {
			return &LaunchError{Kind: shortcut.KindApp, Target: path, Err: err}
		}
	}
	return l.open(ctx, shortcut.KindApp, path)
}

// Open launches r's target according to its kind.
func (l *Launcher) Open(ctx context.Context, r shortcut.Record) error {
	if r.Kind == shortcut.KindWeb {
		return l.OpenURL(ctx, r.URL)
	}
	return l.LaunchProgram(ctx, r.Path)
}

func (l *Launcher) open(ctx context.Context, kind shortcut.Kind, target string) error {
	name, args, err := Command(l.goos, target)
	if err != nil {
		return &LaunchError{Kind: kind, Target: target, Err: err}
	}
	start := time.Now()
	err = l.run(ctx, name, args...)
	log.LaunchEvent(string(kind), target, time.Since(start), err)
	if err != nil {
		return &LaunchError{Kind: kind, Target: target, Err: err}
	}
	return nil
}
