package launcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"dysaccess/shortcut"
)

type recorder struct {
	calls [][]string
	err   error
}

func (r *recorder) run(_ context.Context, name string, args ...string) error {
	r.calls = append(r.calls, append([]string{name}, args...))
	return r.err
}

func TestCommandPerPlatform(t *testing.T) {
	tests := []struct {
		goos string
		want []string
	}{
		{"windows", []string{"cmd", "/c", "start", "", `C:\Apps\x.exe`}},
		{"darwin", []string{"open", `C:\Apps\x.exe`}},
		{"linux", []string{"xdg-open", `C:\Apps\x.exe`}},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			name, args, err := Command(tt.goos, `C:\Apps\x.exe`)
			if err != nil {
				t.Fatal(err)
			}
			got := append([]string{name}, args...)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCommandUnsupported(t *testing.T) {
	if _, _, err := Command("plan9", "x"); err == nil {
		t.Error("expected error for unsupported platform")
	}
}

func TestOpenURL(t *testing.T) {
	rec := &recorder{}
	l := NewWith("linux", rec.run)

	if err := l.OpenURL(context.Background(), "https://grid.asterics.eu"); err != nil {
		t.Fatal(err)
	}
	want := [][]string{{"xdg-open", "https://grid.asterics.eu"}}
	if !reflect.DeepEqual(rec.calls, want) {
		t.Errorf("calls = %q, want %q", rec.calls, want)
	}
}

func TestOpenURLRejectsRelative(t *testing.T) {
	rec := &recorder{}
	l := NewWith("linux", rec.run)

	err := l.OpenURL(context.Background(), "www.google.fr")
	var le *LaunchError
	if !errors.As(err, &le) {
		t.Fatalf("expected LaunchError, got %v", err)
	}
	if le.Kind != shortcut.KindWeb {
		t.Errorf("kind = %q", le.Kind)
	}
	if len(rec.calls) != 0 {
		t.Errorf("opener should not run, got %q", rec.calls)
	}
}

func TestLaunchProgram(t *testing.T) {
	dir := t.TempDir()
	prog := filepath.Join(dir, "app.sh")
	if err := os.WriteFile(prog, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}

	rec := &recorder{}
	l := NewWith("darwin", rec.run)
	if err := l.LaunchProgram(context.Background(), prog); err != nil {
		t.Fatal(err)
	}
	want := [][]string{{"open", prog}}
	if !reflect.DeepEqual(rec.calls, want) {
		t.Errorf("calls = %q, want %q", rec.calls, want)
	}
}

func TestLaunchProgramMissingFile(t *testing.T) {
	rec := &recorder{}
	l := NewWith("linux", rec.run)

	missing := filepath.Join(t.TempDir(), "nope")
	err := l.LaunchProgram(context.Background(), missing)
	if !errors.Is(err, ErrLaunch) {
		t.Fatalf("expected ErrLaunch, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped ErrNotExist, got %v", err)
	}
	if len(rec.calls) != 0 {
		t.Errorf("opener should not run, got %q", rec.calls)
	}
}

func TestLaunchProgramOpenerFails(t *testing.T) {
	rec := &recorder{err: errors.New("exit status 4")}
	l := NewWith("linux", rec.run)

	err := l.LaunchProgram(context.Background(), "libreoffice")
	var le *LaunchError
	if !errors.As(err, &le) {
		t.Fatalf("expected LaunchError, got %v", err)
	}
	if le.Target != "libreoffice" || le.Kind != shortcut.KindApp {
		t.Errorf("unexpected error fields: %+v", le)
	}
}

func TestLaunchUnsupportedPlatform(t *testing.T) {
	rec := &recorder{}
	l := NewWith("plan9", rec.run)
	if err := l.LaunchProgram(context.Background(), "prog"); !errors.Is(err, ErrLaunch) {
		t.Errorf("expected ErrLaunch, got %v", err)
	}
}

func TestOpenDispatchesOnKind(t *testing.T) {
	rec := &recorder{}
	l := NewWith("windows", rec.run)

	web := shortcut.Record{Kind: shortcut.KindWeb, URL: "https://www.google.fr"}
	app := shortcut.Record{Kind: shortcut.KindApp, Path: "notepad.exe"}
	if err := l.Open(context.Background(), web); err != nil {
		t.Fatal(err)
	}
	if err := l.Open(context.Background(), app); err != nil {
		t.Fatal(err)
	}
	if len(rec.calls) != 2 || rec.calls[0][4] != "https://www.google.fr" || rec.calls[1][4] != "notepad.exe" {
		t.Errorf("calls = %q", rec.calls)
	}
}
