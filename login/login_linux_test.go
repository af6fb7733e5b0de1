//go:build linux

package login

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEnableDisable(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("GROQ_API_KEY", "gsk test")

	if Enabled() {
		t.Fatal("should start disabled")
	}
	if err := Set(true); err != nil {
		t.Fatal(err)
	}
	if !Enabled() {
		t.Fatal("should be enabled")
	}

	data, err := os.ReadFile(filepath.Join(dir, "autostart", label+".desktop"))
	if err != nil {
		t.Fatal(err)
	}
	entry := string(data)
	if !strings.Contains(entry, "--hidden") {
		t.Errorf("Exec missing --hidden:\n%s", entry)
	}
	if !strings.Contains(entry, `GROQ_API_KEY="gsk test"`) {
		t.Errorf("Exec missing env:\n%s", entry)
	}

	if err := Set(false); err != nil {
		t.Fatal(err)
	}
	if Enabled() {
		t.Fatal("should be disabled")
	}
	if err := Disable(); err != nil {
		t.Errorf("second disable: %v", err)
	}
}

func TestQuoteExec(t *testing.T) {
	tests := map[string]string{
		"/usr/bin/dysaccess":    "/usr/bin/dysaccess",
		"/opt/My App/dysaccess": `"/opt/My App/dysaccess"`,
		`/tmp/a"b`:              `"/tmp/a\"b"`,
	}
	for in, want := range tests {
		if got := quoteExec(in); got != want {
			t.Errorf("quoteExec(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDesktopEntryWithoutEnv(t *testing.T) {
	got := desktopEntry(item{Exe: "/opt/Dys Access/dysaccess", Args: []string{"--hidden"}})
	if !strings.Contains(got, "Exec=\"/opt/Dys Access/dysaccess\" --hidden\n") {
		t.Errorf("unexpected entry:\n%s", got)
	}
}
