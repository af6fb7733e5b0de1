//go:build linux

package login

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func desktopPath() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "autostart", label+".desktop"), nil
}

func Enabled() bool {
	path, err := desktopPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

func Enable() error {
	it, err := currentItem()
	if err != nil {
		return err
	}
	path, err := desktopPath()
	if err != nil {
		return fmt.Errorf("resolve autostart dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create autostart dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(desktopEntry(it)), 0600); err != nil {
		return fmt.Errorf("write desktop entry: %w", err)
	}
	return nil
}

func desktopEntry(it item) string {
	var cmd []string
	if len(it.Env) > 0 {
		cmd = append(cmd, "env")
		for _, e := range it.Env {
			cmd = append(cmd, e.Key+"="+quoteExec(e.Value))
		}
	}
	cmd = append(cmd, quoteExec(it.Exe))
	for _, a := range it.Args {
		cmd = append(cmd, quoteExec(a))
	}
	return fmt.Sprintf(`[Desktop Entry]
Type=Application
Name=DysAccess Buddy
Comment=Barre d'outils et dictée
Exec=%s
Terminal=false
X-GNOME-Autostart-enabled=true
`, strings.Join(cmd, " "))
}

func Disable() error {
	path, err := desktopPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove desktop entry: %w", err)
	}
	return nil
}

// quoteExec quotes s for a desktop entry Exec key.
func quoteExec(s string) string {
	if !strings.ContainsAny(s, " \t\"'\\$`") {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "`", "\\`", `$`, `\$`)
	return `"` + r.Replace(s) + `"`
}
