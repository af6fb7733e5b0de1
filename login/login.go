// Package login registers the app to start when the user logs in.
package login

import (
	"fmt"
	"os"
)

// envKeys are carried into the login item so secrets set in the shell are
// available to the auto-started process.
var envKeys = []string{"GROQ_API_KEY", "OPENAI_API_KEY", "DYSACCESS_SUPABASE_URL", "DYSACCESS_SUPABASE_KEY", "DYSACCESS_CONFIG"}

const label = "fr.dysaccess.buddy"

// Set enables or disables launch at login.
func Set(on bool) error {
	if on {
		return Enable()
	}
	return Disable()
}

type envVar struct{ Key, Value string }

// item is the command a login entry runs. The toolbar starts hidden.
type item struct {
	Label string
	Exe   string
	Args  []string
	Env   []envVar
}

func currentItem() (item, error) {
	exe, err := os.Executable()
	if err != nil {
		return item{}, fmt.Errorf("resolve executable: %w", err)
	}
	it := item{Label: label, Exe: exe, Args: []string{"--hidden"}}
	for _, k := range envKeys {
		if v := os.Getenv(k); v != "" {
			it.Env = append(it.Env, envVar{k, v})
		}
	}
	return it, nil
}
