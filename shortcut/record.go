package shortcut

import (
	"net/url"
	"strings"
	"time"
)

type Kind string

const (
	KindApp Kind = "app"
	KindWeb Kind = "web"
)

func (k Kind) Valid() bool { return k == KindApp || k == KindWeb }

// Record is one launchable toolbar entry. Icon and Color are catalog keys,
// never resolved resources, so a Record is always plain serializable data.
type Record struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Icon      IconKey   `json:"icon"`
	Color     ColorKey  `json:"color"`
	Kind      Kind      `json:"type"`
	URL       string    `json:"url,omitempty"`
	Path      string    `json:"localPath,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Target returns the URL or path the record launches.
func (r Record) Target() string {
	if r.Kind == KindWeb {
		return r.URL
	}
	return r.Path
}

// Normalize trims text fields and clears the target that does not match Kind.
func Normalize(r Record) Record {
	r.ID = strings.TrimSpace(r.ID)
	r.Name = strings.TrimSpace(r.Name)
	r.URL = strings.TrimSpace(r.URL)
	r.Path = strings.TrimSpace(r.Path)
	switch r.Kind {
	case KindWeb:
		r.Path = ""
	case KindApp:
		r.URL = ""
	}
	return r
}

// Validate checks a normalized record against the model invariants.
func Validate(r Record) error {
	if r.Name == "" {
		return invalid("name", "must not be empty")
	}
	if !r.Kind.Valid() {
		return invalid("type", "must be app or web")
	}
	switch r.Kind {
	case KindWeb:
		if r.URL == "" {
			return invalid("url", "must not be empty")
		}
		if r.Path != "" {
			return invalid("localPath", "must be empty for a web shortcut")
		}
		if !IsAbsoluteURL(r.URL) {
			return invalid("url", "must be an absolute URL")
		}
	case KindApp:
		if r.Path == "" {
			return invalid("localPath", "must not be empty")
		}
		if r.URL != "" {
			return invalid("url", "must be empty for an app shortcut")
		}
	}
	if !r.Icon.Valid() {
		return invalid("icon", "unknown icon "+string(r.Icon))
	}
	if !r.Color.Valid() {
		return invalid("color", "unknown color "+string(r.Color))
	}
	return nil
}

func IsAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.IsAbs() && (u.Host != "" || u.Opaque != "")
}
