package shortcut

import (
	"encoding/json"
	"fmt"
	"net/url"
)

const editorParam = "app"

// EditorURL builds the editor navigation target. A nil record opens the editor
// in add mode; otherwise the record is carried as a JSON query parameter.
func EditorURL(base string, r *Record) (string, error) {
	if r == nil {
		return base, nil
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse editor url: %w", err)
	}
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encode shortcut: %w", err)
	}
	q := u.Query()
	q.Set(editorParam, string(data))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ParseEditorURL returns the record to prefill, or nil in add mode.
func ParseEditorURL(raw string) (*Record, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse editor url: %w", err)
	}
	v := u.Query().Get(editorParam)
	if v == "" {
		return nil, nil
	}
	var r Record
	if err := json.Unmarshal([]byte(v), &r); err != nil {
		return nil, fmt.Errorf("decode shortcut: %w", err)
	}
	return &r, nil
}
