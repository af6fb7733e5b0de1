package store

import (
	"fmt"
	"strings"
)

type DuplicateError struct {
	ID string
}

func (e *DuplicateError) Error() string { return fmt.Sprintf("shortcut %q already stored", e.ID) }

// StatusError is a non-2xx answer from the remote backend.
type StatusError struct {
	Method string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Sprintf("remote store %s: status %d", e.Method, e.Code)
	}
	return fmt.Sprintf("remote store %s: status %d: %s", e.Method, e.Code, body)
}
