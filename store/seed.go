package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Seeder is implemented by stores that remember that the default shortcuts
// were written once, so an empty store after the user removed everything
// is not mistaken for a first run.
type Seeder interface {
	Seeded(ctx context.Context) (bool, error)
	MarkSeeded(ctx context.Context) error
}

// seedFile keeps the marker as an empty file next to a backend that has no
// room for it.
type seedFile string

func (p seedFile) Seeded(context.Context) (bool, error) {
	if p == "" {
		return false, nil
	}
	_, err := os.Stat(string(p))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("seed marker: %w", err)
	}
	return true, nil
}

func (p seedFile) MarkSeeded(context.Context) error {
	if p == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(string(p)), 0755); err != nil {
		return fmt.Errorf("seed marker: %w", err)
	}
	if err := os.WriteFile(string(p), nil, 0644); err != nil {
		return fmt.Errorf("seed marker: %w", err)
	}
	return nil
}
