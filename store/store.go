package store

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"dysaccess/config"
	"dysaccess/shortcut"
)

// Store is the durable side of the registry. Load returns records ordered
// by creation time, oldest first.
type Store interface {
	Load(ctx context.Context) ([]shortcut.Record, error)
	Insert(ctx context.Context, r shortcut.Record) error
	Update(ctx context.Context, r shortcut.Record) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// row is the persisted shape shared by every backend.
type row struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon"`
	Color     string    `json:"color"`
	Type      string    `json:"type"`
	URL       *string   `json:"url"`
	LocalPath *string   `json:"local_path"`
	CreatedAt time.Time `json:"created_at"`
}

func toRow(r shortcut.Record) row {
	out := row{
		ID:        r.ID,
		Name:      r.Name,
		Icon:      string(r.Icon),
		Color:     string(r.Color),
		Type:      string(r.Kind),
		CreatedAt: r.CreatedAt.UTC(),
	}
	if r.URL != "" {
		u := r.URL
		out.URL = &u
	}
	if r.Path != "" {
		p := r.Path
		out.LocalPath = &p
	}
	return out
}

func (w row) record() shortcut.Record {
	r := shortcut.Record{
		ID:        w.ID,
		Name:      w.Name,
		Icon:      shortcut.IconKey(w.Icon),
		Color:     shortcut.ColorKey(w.Color),
		Kind:      shortcut.Kind(w.Type),
		CreatedAt: w.CreatedAt,
	}
	if w.URL != nil {
		r.URL = *w.URL
	}
	if w.LocalPath != nil {
		r.Path = *w.LocalPath
	}
	return r
}

// Open builds the backend named by cfg. Local backends live under dataDir
// unless cfg.Path is set.
func Open(cfg config.Store, dataDir string) (Store, error) {
	table := cfg.Table
	if table == "" {
		table = "shortcuts"
	}
	switch cfg.Backend {
	case "memory":
		return NewMemory(), nil
	case "sqlite", "":
		path := cfg.Path
		if path == "" {
			path = filepath.Join(dataDir, "shortcuts.db")
		}
		return NewSQLite(path)
	case "diskv":
		path := cfg.Path
		if path == "" {
			path = filepath.Join(dataDir, "shortcuts")
		}
		return NewDiskv(path), nil
	case "remote":
		r := NewRemote(cfg.URL, cfg.Key, table, nil)
		r.SetSeedMarker(filepath.Join(dataDir, "remote_"+table+".seeded"))
		return r, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
