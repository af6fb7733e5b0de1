package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"dysaccess/shortcut"
)

const schema = `
CREATE TABLE IF NOT EXISTS shortcuts (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	icon TEXT NOT NULL,
	color TEXT NOT NULL,
	type TEXT NOT NULL CHECK (type IN ('app', 'web')),
	url TEXT,
	local_path TEXT,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_shortcuts_created ON shortcuts(created_at);
CREATE TABLE IF NOT EXISTS meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Fixed-width UTC timestamps sort lexically in insertion order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLite stores records in a single-file database.
type SQLite struct {
	db   *sql.DB
	path string
}

func NewSQLite(path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLite{db: db, path: path}, nil
}

func (s *SQLite) Path() string { return s.path }

func (s *SQLite) Load(ctx context.Context) ([]shortcut.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, icon, color, type, url, local_path, created_at
		 FROM shortcuts ORDER BY created_at ASC, rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("query shortcuts: %w", err)
	}
	defer rows.Close()

	var out []shortcut.Record
	for rows.Next() {
		var (
			w         row
			url, path sql.NullString
			created   string
		)
		if err := rows.Scan(&w.ID, &w.Name, &w.Icon, &w.Color, &w.Type, &url, &path, &created); err != nil {
			return nil, fmt.Errorf("scan shortcut: %w", err)
		}
		if url.Valid {
			w.URL = &url.String
		}
		if path.Valid {
			w.LocalPath = &path.String
		}
		if t, err := time.Parse(timeLayout, created); err == nil {
			w.CreatedAt = t
		}
		out = append(out, w.record())
	}
	return out, rows.Err()
}

func (s *SQLite) Insert(ctx context.Context, r shortcut.Record) error {
	w := toRow(r)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO shortcuts (id, name, icon, color, type, url, local_path, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.Name, w.Icon, w.Color, w.Type, nullable(w.URL), nullable(w.LocalPath),
		w.CreatedAt.Format(timeLayout))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return &DuplicateError{ID: r.ID}
		}
		return fmt.Errorf("insert shortcut: %w", err)
	}
	return nil
}

func (s *SQLite) Update(ctx context.Context, r shortcut.Record) error {
	w := toRow(r)
	res, err := s.db.ExecContext(ctx,
		`UPDATE shortcuts SET name = ?, icon = ?, color = ?, type = ?, url = ?, local_path = ?
		 WHERE id = ?`,
		w.Name, w.Icon, w.Color, w.Type, nullable(w.URL), nullable(w.LocalPath), w.ID)
	if err != nil {
		return fmt.Errorf("update shortcut: %w", err)
	}
	return expectOne(res, r.ID)
}

func (s *SQLite) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM shortcuts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete shortcut: %w", err)
	}
	return expectOne(res, id)
}

func (s *SQLite) Seeded(ctx context.Context) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM meta WHERE key = 'seeded'`).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("read seed marker: %w", err)
	}
	return n > 0, nil
}

func (s *SQLite) MarkSeeded(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES ('seeded', ?) ON CONFLICT(key) DO NOTHING`,
		time.Now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("write seed marker: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func expectOne(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &shortcut.NotFoundError{ID: id}
	}
	return nil
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

