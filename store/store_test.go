package store

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dysaccess/config"
	"dysaccess/shortcut"
)

func sample(id string, at time.Time) shortcut.Record {
	return shortcut.Record{
		ID:        id,
		Name:      "Site " + id,
		Icon:      shortcut.IconGlobe,
		Color:     "Orange",
		Kind:      shortcut.KindWeb,
		URL:       "https://example.com/" + id,
		CreatedAt: at,
	}
}

func backends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	sq, err := NewSQLite(filepath.Join(dir, "shortcuts.db"))
	require.NoError(t, err)

	srv := newFakePostgREST(t)

	out := map[string]Store{
		"memory": NewMemory(),
		"sqlite": sq,
		"diskv":  NewDiskv(filepath.Join(dir, "diskv")),
		"remote": NewRemote(srv.URL, "anon-key", "shortcuts", srv.Client()),
	}
	t.Cleanup(func() {
		for _, s := range out {
			s.Close()
		}
	})
	return out
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			// Insert out of order; Load must sort by creation time.
			require.NoError(t, s.Insert(ctx, sample("b", base.Add(2*time.Second))))
			require.NoError(t, s.Insert(ctx, sample("a", base.Add(time.Second))))
			app := shortcut.Record{
				ID: "c", Name: "Editor", Icon: shortcut.IconFileText, Color: "Bleu",
				Kind: shortcut.KindApp, Path: "/usr/bin/gedit", CreatedAt: base.Add(3 * time.Second),
			}
			require.NoError(t, s.Insert(ctx, app))

			got, err := s.Load(ctx)
			require.NoError(t, err)
			require.Len(t, got, 3)
			assert.Equal(t, []string{"a", "b", "c"}, ids(got))
			assert.Equal(t, "https://example.com/a", got[0].URL)
			assert.Empty(t, got[0].Path)
			assert.Equal(t, "/usr/bin/gedit", got[2].Path)
			assert.Empty(t, got[2].URL)
			assert.Equal(t, shortcut.KindApp, got[2].Kind)
			assert.True(t, got[2].CreatedAt.Equal(app.CreatedAt))
		})
	}
}

func TestStoreUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Insert(ctx, sample("x", base)))

			edited := sample("x", base)
			edited.Name = "Renamed"
			edited.Kind = shortcut.KindApp
			edited.URL = ""
			edited.Path = "/opt/app"
			require.NoError(t, s.Update(ctx, edited))

			got, err := s.Load(ctx)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, "Renamed", got[0].Name)
			assert.Equal(t, "/opt/app", got[0].Path)
			assert.Empty(t, got[0].URL)

			require.NoError(t, s.Delete(ctx, "x"))
			got, err = s.Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestStoreMissingID(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := s.Update(ctx, sample("ghost", time.Now()))
			assert.True(t, errors.Is(err, shortcut.ErrNotFound), "update: %v", err)

			err = s.Delete(ctx, "ghost")
			assert.True(t, errors.Is(err, shortcut.ErrNotFound), "delete: %v", err)
		})
	}
}

func TestStoreDuplicateInsert(t *testing.T) {
	ctx := context.Background()
	for _, name := range []string{"memory", "sqlite", "diskv"} {
		s := backends(t)[name]
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Insert(ctx, sample("dup", time.Now())))
			var dup *DuplicateError
			assert.ErrorAs(t, s.Insert(ctx, sample("dup", time.Now())), &dup)
		})
	}
}

func TestSQLiteReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "shortcuts.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Insert(ctx, sample("keep", time.Now())))
	require.NoError(t, s.Close())

	s, err = NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep"}, ids(got))
}

func TestRemoteHeadersAndStatus(t *testing.T) {
	var gotKey, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("apikey")
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/rest/v1/shortcuts", r.URL.Path)
		assert.Equal(t, "created_at.asc", r.URL.Query().Get("order"))
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, `{"message":"down"}`)
	}))
	defer srv.Close()

	s := NewRemote(srv.URL+"/", "secret", "", srv.Client())
	_, err := s.Load(context.Background())

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.Code)
	assert.Contains(t, se.Error(), "down")
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "Bearer secret", gotAuth)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(config.Store{Backend: "memory"}, dir)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(config.Store{Backend: "sqlite"}, dir)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, filepath.Join(dir, "shortcuts.db"), s.(*SQLite).Path())

	s, err = Open(config.Store{Backend: "diskv"}, dir)
	require.NoError(t, err)
	assert.IsType(t, &Diskv{}, s)

	s, err = Open(config.Store{Backend: "remote", URL: "https://example.supabase.co"}, dir)
	require.NoError(t, err)
	assert.IsType(t, &Remote{}, s)

	_, err = Open(config.Store{Backend: "redis"}, dir)
	assert.Error(t, err)
}

func ids(rs []shortcut.Record) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

// newFakePostgREST serves the subset of PostgREST the remote backend uses.
func newFakePostgREST(t *testing.T) *httptest.Server {
	t.Helper()
	var (
		mu   sync.Mutex
		rows []row
	)
	find := func(r *http.Request) int {
		id := strings.TrimPrefix(r.URL.Query().Get("id"), "eq.")
		for i, w := range rows {
			if w.ID == id {
				return i
			}
		}
		return -1
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if r.Header.Get("apikey") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.Method {
		case http.MethodGet:
			sorted := append([]row(nil), rows...)
			for i := 1; i < len(sorted); i++ {
				for j := i; j > 0 && sorted[j].CreatedAt.Before(sorted[j-1].CreatedAt); j-- {
					sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
				}
			}
			json.NewEncoder(w).Encode(sorted)
		case http.MethodPost:
			var in row
			if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			rows = append(rows, in)
			w.WriteHeader(http.StatusCreated)
		case http.MethodPatch:
			i := find(r)
			if i < 0 {
				io.WriteString(w, "[]")
				return
			}
			var p patch
			if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			rows[i].Name, rows[i].Icon, rows[i].Color, rows[i].Type = p.Name, p.Icon, p.Color, p.Type
			rows[i].URL, rows[i].LocalPath = p.URL, p.LocalPath
			json.NewEncoder(w).Encode([]row{rows[i]})
		case http.MethodDelete:
			i := find(r)
			if i < 0 {
				io.WriteString(w, "[]")
				return
			}
			gone := rows[i]
			rows = append(rows[:i], rows[i+1:]...)
			json.NewEncoder(w).Encode([]row{gone})
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSeedMarker(t *testing.T) {
	ctx := context.Background()
	stores := backends(t)
	remote := stores["remote"].(*Remote)
	remote.SetSeedMarker(filepath.Join(t.TempDir(), "remote_shortcuts.seeded"))

	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			sd, ok := s.(Seeder)
			require.True(t, ok)

			seeded, err := sd.Seeded(ctx)
			require.NoError(t, err)
			assert.False(t, seeded)

			require.NoError(t, sd.MarkSeeded(ctx))
			require.NoError(t, sd.MarkSeeded(ctx))
			seeded, err = sd.Seeded(ctx)
			require.NoError(t, err)
			assert.True(t, seeded)

			got, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, got, "marker must not surface as a record")
		})
	}
}

func TestSQLiteSeedMarkerSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shortcuts.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.MarkSeeded(ctx))
	require.NoError(t, s.Close())

	s, err = NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	seeded, err := s.Seeded(ctx)
	require.NoError(t, err)
	assert.True(t, seeded)
}
