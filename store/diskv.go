package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/peterbourgon/diskv/v3"

	"dysaccess/shortcut"
)

// seededKey marks a diskv store whose defaults were written. Record keys
// never start with an underscore.
const seededKey = "_seeded"

// Diskv keeps one JSON document per record under a base directory.
type Diskv struct {
	d *diskv.Diskv
}

func NewDiskv(basePath string) *Diskv {
	return &Diskv{d: diskv.New(diskv.Options{
		BasePath:     basePath,
		Transform:    func(string) []string { return []string{} },
		CacheSizeMax: 256 * 1024,
	})}
}

func (s *Diskv) read(key string) (shortcut.Record, error) {
	val, err := s.d.Read(key)
	if err != nil {
		return shortcut.Record{}, err
	}
	var w row
	if err := json.Unmarshal(val, &w); err != nil {
		return shortcut.Record{}, fmt.Errorf("%s: %w", key, err)
	}
	return w.record(), nil
}

func (s *Diskv) Load(ctx context.Context) ([]shortcut.Record, error) {
	var out []shortcut.Record
	for key := range s.d.Keys(ctx.Done()) {
		if key == seededKey {
			continue
		}
		r, err := s.read(key)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Diskv) write(r shortcut.Record) error {
	data, err := json.Marshal(toRow(r))
	if err != nil {
		return err
	}
	return s.d.Write(r.ID, data)
}

func (s *Diskv) Insert(ctx context.Context, r shortcut.Record) error {
	if s.d.Has(r.ID) {
		return &DuplicateError{ID: r.ID}
	}
	return s.write(r)
}

func (s *Diskv) Update(ctx context.Context, r shortcut.Record) error {
	if !s.d.Has(r.ID) {
		return &shortcut.NotFoundError{ID: r.ID}
	}
	return s.write(r)
}

func (s *Diskv) Delete(ctx context.Context, id string) error {
	if !s.d.Has(id) {
		return &shortcut.NotFoundError{ID: id}
	}
	return s.d.Erase(id)
}

func (s *Diskv) Seeded(context.Context) (bool, error) { return s.d.Has(seededKey), nil }

func (s *Diskv) MarkSeeded(context.Context) error {
	return s.d.Write(seededKey, []byte("1"))
}

func (s *Diskv) Close() error { return nil }
