package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dysaccess/shortcut"
)

// Remote talks to a PostgREST endpoint (Supabase) holding the shortcuts table.
// The seed marker lives in a local file, since the table holds records only.
type Remote struct {
	seedFile
	baseURL string
	key     string
	table   string
	client  *http.Client
}

// SetSeedMarker keeps the seed marker at path. Without one every empty
// table is seeded.
func (s *Remote) SetSeedMarker(path string) { s.seedFile = seedFile(path) }

// NewRemote builds a client for baseURL (e.g. https://xyz.supabase.co).
// A nil client gets a pooled default.
func NewRemote(baseURL, key, table string, client *http.Client) *Remote {
	if client == nil {
		client = &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        4,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
				ForceAttemptHTTP2:   true,
			},
		}
	}
	if table == "" {
		table = "shortcuts"
	}
	return &Remote{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		table:   table,
		client:  client,
	}
}

func (s *Remote) endpoint(query url.Values) string {
	u := s.baseURL + "/rest/v1/" + s.table
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (s *Remote) do(ctx context.Context, method, target string, body any, prefer string) ([]byte, error) {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return nil, err
	}
	if s.key != "" {
		req.Header.Set("apikey", s.key)
		req.Header.Set("Authorization", "Bearer "+s.key)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Method: method, Code: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}

func byID(id string) url.Values {
	return url.Values{"id": {"eq." + id}}
}

func (s *Remote) Load(ctx context.Context) ([]shortcut.Record, error) {
	q := url.Values{"select": {"*"}, "order": {"created_at.asc"}}
	data, err := s.do(ctx, http.MethodGet, s.endpoint(q), nil, "")
	if err != nil {
		return nil, fmt.Errorf("load shortcuts: %w", err)
	}
	var rows []row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode shortcuts: %w", err)
	}
	out := make([]shortcut.Record, 0, len(rows))
	for _, w := range rows {
		out = append(out, w.record())
	}
	return out, nil
}

func (s *Remote) Insert(ctx context.Context, r shortcut.Record) error {
	_, err := s.do(ctx, http.MethodPost, s.endpoint(nil), toRow(r), "return=minimal")
	if err != nil {
		return fmt.Errorf("insert shortcut %s: %w", r.ID, err)
	}
	return nil
}

type patch struct {
	Name      string  `json:"name"`
	Icon      string  `json:"icon"`
	Color     string  `json:"color"`
	Type      string  `json:"type"`
	URL       *string `json:"url"`
	LocalPath *string `json:"local_path"`
}

func (s *Remote) Update(ctx context.Context, r shortcut.Record) error {
	w := toRow(r)
	body := patch{Name: w.Name, Icon: w.Icon, Color: w.Color, Type: w.Type, URL: w.URL, LocalPath: w.LocalPath}
	data, err := s.do(ctx, http.MethodPatch, s.endpoint(byID(r.ID)), body, "return=representation")
	if err != nil {
		return fmt.Errorf("update shortcut %s: %w", r.ID, err)
	}
	return expectRows(data, r.ID)
}

func (s *Remote) Delete(ctx context.Context, id string) error {
	data, err := s.do(ctx, http.MethodDelete, s.endpoint(byID(id)), nil, "return=representation")
	if err != nil {
		return fmt.Errorf("delete shortcut %s: %w", id, err)
	}
	return expectRows(data, id)
}

func (s *Remote) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func expectRows(data []byte, id string) error {
	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil
	}
	if len(rows) == 0 {
		return &shortcut.NotFoundError{ID: id}
	}
	return nil
}
