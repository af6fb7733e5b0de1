package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Capacity != 6 || cfg.Store.Backend != "sqlite" || cfg.Speech.Language != "fr" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.DataDir() != filepath.Dir(path) {
		t.Errorf("DataDir = %q", cfg.DataDir())
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg.AutoLaunch = true
	cfg.AlwaysOnTop = false
	cfg.Speech.RetryDelay = 3 * time.Second
	cfg.Store.Backend = "diskv"
	if err := cfg.Save(); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !got.AutoLaunch || got.AlwaysOnTop || got.Speech.RetryDelay != 3*time.Second || got.Store.Backend != "diskv" {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestSecretsNotWritten(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk-secret")
	t.Setenv("DYSACCESS_SUPABASE_KEY", "sb-secret")
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Speech.APIKey != "gsk-secret" || cfg.Store.Key != "sb-secret" {
		t.Fatalf("env secrets not applied: %+v", cfg)
	}
	if err := cfg.Save(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"gsk-secret", "sb-secret"} {
		if strings.Contains(string(data), s) {
			t.Errorf("config file leaks %q", s)
		}
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("store:\n  backend: mongo\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestRemoteNeedsURL(t *testing.T) {
	t.Setenv("DYSACCESS_STORE", "remote")
	t.Setenv("DYSACCESS_SUPABASE_URL", "")
	if _, err := Load(filepath.Join(t.TempDir(), "config.yaml")); err == nil {
		t.Error("expected error for remote store without url")
	}
}

func TestEnvConfigPath(t *testing.T) {
	p := filepath.Join(t.TempDir(), "custom.yaml")
	t.Setenv("DYSACCESS_CONFIG", p)
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Path() != p {
		t.Errorf("Path = %q, want %q", cfg.Path(), p)
	}
}
