package storage

import (
	"path/filepath"
	"testing"
)

func TestSettingsMissingFileYieldsEmpty(t *testing.T) {
	s := NewSettingsStore(filepath.Join(t.TempDir(), "settings.json"))

	settings, err := s.All()
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(settings) != 0 {
		t.Errorf("expected empty settings, got %v", settings)
	}

	_, ok, err := s.Get("theme")
	if err != nil || ok {
		t.Errorf("unset key should not be found (ok=%v, err=%v)", ok, err)
	}
}

func TestSettingsSetPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	s := NewSettingsStore(path)
	if err := s.Set("theme", "dark"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set("backupKeepCount", 10); err != nil {
		t.Fatalf("set: %v", err)
	}

	fresh := NewSettingsStore(path)
	v, ok, err := fresh.Get("theme")
	if err != nil || !ok {
		t.Fatalf("get after reopen (ok=%v): %v", ok, err)
	}
	if v != "dark" {
		t.Errorf("theme = %v, want dark", v)
	}
}
