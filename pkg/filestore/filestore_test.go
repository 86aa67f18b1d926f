package filestore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/unicode/norm"

	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/storage"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	return s
}

func TestSaveAndReadFile(t *testing.T) {
	s := newStore(t)

	path, err := s.SaveFile("item1", "report.pdf", []byte("pdf bytes"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Dir(path) != s.ItemDir("item1") {
		t.Errorf("file written outside item area: %s", path)
	}

	data, err := s.ReadFile("item1", "report.pdf")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "pdf bytes" {
		t.Errorf("content mismatch: %q", data)
	}
}

func TestSaveNormalizesFileName(t *testing.T) {
	composed := norm.NFC.String("café.pdf")
	decomposed := norm.NFD.String("café.pdf")
	if composed == decomposed {
		t.Skip("normal forms identical on this platform")
	}

	s := newStore(t)
	path, err := s.SaveFile("item1", decomposed, []byte("x"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Base(path) != composed {
		t.Errorf("expected composed filename on disk, got %q", filepath.Base(path))
	}

	// The remembered name in either form must still resolve.
	for _, remembered := range []string{composed, decomposed} {
		got, err := s.FilePath("item1", remembered)
		if err != nil {
			t.Errorf("resolve %q: %v", remembered, err)
			continue
		}
		if got != path {
			t.Errorf("resolve %q = %s, want %s", remembered, got, path)
		}
	}
}

func TestResolveAlternateNormalizationOnDisk(t *testing.T) {
	// A file persisted by an older build in decomposed form must resolve
	// from the composed remembered name.
	composed := norm.NFC.String("café.pdf")
	decomposed := norm.NFD.String("café.pdf")
	if composed == decomposed {
		t.Skip("normal forms identical on this platform")
	}

	s := newStore(t)
	if err := s.CreateItemArea("item1"); err != nil {
		t.Fatal(err)
	}
	onDisk := filepath.Join(s.ItemDir("item1"), decomposed)
	if err := os.WriteFile(onDisk, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := s.FilePath("item1", composed)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != onDisk {
		t.Errorf("got %s, want %s", got, onDisk)
	}
}

func TestDeleteItemArea(t *testing.T) {
	s := newStore(t)
	if _, err := s.SaveFile("item1", "a.txt", []byte("x")); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteItemArea("item1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(s.ItemDir("item1")); !os.IsNotExist(err) {
		t.Error("item area should be gone")
	}

	// Deleting an already-absent area is not an error.
	if err := s.DeleteItemArea("item1"); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	s := newStore(t)

	meta := map[string]any{"title": "Example", "source": "browser-extension"}
	if err := s.SaveMetadata("item1", meta); err != nil {
		t.Fatalf("save metadata: %v", err)
	}

	var got map[string]any
	if err := s.ReadMetadata("item1", &got); err != nil {
		t.Fatalf("read metadata: %v", err)
	}
	if got["title"] != "Example" || got["source"] != "browser-extension" {
		t.Errorf("metadata mismatch: %v", got)
	}

	var missing map[string]any
	err := s.ReadMetadata("ghost", &missing)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestThumbnails(t *testing.T) {
	s := newStore(t)

	if err := s.SaveThumbnail("item1", []byte("png bytes")); err != nil {
		t.Fatalf("save thumbnail: %v", err)
	}
	if filepath.Ext(s.ThumbnailPath("item1")) != ".png" {
		t.Errorf("thumbnail should have fixed png extension: %s", s.ThumbnailPath("item1"))
	}

	data, err := s.ReadThumbnail("item1")
	if err != nil {
		t.Fatalf("read thumbnail: %v", err)
	}
	if string(data) != "png bytes" {
		t.Errorf("thumbnail content mismatch: %q", data)
	}

	if err := s.DeleteThumbnail("item1"); err != nil {
		t.Fatalf("delete thumbnail: %v", err)
	}
	if _, err := s.ReadThumbnail("item1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// Idempotent delete.
	if err := s.DeleteThumbnail("item1"); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestRejectsRelativeRoot(t *testing.T) {
	if _, err := New("relative/root", nil); err == nil {
		t.Error("expected error for relative root")
	}
}
