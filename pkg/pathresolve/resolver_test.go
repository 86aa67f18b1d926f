package pathresolve

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/unicode/norm"
)

type testDirs struct {
	files   string
	legacy  string
	folders string
}

func setup(t *testing.T) (*Resolver, testDirs) {
	t.Helper()
	root := t.TempDir()
	d := testDirs{
		files:   filepath.Join(root, "files"),
		legacy:  filepath.Join(root, "storage"),
		folders: filepath.Join(root, "folders"),
	}
	for _, dir := range []string{d.files, d.legacy, d.folders} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
	}
	return New(d.files, d.legacy, d.folders), d
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("content"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestExactMatch(t *testing.T) {
	r, d := setup(t)
	want := filepath.Join(d.files, "item1", "report.pdf")
	writeFile(t, want)

	got, err := r.Resolve("item1", "report.pdf")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestNormalizedMatch(t *testing.T) {
	// The file landed on disk in decomposed form; the remembered name is
	// composed. Both directions must resolve.
	composed := norm.NFC.String("café.pdf")
	decomposed := norm.NFD.String("café.pdf")
	if composed == decomposed {
		t.Skip("normal forms identical on this platform")
	}

	tests := []struct {
		name       string
		onDisk     string
		remembered string
	}{
		{"disk NFD, remembered NFC", decomposed, composed},
		{"disk NFC, remembered NFD", composed, decomposed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, d := setup(t)
			want := filepath.Join(d.files, "item1", tt.onDisk)
			writeFile(t, want)

			got, err := r.Resolve("item1", tt.remembered)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if got != want {
				t.Errorf("got %s, want %s", got, want)
			}
		})
	}
}

func TestSingleContentFile(t *testing.T) {
	r, d := setup(t)
	want := filepath.Join(d.files, "item1", "renamed-elsewhere.pdf")
	writeFile(t, want)
	writeFile(t, filepath.Join(d.files, "item1", "metadata.json"))
	writeFile(t, filepath.Join(d.files, "item1", "upload.tmp"))

	got, err := r.Resolve("item1", "original-name.pdf")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestSingleContentFileAmbiguous(t *testing.T) {
	r, d := setup(t)
	writeFile(t, filepath.Join(d.files, "item1", "one.pdf"))
	writeFile(t, filepath.Join(d.files, "item1", "two.pdf"))

	_, err := r.Resolve("item1", "missing.pdf")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("two content files must not resolve, got %v", err)
	}
}

func TestLegacyMatch(t *testing.T) {
	r, d := setup(t)
	want := filepath.Join(d.legacy, "old-capture.html")
	writeFile(t, want)

	got, err := r.Resolve("item1", "old-capture.html")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestLegacyGuessByID(t *testing.T) {
	r, d := setup(t)
	want := filepath.Join(d.legacy, "capture-item42-final.html")
	writeFile(t, want)

	got, err := r.Resolve("item42", "whatever.html")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestLegacyGuessByExtension(t *testing.T) {
	r, d := setup(t)
	want := filepath.Join(d.legacy, "saved-page.html")
	writeFile(t, want)

	got, err := r.Resolve("item1", "saved-page")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestFolderScan(t *testing.T) {
	r, d := setup(t)
	want := filepath.Join(d.folders, "research", "moved.pdf")
	writeFile(t, want)

	got, err := r.Resolve("item1", "moved.pdf")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestFolderScanNormalized(t *testing.T) {
	composed := norm.NFC.String("résumé.pdf")
	decomposed := norm.NFD.String("résumé.pdf")
	if composed == decomposed {
		t.Skip("normal forms identical on this platform")
	}

	r, d := setup(t)
	want := filepath.Join(d.folders, "uncategorized", decomposed)
	writeFile(t, want)

	got, err := r.Resolve("item1", composed)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestNotFound(t *testing.T) {
	r, _ := setup(t)
	_, err := r.Resolve("ghost", "nowhere.pdf")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPriorityOrder(t *testing.T) {
	// A file in the per-item area must win over a same-named file in the
	// legacy area.
	r, d := setup(t)
	want := filepath.Join(d.files, "item1", "doc.pdf")
	writeFile(t, want)
	writeFile(t, filepath.Join(d.legacy, "doc.pdf"))

	got, err := r.Resolve("item1", "doc.pdf")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != want {
		t.Errorf("item area must take priority, got %s", got)
	}
}

func TestIsArtifact(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"metadata.json", true},
		{"index.json", true},
		{".DS_Store", true},
		{".hidden", true},
		{"upload.tmp", true},
		{"thumbnail.png", true},
		{"report.pdf", false},
		{"café.html", false},
	}
	for _, tt := range tests {
		if got := isArtifact(tt.name); got != tt.want {
			t.Errorf("isArtifact(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
