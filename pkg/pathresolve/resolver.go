// Package pathresolve locates an item's content file on disk despite
// storage-layout drift and filename-encoding differences between
// filesystems. Resolution is an ordered chain of strategies; the first hit
// wins and no strategy may guess a path that does not exist.
package pathresolve

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrNotFound means no strategy located the file. Callers must not
// fabricate a path from the remembered name; acting on a guessed path
// produces confusing downstream I/O errors.
var ErrNotFound = errors.New("file not found in any storage area")

// commonExtensions are tried by the legacy guess strategy for remembered
// names that were stored without their extension.
var commonExtensions = []string{".html", ".pdf", ".md", ".txt", ".png", ".jpg", ".epub", ".docx"}

// strategy attempts one resolution tier. It returns the absolute path and
// true on a hit, and must never return a path that does not exist.
type strategy func(id, name string) (string, bool)

// Resolver resolves item files across the current per-item area, the
// deprecated flat legacy area, and the per-folder migration targets.
type Resolver struct {
	filesDir   string
	legacyDir  string
	foldersDir string

	strategies []strategy
}

// New creates a resolver over the three storage areas. legacyDir may name a
// directory that no longer exists; its tiers then simply miss.
func New(filesDir, legacyDir, foldersDir string) *Resolver {
	r := &Resolver{
		filesDir:   filesDir,
		legacyDir:  legacyDir,
		foldersDir: foldersDir,
	}
	r.strategies = []strategy{
		r.exactMatch,
		r.normalizedMatch,
		r.singleContentFile,
		r.legacyMatch,
		r.legacyGuess,
		r.folderScan,
	}
	return r
}

// Resolve finds the content file for id remembered as name. Strategies are
// attempted in priority order; the first hit wins.
func (r *Resolver) Resolve(id, name string) (string, error) {
	for _, s := range r.strategies {
		if path, ok := s(id, name); ok {
			return path, nil
		}
	}
	return "", ErrNotFound
}

// itemDir is the per-item content area for id
func (r *Resolver) itemDir(id string) string {
	return filepath.Join(r.filesDir, id)
}

// exactMatch: tier 1, the remembered name as-is inside the item area
func (r *Resolver) exactMatch(id, name string) (string, bool) {
	if name == "" {
		return "", false
	}
	path := filepath.Join(r.itemDir(id), name)
	if fileExists(path) {
		return path, true
	}
	return "", false
}

// normalizedMatch: tier 2, scan the item area comparing names under both
// Unicode normal forms. The same accented filename can round-trip through a
// decomposing filesystem and come back as different bytes.
func (r *Resolver) normalizedMatch(id, name string) (string, bool) {
	return scanDirNormalized(r.itemDir(id), name)
}

// singleContentFile: tier 3, if the item area holds exactly one file that is
// not a metadata/thumbnail/temp artifact, that file is the content.
func (r *Resolver) singleContentFile(id, _ string) (string, bool) {
	dir := r.itemDir(id)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}

	var candidate string
	for _, e := range entries {
		if e.IsDir() || isArtifact(e.Name()) {
			continue
		}
		if candidate != "" {
			return "", false // more than one content file, ambiguous
		}
		candidate = filepath.Join(dir, e.Name())
	}
	if candidate == "" {
		return "", false
	}
	return candidate, true
}

// legacyMatch: tier 4, tiers 1-2 repeated against the deprecated flat
// storage directory.
func (r *Resolver) legacyMatch(_, name string) (string, bool) {
	if name == "" || r.legacyDir == "" {
		return "", false
	}
	path := filepath.Join(r.legacyDir, name)
	if fileExists(path) {
		return path, true
	}
	return scanDirNormalized(r.legacyDir, name)
}

// legacyGuess: tier 5, search the legacy directory for an entry whose name
// contains the item id, or the remembered name with a common extension
// appended.
func (r *Resolver) legacyGuess(id, name string) (string, bool) {
	if r.legacyDir == "" {
		return "", false
	}
	entries, err := os.ReadDir(r.legacyDir)
	if err != nil {
		return "", false
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if id != "" && strings.Contains(e.Name(), id) {
			return filepath.Join(r.legacyDir, e.Name()), true
		}
	}

	if name != "" {
		for _, ext := range commonExtensions {
			path := filepath.Join(r.legacyDir, name+ext)
			if fileExists(path) {
				return path, true
			}
		}
	}
	return "", false
}

// folderScan: tier 6, tiers 1-2 repeated against every folder-migration
// target directory.
func (r *Resolver) folderScan(_, name string) (string, bool) {
	if name == "" || r.foldersDir == "" {
		return "", false
	}
	folders, err := os.ReadDir(r.foldersDir)
	if err != nil {
		return "", false
	}

	for _, f := range folders {
		if !f.IsDir() {
			continue
		}
		dir := filepath.Join(r.foldersDir, f.Name())
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return path, true
		}
		if found, ok := scanDirNormalized(dir, name); ok {
			return found, ok
		}
	}
	return "", false
}

// scanDirNormalized looks for an entry of dir equal to name under either
// canonical Unicode normal form.
func scanDirNormalized(dir, name string) (string, bool) {
	if name == "" {
		return "", false
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}

	wantNFC := norm.NFC.String(name)
	wantNFD := norm.NFD.String(name)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		got := e.Name()
		if norm.NFC.String(got) == wantNFC || norm.NFD.String(got) == wantNFD {
			return filepath.Join(dir, got), true
		}
	}
	return "", false
}

// isArtifact reports whether name is store bookkeeping rather than content
func isArtifact(name string) bool {
	switch name {
	case "metadata.json", "index.json", ".DS_Store":
		return true
	}
	if strings.HasPrefix(name, ".") {
		return true
	}
	if strings.HasSuffix(name, ".tmp") {
		return true
	}
	if strings.HasPrefix(name, "thumbnail") {
		return true
	}
	return false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
