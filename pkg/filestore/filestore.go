// Package filestore owns per-item content and thumbnail storage under the
// application data root. Each item gets an isolated directory keyed by its
// id; thumbnails live in a flat directory keyed by id with a fixed
// extension.
package filestore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"

	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/pathresolve"
	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/storage"
)

const (
	filesDirName      = "files"
	thumbnailsDirName = "thumbnails"
	thumbnailImages   = "images"
	thumbnailExt      = ".png"
	metadataFileName  = "metadata.json"
	legacyDirName     = "storage"
	foldersDirName    = "folders"
)

// Store is the sole mutator of the per-item storage tree
type Store struct {
	root     string
	resolver *pathresolve.Resolver
	logger   *logrus.Entry
}

// New creates a file store rooted at the application data root. The
// directory tree is created on demand, not up front.
func New(root string, logger *logrus.Entry) (*Store, error) {
	if !filepath.IsAbs(root) {
		return nil, fmt.Errorf("invalid storage root (not absolute): %s", root)
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}

	resolver := pathresolve.New(
		filepath.Join(root, filesDirName),
		filepath.Join(root, legacyDirName),
		filepath.Join(root, foldersDirName),
	)

	return &Store{
		root:     root,
		resolver: resolver,
		logger:   logger.WithField("component", "filestore"),
	}, nil
}

// Root returns the application data root
func (s *Store) Root() string {
	return s.root
}

// Resolver exposes the path resolver bound to this store's layout
func (s *Store) Resolver() *pathresolve.Resolver {
	return s.resolver
}

// ItemDir returns the per-item content directory for id
func (s *Store) ItemDir(id string) string {
	return filepath.Join(s.root, filesDirName, id)
}

// FoldersDir returns the root of the per-folder migration areas
func (s *Store) FoldersDir() string {
	return filepath.Join(s.root, foldersDirName)
}

// NormalizeFileName canonicalizes a filename to composed Unicode form.
// Filesystems that decompose accented characters would otherwise make
// existence checks fail spuriously after a round trip.
func NormalizeFileName(name string) string {
	return norm.NFC.String(name)
}

// CreateItemArea creates the isolated directory for an item
func (s *Store) CreateItemArea(id string) error {
	if id == "" {
		return fmt.Errorf("empty item id")
	}
	if err := os.MkdirAll(s.ItemDir(id), 0755); err != nil {
		return fmt.Errorf("create item area %s: %w", id, err)
	}
	return nil
}

// SaveFile writes content bytes into the item's area under the normalized
// filename and returns the absolute path written.
func (s *Store) SaveFile(id, fileName string, data []byte) (string, error) {
	if fileName == "" {
		return "", fmt.Errorf("empty file name for item %s", id)
	}
	if err := s.CreateItemArea(id); err != nil {
		return "", err
	}

	path := filepath.Join(s.ItemDir(id), NormalizeFileName(fileName))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("save file for item %s: %w", id, err)
	}
	return path, nil
}

// ReadFile loads an item's content bytes, resolving the actual on-disk
// location through the path resolver.
func (s *Store) ReadFile(id, fileName string) ([]byte, error) {
	path, err := s.resolver.Resolve(id, fileName)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file for item %s: %w", id, err)
	}
	return data, nil
}

// FilePath resolves the on-disk location of an item's content file
func (s *Store) FilePath(id, fileName string) (string, error) {
	return s.resolver.Resolve(id, fileName)
}

// DeleteItemArea removes an item's directory and everything in it
func (s *Store) DeleteItemArea(id string) error {
	if id == "" {
		return fmt.Errorf("empty item id")
	}
	if err := os.RemoveAll(s.ItemDir(id)); err != nil {
		return fmt.Errorf("delete item area %s: %w", id, err)
	}
	return nil
}

// SaveMetadata writes the item's metadata sidecar atomically
func (s *Store) SaveMetadata(id string, meta any) error {
	if err := s.CreateItemArea(id); err != nil {
		return err
	}
	return storage.WriteJSONAtomic(filepath.Join(s.ItemDir(id), metadataFileName), meta)
}

// ReadMetadata loads the item's metadata sidecar into out
func (s *Store) ReadMetadata(id string, out any) error {
	return storage.ReadJSON(filepath.Join(s.ItemDir(id), metadataFileName), out)
}

// ThumbnailPath returns the fixed thumbnail location for an item
func (s *Store) ThumbnailPath(id string) string {
	return filepath.Join(s.root, thumbnailsDirName, thumbnailImages, id+thumbnailExt)
}

// SaveThumbnail stores an item's preview image
func (s *Store) SaveThumbnail(id string, data []byte) error {
	path := s.ThumbnailPath(id)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create thumbnails directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("save thumbnail for item %s: %w", id, err)
	}
	return nil
}

// ReadThumbnail loads an item's preview image
func (s *Store) ReadThumbnail(id string) ([]byte, error) {
	data, err := os.ReadFile(s.ThumbnailPath(id))
	if os.IsNotExist(err) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read thumbnail for item %s: %w", id, err)
	}
	return data, nil
}

// DeleteThumbnail removes an item's preview image. Missing thumbnails are
// not an error.
func (s *Store) DeleteThumbnail(id string) error {
	err := os.Remove(s.ThumbnailPath(id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete thumbnail for item %s: %w", id, err)
	}
	return nil
}
