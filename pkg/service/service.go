// Package service composes the storage, file, search and index layers into
// the host-side library operations.
package service

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/filestore"
	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/folders"
	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/models"
	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/mtime"
	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/search"
	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/storage"
)

// Service is the core library service. It is the only writer of library
// metadata; the search index and the modification-time index are maintained
// as side effects of every mutation, and their failures never abort the
// metadata commit.
type Service struct {
	library  *storage.LibraryStore
	files    *filestore.Store
	migrator *folders.Migrator
	mtimes   *mtime.Index
	index    search.Fusion
	logger   *logrus.Entry
}

// New creates the service. index may be nil to run without search.
func New(library *storage.LibraryStore, files *filestore.Store, mtimes *mtime.Index, index search.Fusion, logger *logrus.Entry) *Service {
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	entry := logger.WithField("component", "library-service")
	return &Service{
		library:  library,
		files:    files,
		migrator: folders.NewMigrator(files, entry),
		mtimes:   mtimes,
		index:    index,
		logger:   entry,
	}
}

// Document returns the current library document, creating an empty one for a
// fresh data directory.
func (s *Service) Document() (*models.LibraryDocument, error) {
	doc, err := s.library.Read()
	if err == storage.ErrNotFound {
		return models.NewLibraryDocument(), nil
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// mutate applies fn to a copy of the current document and commits the copy.
// The stored document is never modified in place.
func (s *Service) mutate(fn func(doc *models.LibraryDocument) error) error {
	doc, err := s.Document()
	if err != nil {
		return err
	}

	next := cloneDocument(doc)
	if err := fn(next); err != nil {
		return err
	}
	return s.library.Write(next)
}

func cloneDocument(doc *models.LibraryDocument) *models.LibraryDocument {
	out := *doc
	out.Items = append([]models.ResourceItem(nil), doc.Items...)
	out.Tags = append([]models.Tag(nil), doc.Tags...)
	out.Folders = append([]models.Folder(nil), doc.Folders...)
	return &out
}

// touch records a library mutation in the modification-time index. Index
// failures are logged, never propagated.
func (s *Service) touch(id string) {
	if err := s.mtimes.Touch(id); err != nil {
		s.logger.WithError(err).WithField("item", id).Warn("mtime index update failed")
	}
}

// ReplaceDocument commits doc wholesale, used by backup restore
func (s *Service) ReplaceDocument(doc *models.LibraryDocument) error {
	return s.library.Write(doc)
}

// IngestItem persists a captured item: embedded content is written to the
// file store first, then the metadata commit makes the item visible. The
// search index is updated best-effort afterwards.
func (s *Service) IngestItem(item *models.ResourceItem, content string) error {
	if item == nil || item.ID == "" {
		return fmt.Errorf("item has no id")
	}

	if item.StorageMode == models.ModeEmbed && content != "" {
		name := item.FileName
		if name == "" {
			return fmt.Errorf("embedded item %s has no file name", item.ID)
		}
		path, err := s.files.SaveFile(item.ID, name, []byte(content))
		if err != nil {
			return fmt.Errorf("store content for %s: %w", item.ID, err)
		}
		item.LocalPath = path
		item.Path = path
	}

	now := time.Now()
	err := s.mutate(func(doc *models.LibraryDocument) error {
		if existing := doc.FindItem(item.ID); existing != nil {
			created := existing.CreatedAt
			*existing = *item
			existing.CreatedAt = created
			existing.UpdatedAt = now
			return nil
		}
		next := *item
		if next.CreatedAt.IsZero() {
			next.CreatedAt = now
		}
		next.UpdatedAt = now
		doc.Items = append(doc.Items, next)
		return nil
	})
	if err != nil {
		return err
	}

	s.touch(item.ID)
	if s.index != nil {
		if err := s.index.IndexItem(item, content); err != nil {
			s.logger.WithError(err).WithField("item", item.ID).Warn("search indexing failed")
		}
	}
	return nil
}

// GetItem returns a copy of the item with the given id
func (s *Service) GetItem(id string) (*models.ResourceItem, error) {
	doc, err := s.Document()
	if err != nil {
		return nil, err
	}
	item := doc.FindItem(id)
	if item == nil {
		return nil, storage.ErrNotFound
	}
	out := *item
	return &out, nil
}

// GetFilePath locates the content file of an item on disk
func (s *Service) GetFilePath(id string) (string, error) {
	item, err := s.GetItem(id)
	if err != nil {
		return "", err
	}
	name := item.FileName
	if name == "" && item.Path != "" {
		name = filepath.Base(item.Path)
	}
	return s.files.FilePath(id, name)
}

// MoveItemToFolder relocates an item's content into the target folder's
// directory and only then updates its metadata. A failed move leaves the
// metadata untouched.
func (s *Service) MoveItemToFolder(id, folderID string) error {
	item, err := s.GetItem(id)
	if err != nil {
		return err
	}

	newPath, err := s.migrator.Migrate(item, folderID)
	if err != nil {
		return fmt.Errorf("migrate %s: %w", id, err)
	}

	if folderID == "" {
		folderID = models.FolderUncategorized
	}
	err = s.mutate(func(doc *models.LibraryDocument) error {
		target := doc.FindItem(id)
		if target == nil {
			return storage.ErrNotFound
		}
		target.FolderID = folderID
		target.Path = newPath
		if target.StorageMode != models.ModeReference {
			target.LocalPath = newPath
		}
		target.UpdatedAt = time.Now()
		return nil
	})
	if err != nil {
		return err
	}

	s.touch(id)
	return nil
}

// Delete moves an item to the trash. Content and index entries are kept so
// the item can be restored intact.
func (s *Service) Delete(id string) error {
	now := time.Now()
	err := s.mutate(func(doc *models.LibraryDocument) error {
		item := doc.FindItem(id)
		if item == nil {
			return storage.ErrNotFound
		}
		item.DeletedAt = &now
		item.UpdatedAt = now
		return nil
	})
	if err != nil {
		return err
	}
	s.touch(id)
	return nil
}

// Restore brings a trashed item back
func (s *Service) Restore(id string) error {
	err := s.mutate(func(doc *models.LibraryDocument) error {
		item := doc.FindItem(id)
		if item == nil {
			return storage.ErrNotFound
		}
		item.DeletedAt = nil
		item.UpdatedAt = time.Now()
		return nil
	})
	if err != nil {
		return err
	}
	s.touch(id)
	return nil
}

// Purge permanently removes an item: metadata first, then content, thumbnail,
// search and mtime entries. Cleanup failures after the metadata commit are
// logged, not returned.
func (s *Service) Purge(id string) error {
	err := s.mutate(func(doc *models.LibraryDocument) error {
		for i := range doc.Items {
			if doc.Items[i].ID == id {
				doc.Items = append(doc.Items[:i], doc.Items[i+1:]...)
				return nil
			}
		}
		return storage.ErrNotFound
	})
	if err != nil {
		return err
	}

	if err := s.files.DeleteItemArea(id); err != nil {
		s.logger.WithError(err).WithField("item", id).Warn("could not remove item files")
	}
	if err := s.files.DeleteThumbnail(id); err != nil {
		s.logger.WithError(err).WithField("item", id).Warn("could not remove thumbnail")
	}
	if s.index != nil {
		if err := s.index.RemoveItem(id); err != nil {
			s.logger.WithError(err).WithField("item", id).Warn("could not remove search entry")
		}
	}
	if err := s.mtimes.Remove(id); err != nil {
		s.logger.WithError(err).WithField("item", id).Warn("could not remove mtime entry")
	}
	return nil
}

// ToggleStar flips an item's star and returns the new state
func (s *Service) ToggleStar(id string) (bool, error) {
	var starred bool
	err := s.mutate(func(doc *models.LibraryDocument) error {
		item := doc.FindItem(id)
		if item == nil {
			return storage.ErrNotFound
		}
		item.IsStarred = !item.IsStarred
		item.UpdatedAt = time.Now()
		starred = item.IsStarred
		return nil
	})
	if err != nil {
		return false, err
	}
	s.touch(id)
	return starred, nil
}

// Close releases the search index
func (s *Service) Close() error {
	if s.index != nil {
		return s.index.Close()
	}
	return nil
}
