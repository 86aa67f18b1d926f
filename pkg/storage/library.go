package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/models"
)

// BackupFunc snapshots the current document before a destructive write.
// Wired to backup.Manager.Create by the service layer.
type BackupFunc func(doc *models.LibraryDocument) (string, error)

// LibraryStore owns the authoritative metadata document at data/library.json.
// It is the sole mutator of that file. Writes are serialized: a second write
// attempted while one is in flight fails with ErrBusy.
type LibraryStore struct {
	path   string
	backup BackupFunc
	logger *logrus.Entry

	mu      sync.Mutex
	writing bool
	cached  *models.LibraryDocument
}

// NewLibraryStore creates a store for the document at path. backup may be
// nil, in which case no pre-write snapshots are taken.
func NewLibraryStore(path string, backup BackupFunc, logger *logrus.Entry) (*LibraryStore, error) {
	if !filepath.IsAbs(path) {
		return nil, fmt.Errorf("invalid library path (not absolute): %s", path)
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	return &LibraryStore{
		path:   path,
		backup: backup,
		logger: logger.WithField("component", "library-store"),
	}, nil
}

// Path returns the canonical document path
func (s *LibraryStore) Path() string {
	return s.path
}

// Read returns the current document. The cached copy is served when present;
// it is only ever replaced wholesale by a successful Write, never mutated in
// place. A store with no document yet returns ErrNotFound.
func (s *LibraryStore) Read() (*models.LibraryDocument, error) {
	s.mu.Lock()
	if s.cached != nil {
		doc := s.cached
		s.mu.Unlock()
		return doc, nil
	}
	s.mu.Unlock()

	doc := &models.LibraryDocument{}
	if err := ReadJSON(s.path, doc); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cached = doc
	s.mu.Unlock()
	return doc, nil
}

// Write commits doc as the new authoritative document. The previous document
// is snapshotted first when one exists, lastModified is stamped, and the
// commit is a single atomic rename. Failures are returned to the caller;
// nothing is retried here.
func (s *LibraryStore) Write(doc *models.LibraryDocument) error {
	if doc == nil {
		return fmt.Errorf("nil document")
	}
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("validate document: %w", err)
	}

	s.mu.Lock()
	if s.writing {
		s.mu.Unlock()
		return ErrBusy
	}
	s.writing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.writing = false
		s.mu.Unlock()
	}()

	if s.backup != nil {
		if prev, err := s.readExisting(); err == nil && prev != nil {
			if _, err := s.backup(prev); err != nil {
				return fmt.Errorf("backup previous document: %w", err)
			}
		}
	}

	doc.LastModified = time.Now()
	if doc.Version == 0 {
		doc.Version = models.DocumentVersion
	}

	if err := WriteJSONAtomic(s.path, doc); err != nil {
		return err
	}

	s.mu.Lock()
	s.cached = doc
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"items":   len(doc.Items),
		"folders": len(doc.Folders),
	}).Debug("library document committed")
	return nil
}

// readExisting loads the on-disk document without touching the cache. Used
// to snapshot the pre-write state even when the cache is stale.
func (s *LibraryStore) readExisting() (*models.LibraryDocument, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	doc := &models.LibraryDocument{}
	if err := ReadJSON(s.path, doc); err != nil {
		return nil, err
	}
	return doc, nil
}
