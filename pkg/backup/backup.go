// Package backup snapshots the library document before destructive writes
// and prunes old snapshots with a keep-last-N policy.
package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/models"
	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/storage"
)

const (
	filePrefix   = "backup-"
	fileSuffix   = ".json"
	manifestName = "manifest.yaml"

	// bookkeeping keys stamped into each snapshot, stripped on restore
	keyCreatedAt = "_backupCreatedAt"
	keyItemCount = "_backupItemCount"
)

// Manager owns the backups directory
type Manager struct {
	dir    string
	logger *logrus.Entry
}

// NewManager creates a manager for the given backups directory
func NewManager(dir string, logger *logrus.Entry) (*Manager, error) {
	if !filepath.IsAbs(dir) {
		return nil, fmt.Errorf("invalid backups directory (not absolute): %s", dir)
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	return &Manager{
		dir:    dir,
		logger: logger.WithField("component", "backup"),
	}, nil
}

// Dir returns the backups directory
func (m *Manager) Dir() string {
	return m.dir
}

// Create snapshots doc into a new timestamped backup file and returns its
// path. File names sort chronologically.
func (m *Manager) Create(doc *models.LibraryDocument) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("nil document")
	}

	raw, err := docToMap(doc)
	if err != nil {
		return "", err
	}

	now := time.Now()
	raw[keyCreatedAt] = now.Format(time.RFC3339)
	raw[keyItemCount] = len(doc.Items)

	name := fmt.Sprintf("%s%s.%d%s", filePrefix, now.UTC().Format("20060102T150405"), now.UnixMilli(), fileSuffix)
	path := filepath.Join(m.dir, name)
	if err := storage.WriteJSONAtomic(path, raw); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}

	if err := m.writeManifest(); err != nil {
		// The snapshot itself is committed; a stale manifest is tolerable.
		m.logger.WithError(err).Warn("could not update backup manifest")
	}

	m.logger.WithFields(logrus.Fields{"path": path, "items": len(doc.Items)}).Debug("backup created")
	return path, nil
}

// List returns all backups, newest first
func (m *Manager) List() ([]models.BackupRecord, error) {
	entries, err := os.ReadDir(m.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read backups directory: %w", err)
	}

	var records []models.BackupRecord
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		ts, ok := timestampFromName(name)
		if !ok {
			continue
		}
		records = append(records, models.BackupRecord{
			Path:      filepath.Join(m.dir, name),
			FileName:  name,
			Timestamp: ts,
			Size:      info.Size(),
			ItemCount: m.itemCount(filepath.Join(m.dir, name)),
		})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
	return records, nil
}

// Restore loads a backup and returns a document usable by the library
// store, with backup bookkeeping fields stripped.
func (m *Manager) Restore(path string) (*models.LibraryDocument, error) {
	raw := map[string]any{}
	if err := storage.ReadJSON(path, &raw); err != nil {
		return nil, err
	}

	for key := range raw {
		if strings.HasPrefix(key, "_backup") {
			delete(raw, key)
		}
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("rebuild document: %w", err)
	}
	doc := &models.LibraryDocument{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("parse backup %s: %w", filepath.Base(path), err)
	}
	return doc, nil
}

// Cleanup deletes the oldest backups beyond keepCount. Individual deletion
// failures are logged and skipped, not fatal.
func (m *Manager) Cleanup(keepCount int) error {
	if keepCount < 0 {
		return fmt.Errorf("negative keep count: %d", keepCount)
	}

	records, err := m.List()
	if err != nil {
		return err
	}
	if len(records) <= keepCount {
		return nil
	}

	for _, rec := range records[keepCount:] {
		if err := os.Remove(rec.Path); err != nil {
			m.logger.WithError(err).WithField("path", rec.Path).Warn("could not delete old backup")
			continue
		}
		m.logger.WithField("path", rec.Path).Debug("old backup pruned")
	}

	if err := m.writeManifest(); err != nil {
		m.logger.WithError(err).Warn("could not update backup manifest")
	}
	return nil
}

// writeManifest records the current backup inventory next to the snapshots
func (m *Manager) writeManifest() error {
	records, err := m.List()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(struct {
		UpdatedAt time.Time             `yaml:"updatedAt"`
		Backups   []models.BackupRecord `yaml:"backups"`
	}{UpdatedAt: time.Now(), Backups: records})
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(m.dir, manifestName), data, 0644)
}

// itemCount reads the bookkeeping item count from a snapshot. Zero when the
// snapshot predates the field or cannot be read.
func (m *Manager) itemCount(path string) int {
	raw := map[string]any{}
	if err := storage.ReadJSON(path, &raw); err != nil {
		return 0
	}
	if n, ok := raw[keyItemCount].(float64); ok {
		return int(n)
	}
	return 0
}

// timestampFromName parses the epoch-millis segment of a backup file name:
// backup-<sortable>.<epochMillis>.json
func timestampFromName(name string) (time.Time, bool) {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
	parts := strings.Split(trimmed, ".")
	if len(parts) != 2 {
		return time.Time{}, false
	}
	millis, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(millis), true
}

// docToMap round-trips the document through JSON so bookkeeping keys can be
// added without a dedicated snapshot type.
func docToMap(doc *models.LibraryDocument) (map[string]any, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("serialize document: %w", err)
	}
	raw := map[string]any{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
