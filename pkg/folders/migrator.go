// Package folders relocates item content between the per-item storage area
// and per-folder areas when an item's classification changes.
package folders

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/filestore"
	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/models"
)

// Migrator moves or copies an item's content file into a folder directory.
// On any failure the original location is left intact; callers update item
// metadata only after Migrate returns successfully.
type Migrator struct {
	store  *filestore.Store
	logger *logrus.Entry
}

// NewMigrator creates a migrator over the given file store
func NewMigrator(store *filestore.Store, logger *logrus.Entry) *Migrator {
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	return &Migrator{
		store:  store,
		logger: logger.WithField("component", "folder-migrator"),
	}
}

// Migrate relocates item's content for a move into toFolderID. Embed-mode
// items are physically moved from wherever they currently live into the
// folder area. Reference-mode items are copied from the user's filesystem;
// the external source is never touched and localPath stays authoritative.
// The new path is returned; the caller commits it to metadata afterwards.
func (m *Migrator) Migrate(item *models.ResourceItem, toFolderID string) (string, error) {
	if item == nil {
		return "", fmt.Errorf("nil item")
	}

	folderID := toFolderID
	if folderID == "" {
		folderID = models.FolderUncategorized
	}
	destDir := filepath.Join(m.store.FoldersDir(), folderID)

	switch item.StorageMode {
	case models.ModeReference:
		return m.copyReference(item, destDir)
	default:
		return m.moveEmbedded(item, destDir)
	}
}

// copyReference copies an external file into the folder area. Nothing is
// deleted from the user's filesystem.
func (m *Migrator) copyReference(item *models.ResourceItem, destDir string) (string, error) {
	src := item.LocalPath
	if src == "" {
		src = item.Path
	}
	if src == "" {
		return "", fmt.Errorf("reference item %s has no local path", item.ID)
	}
	if _, err := os.Stat(src); err != nil {
		return "", fmt.Errorf("reference source for item %s: %w", item.ID, err)
	}

	dst, err := m.destination(destDir, filepath.Base(src))
	if err != nil {
		return "", err
	}
	if err := copyFile(src, dst); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("copy reference item %s: %w", item.ID, err)
	}

	m.logger.WithFields(logrus.Fields{"item": item.ID, "dest": dst}).Debug("reference item copied")
	return dst, nil
}

// moveEmbedded physically moves a store-owned file into the folder area
func (m *Migrator) moveEmbedded(item *models.ResourceItem, destDir string) (string, error) {
	name := item.FileName
	if name == "" && item.Path != "" {
		name = filepath.Base(item.Path)
	}

	src, err := m.store.FilePath(item.ID, name)
	if err != nil {
		return "", fmt.Errorf("locate content for item %s: %w", item.ID, err)
	}

	dst, err := m.destination(destDir, filepath.Base(src))
	if err != nil {
		return "", err
	}
	if err := moveFile(src, dst); err != nil {
		return "", fmt.Errorf("move item %s: %w", item.ID, err)
	}

	m.logger.WithFields(logrus.Fields{"item": item.ID, "dest": dst}).Debug("embedded item moved")
	return dst, nil
}

// destination creates destDir and returns a non-conflicting target path.
// An occupied slot gets a disambiguating numeric suffix, never a silent
// overwrite.
func (m *Migrator) destination(destDir, name string) (string, error) {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("create folder area: %w", err)
	}

	name = filestore.NormalizeFileName(name)
	dst := filepath.Join(destDir, name)
	if _, err := os.Stat(dst); os.IsNotExist(err) {
		return dst, nil
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 2; ; i++ {
		candidate := filepath.Join(destDir, fmt.Sprintf("%s-%d%s", base, i, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}
}

// moveFile renames src to dst, falling back to copy-then-delete when the
// paths are on different volumes. A failed copy removes the partial
// destination and leaves the source untouched.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
