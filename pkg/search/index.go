package search

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/models"
)

// SQLiteIndex is the local Fusion implementation: FTS5 when the sqlite build
// supports it, LIKE queries over the metadata table otherwise.
type SQLiteIndex struct {
	db     *sql.DB
	useFTS bool
}

var _ Fusion = (*SQLiteIndex)(nil)

// NewSQLiteIndex opens (or creates) the search index at dbPath
func NewSQLiteIndex(dbPath string) (*SQLiteIndex, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open search index: %w", err)
	}

	idx := &SQLiteIndex{db: db}
	if err := idx.init(); err != nil {
		return nil, fmt.Errorf("initialize search index: %w", err)
	}
	return idx, nil
}

// init creates the database schema
func (idx *SQLiteIndex) init() error {
	idx.useFTS = idx.checkFTS5Support()

	metaSchema := `
	CREATE TABLE IF NOT EXISTS items_meta (
		id TEXT PRIMARY KEY,
		title TEXT,
		type TEXT,
		folder_id TEXT,
		content TEXT,
		updated_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_items_meta_title ON items_meta(title);
	CREATE INDEX IF NOT EXISTS idx_items_meta_folder ON items_meta(folder_id);
	`
	if _, err := idx.db.Exec(metaSchema); err != nil {
		return err
	}

	if idx.useFTS {
		ftsSchema := `
		CREATE VIRTUAL TABLE IF NOT EXISTS items_fts USING fts5(
			id UNINDEXED,
			title,
			content,
			tokenize = 'porter unicode61'
		);
		`
		if _, err := idx.db.Exec(ftsSchema); err != nil {
			// FTS creation failed, fall back to LIKE search
			idx.useFTS = false
		}
	}

	return nil
}

// checkFTS5Support probes for the FTS5 module with a throwaway table
func (idx *SQLiteIndex) checkFTS5Support() bool {
	if _, err := idx.db.Exec("CREATE VIRTUAL TABLE IF NOT EXISTS fts5_probe USING fts5(content)"); err != nil {
		return false
	}
	_, _ = idx.db.Exec("DROP TABLE IF EXISTS fts5_probe")
	return true
}

// IndexItem indexes or reindexes one item with its extracted text content
func (idx *SQLiteIndex) IndexItem(item *models.ResourceItem, content string) error {
	tx, err := idx.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if idx.useFTS {
		if _, err = tx.Exec("DELETE FROM items_fts WHERE id = ?", item.ID); err != nil {
			return err
		}
		if _, err = tx.Exec(
			"INSERT INTO items_fts (id, title, content) VALUES (?, ?, ?)",
			item.ID, item.Title, content,
		); err != nil {
			return err
		}
	}

	if _, err = tx.Exec("DELETE FROM items_meta WHERE id = ?", item.ID); err != nil {
		return err
	}
	if _, err = tx.Exec(`
		INSERT INTO items_meta (id, title, type, folder_id, content, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, item.ID, item.Title, string(item.Type), item.FolderID, content, item.UpdatedAt); err != nil {
		return err
	}

	return tx.Commit()
}

// RemoveItem removes an item from the index
func (idx *SQLiteIndex) RemoveItem(id string) error {
	tx, err := idx.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if idx.useFTS {
		if _, err = tx.Exec("DELETE FROM items_fts WHERE id = ?", id); err != nil {
			return err
		}
	}
	if _, err = tx.Exec("DELETE FROM items_meta WHERE id = ?", id); err != nil {
		return err
	}

	return tx.Commit()
}

// Search returns ranked item ids for a free-text query
func (idx *SQLiteIndex) Search(query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 50
	}
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	if idx.useFTS {
		return idx.searchWithFTS(query, limit)
	}
	return idx.searchWithoutFTS(query, limit)
}

// searchWithFTS ranks by the FTS5 built-in rank
func (idx *SQLiteIndex) searchWithFTS(query string, limit int) ([]string, error) {
	rows, err := idx.db.Query(`
		SELECT id FROM items_fts
		WHERE items_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIDs(rows)
}

// searchWithoutFTS runs separate LIKE queries over titles and content and
// fuses the two ranked lists.
func (idx *SQLiteIndex) searchWithoutFTS(query string, limit int) ([]string, error) {
	pattern := "%" + strings.ReplaceAll(strings.TrimSpace(query), " ", "%") + "%"

	titleRows, err := idx.db.Query(`
		SELECT id FROM items_meta
		WHERE title LIKE ?
		ORDER BY updated_at DESC
		LIMIT ?
	`, pattern, limit)
	if err != nil {
		return nil, err
	}
	byTitle, err := scanIDs(titleRows)
	titleRows.Close()
	if err != nil {
		return nil, err
	}

	contentRows, err := idx.db.Query(`
		SELECT id FROM items_meta
		WHERE content LIKE ?
		ORDER BY updated_at DESC
		LIMIT ?
	`, pattern, limit)
	if err != nil {
		return nil, err
	}
	byContent, err := scanIDs(contentRows)
	contentRows.Close()
	if err != nil {
		return nil, err
	}

	fused := fuseRanks(byTitle, byContent)
	if len(fused) > limit {
		fused = fused[:limit]
	}
	return fused, nil
}

// Close closes the index
func (idx *SQLiteIndex) Close() error {
	return idx.db.Close()
}

func scanIDs(rows *sql.Rows) ([]string, error) {
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
