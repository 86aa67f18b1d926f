package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteJSONAtomic serializes v and commits it to path with the
// write-temp-then-rename protocol. A reader never observes a partially
// written document: either the old content or the new content is present.
func WriteJSONAtomic(path string, v any) error {
	if !filepath.IsAbs(path) {
		return fmt.Errorf("invalid path (not absolute): %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize document: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		// Leave no orphan behind; the original document is still intact.
		_ = os.Remove(tmp)
		return fmt.Errorf("commit document: %w", err)
	}

	return nil
}

// ReadJSON loads the JSON document at path into v. A missing file is
// reported as ErrNotFound.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse document %s: %w", filepath.Base(path), err)
	}

	return nil
}
