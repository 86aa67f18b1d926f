// Package mtime tracks last-modified timestamps per item in a single small
// document, with a maintained entry count so reads never recount.
package mtime

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/storage"
)

// countKey holds the derived entry count inside the same document
const countKey = "all"

// Index is the item-id -> epoch-millis timestamp store at data/mtime.json
type Index struct {
	path string

	mu      sync.Mutex
	entries map[string]int64
	count   int
}

// New creates an index backed by the document at path
func New(path string) *Index {
	return &Index{path: path}
}

// load reads the document on first use. The count field is trusted when
// present and reconciled when missing.
func (idx *Index) load() error {
	if idx.entries != nil {
		return nil
	}

	raw := map[string]int64{}
	if err := storage.ReadJSON(idx.path, &raw); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	count, hasCount := raw[countKey]
	delete(raw, countKey)

	idx.entries = raw
	if hasCount {
		idx.count = int(count)
	} else {
		idx.count = len(raw)
	}
	return nil
}

// flush commits entries plus the count field atomically
func (idx *Index) flush() error {
	doc := make(map[string]int64, len(idx.entries)+1)
	for k, v := range idx.entries {
		doc[k] = v
	}
	doc[countKey] = int64(idx.count)
	return storage.WriteJSONAtomic(idx.path, doc)
}

// Get returns the stored timestamp for id
func (idx *Index) Get(id string) (time.Time, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if err := idx.load(); err != nil {
		return time.Time{}, err
	}
	millis, ok := idx.entries[id]
	if !ok {
		return time.Time{}, storage.ErrNotFound
	}
	return time.UnixMilli(millis), nil
}

// Set records a timestamp for id and keeps the count consistent
func (idx *Index) Set(id string, ts time.Time) error {
	if id == "" || id == countKey {
		return fmt.Errorf("invalid item id: %q", id)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if err := idx.load(); err != nil {
		return err
	}
	if _, exists := idx.entries[id]; !exists {
		idx.count++
	}
	idx.entries[id] = ts.UnixMilli()
	return idx.flush()
}

// Touch sets id's timestamp to now
func (idx *Index) Touch(id string) error {
	return idx.Set(id, time.Now())
}

// Remove deletes id's entry. Removing an absent id is a no-op.
func (idx *Index) Remove(id string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if err := idx.load(); err != nil {
		return err
	}
	if _, exists := idx.entries[id]; !exists {
		return nil
	}
	delete(idx.entries, id)
	idx.count--
	return idx.flush()
}

// All returns a copy of every entry
func (idx *Index) All() (map[string]time.Time, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if err := idx.load(); err != nil {
		return nil, err
	}
	out := make(map[string]time.Time, len(idx.entries))
	for id, millis := range idx.entries {
		out[id] = time.UnixMilli(millis)
	}
	return out, nil
}

// Count returns the maintained entry count without scanning
func (idx *Index) Count() (int, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if err := idx.load(); err != nil {
		return 0, err
	}
	return idx.count, nil
}
