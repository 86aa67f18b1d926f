package storage

import (
	"errors"
	"sync"
)

// SettingsStore persists user preferences at data/settings.json using the
// same atomic write protocol as the library document.
type SettingsStore struct {
	path string

	mu     sync.Mutex
	cached map[string]any
}

// NewSettingsStore creates a settings store at path
func NewSettingsStore(path string) *SettingsStore {
	return &SettingsStore{path: path}
}

// All returns the full settings map, loading it on first use. A missing
// settings file yields an empty map, not an error.
func (s *SettingsStore) All() (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil {
		return s.cached, nil
	}

	settings := map[string]any{}
	if err := ReadJSON(s.path, &settings); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	s.cached = settings
	return settings, nil
}

// Get returns a single setting value
func (s *SettingsStore) Get(key string) (any, bool, error) {
	settings, err := s.All()
	if err != nil {
		return nil, false, err
	}
	v, ok := settings[key]
	return v, ok, nil
}

// Set updates a single setting and commits the document
func (s *SettingsStore) Set(key string, value any) error {
	settings, err := s.All()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	settings[key] = value
	if err := WriteJSONAtomic(s.path, settings); err != nil {
		return err
	}
	s.cached = settings
	return nil
}
