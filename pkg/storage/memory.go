package storage

import (
	"context"
	"sync"
)

// MemoryStore implements Store using in-memory maps. Nothing survives a
// process restart; it backs ephemeral (private-window) profiles and tests.
//
// MemoryStore is thread-safe and supports concurrent access using sync.RWMutex.
type MemoryStore struct {
	mu sync.RWMutex

	// enabled maps extension id to its persisted flag. Ids without an
	// entry are enabled, matching the SQLite store.
	enabled map[string]bool

	// values maps extension id to its key/value area.
	values map[string]map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		enabled: make(map[string]bool),
		values:  make(map[string]map[string]string),
	}
}

// IsExtensionEnabled returns the enabled flag, defaulting to true for
// unknown ids.
func (s *MemoryStore) IsExtensionEnabled(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	enabled, ok := s.enabled[id]
	if !ok {
		return true, nil
	}
	return enabled, nil
}

// SetExtensionEnabled records the enabled flag.
func (s *MemoryStore) SetExtensionEnabled(_ context.Context, id string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.enabled[id] = enabled
	return nil
}

// RemoveExtensionData forgets the enabled flag and the key/value area.
func (s *MemoryStore) RemoveExtensionData(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.enabled, id)
	delete(s.values, id)
	return nil
}

// StorageGet returns the stored values for the requested keys.
func (s *MemoryStore) StorageGet(_ context.Context, id string, keys []string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]string, len(keys))
	area, ok := s.values[id]
	if !ok {
		return result, nil
	}
	for _, key := range keys {
		if value, ok := area[key]; ok {
			result[key] = value
		}
	}
	return result, nil
}

// StorageSet stores one key/value pair.
func (s *MemoryStore) StorageSet(_ context.Context, id, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	area, ok := s.values[id]
	if !ok {
		area = make(map[string]string)
		s.values[id] = area
	}
	area[key] = value
	return nil
}

// StorageRemove deletes the given keys.
func (s *MemoryStore) StorageRemove(_ context.Context, id string, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	area, ok := s.values[id]
	if !ok {
		return nil
	}
	for _, key := range keys {
		delete(area, key)
	}
	return nil
}

// StorageClear deletes every key in the extension's area.
func (s *MemoryStore) StorageClear(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, id)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
