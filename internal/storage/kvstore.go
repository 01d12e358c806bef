// Package storage persists mytasks data in a durable key-value store and
// provides the task and theme repositories layered on top of it.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// KeyValueStore is a set of durable string slots addressed by key.
type KeyValueStore interface {
	// Get returns the value stored under key. ok is false when the key is absent.
	Get(key string) (value string, ok bool, err error)
	// Set overwrites the value under key in a single write.
	Set(key, value string) error
	Delete(key string) error
	// Update replaces the value under key with the result of fn applied to
	// the current value, with no other writer in between. ok is false when
	// the key is absent. An error from fn leaves the store unchanged.
	Update(key string, fn func(old string, ok bool) (string, error)) error
}

type fileKeyValueStore struct {
	path string
}

// NewFileKeyValueStore creates a KeyValueStore backed by a YAML map in the
// file at path. The file is created on first write.
func NewFileKeyValueStore(path string) KeyValueStore {
	return &fileKeyValueStore{path: path}
}

func (s *fileKeyValueStore) read() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("reading key-value file: %w", err)
	}

	entries := make(map[string]string)
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("reading key-value file: parsing YAML: %w", err)
	}
	if entries == nil {
		entries = make(map[string]string)
	}
	return entries, nil
}

// write replaces the file atomically via a temp file and rename.
func (s *fileKeyValueStore) write(entries map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("writing key-value file: creating directory: %w", err)
	}
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("writing key-value file: marshaling YAML: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("writing key-value file: writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing key-value file: renaming: %w", err)
	}
	return nil
}

func (s *fileKeyValueStore) Get(key string) (string, bool, error) {
	entries, err := s.read()
	if err != nil {
		return "", false, err
	}
	value, ok := entries[key]
	return value, ok, nil
}

// locked runs fn on the decoded map under the file lock and writes the map
// back when fn reports a change. Concurrent processes sharing the file
// therefore never drop each other's keys.
func (s *fileKeyValueStore) locked(fn func(entries map[string]string) (bool, error)) error {
	unlock, err := lockFile(s.path + ".lock")
	if err != nil {
		return err
	}
	defer unlock()

	entries, err := s.read()
	if err != nil {
		return err
	}
	changed, err := fn(entries)
	if err != nil || !changed {
		return err
	}
	return s.write(entries)
}

func (s *fileKeyValueStore) Set(key, value string) error {
	err := s.locked(func(entries map[string]string) (bool, error) {
		entries[key] = value
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	return nil
}

func (s *fileKeyValueStore) Delete(key string) error {
	err := s.locked(func(entries map[string]string) (bool, error) {
		if _, ok := entries[key]; !ok {
			return false, nil
		}
		delete(entries, key)
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

func (s *fileKeyValueStore) Update(key string, fn func(old string, ok bool) (string, error)) error {
	err := s.locked(func(entries map[string]string) (bool, error) {
		old, ok := entries[key]
		value, err := fn(old, ok)
		if err != nil {
			return false, err
		}
		entries[key] = value
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("updating %s: %w", key, err)
	}
	return nil
}

type memoryKeyValueStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryKeyValueStore creates a KeyValueStore that lives only in memory.
func NewMemoryKeyValueStore() KeyValueStore {
	return &memoryKeyValueStore{entries: make(map[string]string)}
}

func (s *memoryKeyValueStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.entries[key]
	return value, ok, nil
}

func (s *memoryKeyValueStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
	return nil
}

func (s *memoryKeyValueStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *memoryKeyValueStore) Update(key string, fn func(old string, ok bool) (string, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.entries[key]
	value, err := fn(old, ok)
	if err != nil {
		return err
	}
	s.entries[key] = value
	return nil
}
