// Package kvstore implements the synchronous structured store backing
// the record layer. All collections live in one JSON document mapping
// collection name to id to record, persisted as a single file. Writes
// re-serialize the whole document; a mutex keeps read-modify-write
// cycles atomic within the process. Concurrent use of the same file by
// several processes is unsupported.
package kvstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store is a file-backed map of collections. The zero value is not
// usable; construct with Open.
type Store struct {
	mu   sync.Mutex
	path string
	data map[string]json.RawMessage
}

// Open loads the document at path, creating an empty store if the file
// does not exist yet.
func Open(path string) (*Store, error) {
	s := &Store{path: path, data: make(map[string]json.RawMessage)}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return s, nil
}

// Get unmarshals the value stored under key into out. Missing keys
// leave out untouched and return false.
func (s *Store) Get(key string, out any) (bool, error) {
	s.mu.Lock()
	raw, ok := s.data[key]
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode %q: %w", key, err)
	}
	return true, nil
}

// Set marshals value under key and persists the whole document.
func (s *Store) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = raw
	return s.flush()
}

// Delete removes key and persists. Deleting an absent key is a no-op.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; !ok {
		return nil
	}
	delete(s.data, key)
	return s.flush()
}

// Update applies fn to the value stored under key while holding the
// store lock, then persists the result. fn receives a pointer to the
// decoded value (or the zero value when the key is absent) through the
// provided destination, and the read-modify-write cycle cannot
// interleave with other Update or Set calls.
func (s *Store) Update(key string, dst any, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if raw, ok := s.data[key]; ok {
		if err := json.Unmarshal(raw, dst); err != nil {
			return fmt.Errorf("decode %q: %w", key, err)
		}
	}
	if err := fn(); err != nil {
		return err
	}
	raw, err := json.Marshal(dst)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	s.data[key] = raw
	return s.flush()
}

// Size returns the byte size of the persisted document, best effort.
func (s *Store) Size() int64 {
	info, err := os.Stat(s.path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// flush writes the document to disk. Callers must hold mu.
func (s *Store) flush() error {
	raw, err := json.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
