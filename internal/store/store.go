// Package store is a keyed byte-blob map persisted to a single YAML
// file. It backs the simple save-slot persistence the framework's
// consumers use; nothing here is tree-aware.
package store

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"

	"github.com/entikit/entikit/core/observability/log"
)

// Store holds the in-memory map and writes it through to disk on Flush.
// A content hash of the last flushed payload suppresses no-op writes.
type Store struct {
	log     log.Log
	path    string
	mu      sync.Mutex
	data    map[string][]byte
	flushed uint64
}

// Open loads the store at path, starting empty when the file does not
// exist yet.
func Open(path string, l log.Log) (*Store, error) {
	if l == nil {
		l = log.Provide()
	}
	s := &Store{
		log:  l,
		path: path,
		data: make(map[string][]byte),
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if err := yaml.Unmarshal(payload, &s.data); err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if s.data == nil {
		s.data = make(map[string][]byte)
	}
	s.flushed = xxhash.Sum64(payload)
	return s, nil
}

func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *Store) Set(key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; !ok {
		return false
	}
	delete(s.data, key)
	return true
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// Keys returns the stored keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Flush serializes the map and writes it to disk unless the content is
// unchanged since the last flush.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, err := yaml.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("store: flush %s: %w", s.path, err)
	}
	h := xxhash.Sum64(payload)
	if h == s.flushed {
		return nil
	}
	if err := os.WriteFile(s.path, payload, 0o644); err != nil {
		return fmt.Errorf("store: flush %s: %w", s.path, err)
	}
	s.flushed = h
	return nil
}

// Close flushes and releases the store.
func (s *Store) Close() error {
	if err := s.Flush(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = nil
	return nil
}
