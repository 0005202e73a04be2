// Package store provides the fact store consumed by the pipeline for
// best-effort mirroring of in-memory state. Keys are strings of the form
// <kind>:<id>, e.g. "intention:INT-00042".
package store

import (
	"sort"
	"strings"
	"sync"
)

// Fact is one key/value pair returned by Search.
type Fact struct {
	Key   string
	Value any
}

// FactStore is the persistence boundary. Setting a nil value deletes the key.
// Search patterns are literal prefixes with an optional trailing '*'.
type FactStore interface {
	Get(key string) (any, bool)
	Set(key string, value any) error
	Search(pattern string) ([]Fact, error)
}

// matchesPattern reports whether key matches a search pattern. A trailing
// '*' matches any suffix; otherwise the match is exact.
func matchesPattern(key, pattern string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(key, prefix)
	}
	return key == pattern
}

// memoryFactStore is a map-backed FactStore, used in tests and as the
// default when no durable store is configured.
type memoryFactStore struct {
	mu    sync.RWMutex
	facts map[string]any
}

// NewMemoryFactStore creates an empty in-memory fact store.
func NewMemoryFactStore() FactStore {
	return &memoryFactStore{facts: make(map[string]any)}
}

func (s *memoryFactStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.facts[key]
	return v, ok
}

func (s *memoryFactStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if value == nil {
		delete(s.facts, key)
		return nil
	}
	s.facts[key] = value
	return nil
}

func (s *memoryFactStore) Search(pattern string) ([]Fact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Fact
	for k, v := range s.facts {
		if matchesPattern(k, pattern) {
			out = append(out, Fact{Key: k, Value: v})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
