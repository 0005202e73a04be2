package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// factsFile is the on-disk shape of facts.yaml.
type factsFile struct {
	Version string         `yaml:"version"`
	Facts   map[string]any `yaml:"facts"`
}

// fileFactStore persists facts to a facts.yaml file in the base directory.
// The whole file is rewritten on every Set; the pipeline only mirrors here
// asynchronously, so write volume stays low.
type fileFactStore struct {
	basePath string
	mu       sync.Mutex
	data     factsFile
}

// NewFileFactStore creates a FactStore backed by facts.yaml under basePath.
// An existing file is loaded; a missing one starts empty.
func NewFileFactStore(basePath string) (FactStore, error) {
	s := &fileFactStore{
		basePath: basePath,
		data: factsFile{
			Version: "1.0",
			Facts:   make(map[string]any),
		},
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *fileFactStore) filePath() string {
	return filepath.Join(s.basePath, "facts.yaml")
}

func (s *fileFactStore) load() error {
	raw, err := os.ReadFile(s.filePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading facts file: %w", err)
	}
	var data factsFile
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("parsing facts file: %w", err)
	}
	if data.Facts == nil {
		data.Facts = make(map[string]any)
	}
	s.data = data
	return nil
}

func (s *fileFactStore) save() error {
	raw, err := yaml.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("marshaling facts: %w", err)
	}
	if err := os.WriteFile(s.filePath(), raw, 0o644); err != nil {
		return fmt.Errorf("writing facts file: %w", err)
	}
	return nil
}

func (s *fileFactStore) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data.Facts[key]
	return v, ok
}

func (s *fileFactStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if value == nil {
		delete(s.data.Facts, key)
	} else {
		s.data.Facts[key] = value
	}
	return s.save()
}

func (s *fileFactStore) Search(pattern string) ([]Fact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Fact
	for k, v := range s.data.Facts {
		if matchesPattern(k, pattern) {
			out = append(out, Fact{Key: k, Value: v})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
