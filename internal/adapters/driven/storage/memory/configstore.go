package memory

import (
	"maps"
	"math"
	"sync"

	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore holds settings in a map and never touches disk. Save takes a
// snapshot and Load rolls back to it, so tests can tell persisted values
// from pending ones.
type ConfigStore struct {
	mu    sync.RWMutex
	live  map[string]any
	saved map[string]any
}

// NewConfigStore copies the seeds into a store; later maps win on clashes.
// The seeded state counts as saved.
func NewConfigStore(seeds ...map[string]any) *ConfigStore {
	live := map[string]any{}
	for _, seed := range seeds {
		maps.Copy(live, seed)
	}
	return &ConfigStore{live: live, saved: maps.Clone(live)}
}

func (s *ConfigStore) Path() string { return ":memory:" }

func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.live[key]
	return v, ok
}

// lookup returns the value under key when it has type T.
func lookup[T any](s *ConfigStore, key string) (T, bool) {
	v, _ := s.Get(key)
	t, ok := v.(T)
	return t, ok
}

func (s *ConfigStore) GetString(key string) string {
	str, _ := lookup[string](s, key)
	return str
}

// GetInt accepts any integer kind and whole floats, which is how decoded
// numbers usually arrive. Anything else reads as zero.
func (s *ConfigStore) GetInt(key string) int {
	v, _ := s.Get(key)
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		if n == math.Trunc(n) {
			return int(n)
		}
	}
	return 0
}

func (s *ConfigStore) GetBool(key string) bool {
	b, _ := lookup[bool](s, key)
	return b
}

// GetStringSlice returns a copy of a string list. Items of a mixed list
// that are not strings are dropped.
func (s *ConfigStore) GetStringSlice(key string) []string {
	if list, ok := lookup[[]string](s, key); ok {
		return append([]string(nil), list...)
	}
	mixed, ok := lookup[[]any](s, key)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(mixed))
	for _, item := range mixed {
		if str, ok := item.(string); ok {
			out = append(out, str)
		}
	}
	return out
}

func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	s.live[key] = value
	s.mu.Unlock()
	return nil
}

func (s *ConfigStore) Delete(key string) error {
	s.mu.Lock()
	delete(s.live, key)
	s.mu.Unlock()
	return nil
}

// Save snapshots the current values.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	s.saved = maps.Clone(s.live)
	s.mu.Unlock()
	return nil
}

// Load discards changes made since the last Save.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	s.live = maps.Clone(s.saved)
	s.mu.Unlock()
	return nil
}
