package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

// DirName is the data directory under the user's home.
const DirName = ".marginalia"

const configFile = "config.toml"

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings in a TOML file. Keys are dotted paths
// ("chunking.size"); each dot becomes a table on disk, so the file reads as
//
//	[chunking]
//	size = 1000
//
// Every write replaces the file atomically.
type ConfigStore struct {
	mu     sync.RWMutex
	path   string
	values map[string]any
}

// NewConfigStore opens dir/config.toml, creating dir if needed. An empty
// dir means ~/.marginalia.
func NewConfigStore(dir string) (*ConfigStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, DirName)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}

	s := &ConfigStore{path: filepath.Join(dir, configFile), values: map[string]any{}}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the file the store reads and writes.
func (s *ConfigStore) Path() string { return s.path }

// Get returns the raw value under key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *ConfigStore) GetString(key string) string {
	v, _ := s.Get(key)
	str, _ := v.(string)
	return str
}

// GetInt accepts any whole number, since TOML decodes integers as int64 and
// hand-edited files sometimes hold 1000.0.
func (s *ConfigStore) GetInt(key string) int {
	v, _ := s.Get(key)
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		if n == float64(int(n)) {
			return int(n)
		}
	}
	return 0
}

func (s *ConfigStore) GetBool(key string) bool {
	v, _ := s.Get(key)
	b, _ := v.(bool)
	return b
}

// GetStringSlice returns the string items of a list, skipping others.
func (s *ConfigStore) GetStringSlice(key string) []string {
	v, _ := s.Get(key)
	switch items := v.(type) {
	case []string:
		return items
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

// Set stores value under key and writes the file. A failed write leaves
// the previous value in place.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.values[key]
	s.values[key] = value
	if err := s.write(); err != nil {
		if had {
			s.values[key] = prev
		} else {
			delete(s.values, key)
		}
		return err
	}
	return nil
}

// Delete removes key. A missing key is not an error.
func (s *ConfigStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return s.write()
}

// Save writes the file.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write()
}

// Load rereads the file. A missing file leaves the store empty.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.values = map[string]any{}
		return nil
	}
	if err != nil {
		return err
	}

	var doc map[string]any
	if err := toml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("invalid config %s: %w", s.path, err)
	}
	s.values = map[string]any{}
	flatten(doc, "", s.values)
	return nil
}

// write must be called with the lock held.
func (s *ConfigStore) write() error {
	doc, err := nest(s.values)
	if err != nil {
		return err
	}
	raw, err := toml.Marshal(doc)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), configFile+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// flatten copies the leaves of doc into out under dotted keys.
func flatten(doc map[string]any, prefix string, out map[string]any) {
	for k, v := range doc {
		if prefix != "" {
			k = prefix + "." + k
		}
		if table, ok := v.(map[string]any); ok {
			flatten(table, k, out)
			continue
		}
		out[k] = v
	}
}

// nest turns dotted keys back into tables. A key that is both a value and
// a table prefix ("llm" and "llm.model") cannot be written.
func nest(values map[string]any) (map[string]any, error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	doc := map[string]any{}
	for _, key := range keys {
		parts := strings.Split(key, ".")
		table := doc
		for _, part := range parts[:len(parts)-1] {
			next, exists := table[part]
			if !exists {
				child := map[string]any{}
				table[part] = child
				table = child
				continue
			}
			child, ok := next.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("config key %q conflicts with a value at %q", key, part)
			}
			table = child
		}
		leaf := parts[len(parts)-1]
		if _, taken := table[leaf]; taken {
			return nil, fmt.Errorf("config key %q conflicts with a table", key)
		}
		table[leaf] = values[key]
	}
	return doc, nil
}
