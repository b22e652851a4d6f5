package memory

import (
	"sync"

	"github.com/quarrylabs/quarry/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore is an in-memory implementation of driven.ConfigStore.
// Save and Load are no-ops; values live only for the process lifetime.
type ConfigStore struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewConfigStore creates a new in-memory config store.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{
		values: make(map[string]any),
	}
}

// Get retrieves a configuration value by key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	return value, ok
}

// GetString retrieves a string value, "" when unset.
func (s *ConfigStore) GetString(key string) string {
	value, ok := s.Get(key)
	if !ok {
		return ""
	}
	str, _ := value.(string)
	return str
}

// GetInt retrieves an integer value, 0 when unset.
func (s *ConfigStore) GetInt(key string) int {
	value, ok := s.Get(key)
	if !ok {
		return 0
	}
	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// GetFloat retrieves a float value, 0 when unset.
func (s *ConfigStore) GetFloat(key string) float64 {
	value, ok := s.Get(key)
	if !ok {
		return 0
	}
	switch v := value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

// GetBool retrieves a boolean value, false when unset.
func (s *ConfigStore) GetBool(key string) bool {
	value, ok := s.Get(key)
	if !ok {
		return false
	}
	b, _ := value.(bool)
	return b
}

// Set stores a value.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Save persists the configuration. A no-op for the in-memory store.
func (s *ConfigStore) Save() error {
	return nil
}

// Load re-reads the configuration. A no-op for the in-memory store.
func (s *ConfigStore) Load() error {
	return nil
}
