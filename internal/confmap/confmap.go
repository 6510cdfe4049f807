// Package confmap implements the ordered key/value view used for every stage,
// service and pipeline configuration. The backing store is the exported
// document's own list of {name, value} records, so lookups are linear scans and
// serialization order is exactly insertion order.
package confmap

import (
	"github.com/vk/stagegraph/internal/pipeerr"
)

// Entry is one configuration record.
type Entry struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Map is an ordered list of configuration records. Methods with pointer
// receivers mutate the list in place, which is how stage wrappers edit the
// document they wrap.
type Map []Entry

// Get returns the value stored under key.
func (m Map) Get(key string) (any, error) {
	for _, e := range m {
		if e.Name == key {
			return e.Value, nil
		}
	}
	return nil, &pipeerr.NotFoundError{Kind: "configuration", Name: key}
}

// Contains reports whether key exists.
func (m Map) Contains(key string) bool {
	for _, e := range m {
		if e.Name == key {
			return true
		}
	}
	return false
}

// Set replaces the value of an existing key. Keys are created only by default
// population, so setting an unknown key is an error.
func (m Map) Set(key string, value any) error {
	for i := range m {
		if m[i].Name == key {
			m[i].Value = value
			return nil
		}
	}
	return &pipeerr.NotFoundError{Kind: "configuration", Name: key}
}

// Update sets every key of values. It stops at the first unknown key; entries
// processed before it stay updated.
func (m Map) Update(values map[string]any) error {
	for _, key := range sortedKeys(values) {
		if err := m.Set(key, values[key]); err != nil {
			return err
		}
	}
	return nil
}

// Merge upserts entries in order: existing keys are overwritten, unknown keys
// are appended. It is reserved for runtime-injected service configuration.
func (m *Map) Merge(entries []Entry) {
	for _, e := range entries {
		if err := m.Set(e.Name, e.Value); err != nil {
			*m = append(*m, e)
		}
	}
}

// Items returns the records in insertion order.
func (m Map) Items() []Entry {
	out := make([]Entry, len(m))
	copy(out, m)
	return out
}

// Keys returns the configuration names in insertion order.
func (m Map) Keys() []string {
	keys := make([]string, len(m))
	for i, e := range m {
		keys[i] = e.Name
	}
	return keys
}
