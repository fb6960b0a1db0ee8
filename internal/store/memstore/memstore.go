// Package memstore is an in-memory store.Store, used by tests and by the
// CLI's --local-store dry-run mode (spec.md/SPEC_FULL.md §4.9).
package memstore

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
)

// Store guards a plain map with a mutex; values are kept pre-marshaled so
// Get always round-trips through JSON the same way gcsstore does.
type Store struct {
	mu     sync.RWMutex
	values map[string]json.RawMessage
}

func New() *Store {
	return &Store{values: map[string]json.RawMessage{}}
}

func (s *Store) Put(_ context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "marshal value for key %q", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = raw
	return nil
}

func (s *Store) Get(_ context.Context, key string, out any) (bool, error) {
	s.mu.RLock()
	raw, ok := s.values[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return false, errors.Wrapf(err, "unmarshal value for key %q", key)
	}
	return true, nil
}

// Keys returns the stored keys, for the CLI's --local-store dry-run dump.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	return keys
}
