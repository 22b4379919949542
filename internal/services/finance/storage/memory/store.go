// Package memory provides an in-process snapshot store used when no database
// path is configured and in tests.
package memory

import (
	"context"
	"sync"

	"github.com/jonzim-cmd/zahlungsformen/internal/services/finance/storage"
)

// Store keeps snapshots in a map.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ storage.SnapshotStore = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{data: map[string][]byte{}}
}

// GetSnapshot returns a copy of the bytes stored under key.
func (s *Store) GetSnapshot(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// PutSnapshot stores a copy of data under key.
func (s *Store) PutSnapshot(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), data...)
	return nil
}

// DeleteSnapshot removes key.
func (s *Store) DeleteSnapshot(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}
