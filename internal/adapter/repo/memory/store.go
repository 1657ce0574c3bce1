package memory

import (
	"context"
	"sync"

	"farmsession/internal/app/ports"
)

type Store struct {
	mu      sync.RWMutex
	farms   map[int64]ports.FarmRecord
	actions map[int64][]ports.ActionRecord
	entries map[int64][]ports.LedgerEntry
}

func NewStore() *Store {
	return &Store{
		farms:   make(map[int64]ports.FarmRecord),
		actions: make(map[int64][]ports.ActionRecord),
		entries: make(map[int64][]ports.LedgerEntry),
	}
}

type txKeyType struct{}

var txKey = txKeyType{}

// read runs fn under the read lock unless ctx already belongs to a
// transaction holding the write lock.
func (s *Store) read(ctx context.Context, fn func()) {
	if ctx.Value(txKey) != nil {
		fn()
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn()
}

func (s *Store) write(ctx context.Context, fn func() error) error {
	if ctx.Value(txKey) != nil {
		return fn()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}
