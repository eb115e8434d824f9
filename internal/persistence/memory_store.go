package persistence

import (
	"context"
	"sort"
	"sync"

	"github.com/petrijr/benchseed/pkg/api"
)

// InMemoryStore is a simple, goroutine-safe implementation of
// api.StatusStore and CursorStore backed by maps.
type InMemoryStore struct {
	mu      sync.RWMutex
	status  api.EnvStatus
	cursors map[string]Cursor
}

// NewInMemoryStore creates a new InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		cursors: make(map[string]Cursor),
	}
}

// Ensure InMemoryStore implements the interfaces.
var _ api.StatusStore = (*InMemoryStore)(nil)

var _ CursorStore = (*InMemoryStore)(nil)

func (s *InMemoryStore) GetStatus(ctx context.Context) (api.EnvStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.status, nil
}

func (s *InMemoryStore) SetStatus(ctx context.Context, status api.EnvStatus) error {
	if !validStatus(status) {
		return ErrInvalidStatus
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = status
	return nil
}

func (s *InMemoryStore) SaveCursor(ctx context.Context, c *Cursor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *c
	stamp(&cp)
	s.cursors[c.RunID] = cp
	return nil
}

func (s *InMemoryStore) GetCursor(ctx context.Context, runID string) (*Cursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cursors[runID]
	if !ok {
		return nil, ErrCursorNotFound
	}
	return &c, nil
}

func (s *InMemoryStore) ListCursors(ctx context.Context, filter CursorFilter) ([]*Cursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Cursor
	for _, c := range s.cursors {
		if !filter.match(&c) {
			continue
		}
		cp := c
		result = append(result, &cp)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].RunID < result[j].RunID
	})
	return result, nil
}

func (s *InMemoryStore) DeleteCursor(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.cursors, runID)
	return nil
}
