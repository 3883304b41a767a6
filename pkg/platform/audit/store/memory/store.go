// Package memory provides an in-memory audit store for tests and
// single-process deployments.
package memory

import (
	"context"
	"sync"

	id "gradus/pkg/domain"
	audit "gradus/pkg/platform/audit"
)

// InMemoryStore implements audit.Store with a per-student index plus an
// append-ordered log for ListAll/ListRecent.
type InMemoryStore struct {
	mu        sync.RWMutex
	byStudent map[id.StudentID][]audit.Event
	all       []audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byStudent: make(map[id.StudentID][]audit.Event)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byStudent = make(map[id.StudentID][]audit.Event)
	s.all = nil
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byStudent[event.StudentID] = append(s.byStudent[event.StudentID], event)
	s.all = append(s.all, event)
	return nil
}

func (s *InMemoryStore) ListByStudent(_ context.Context, studentID id.StudentID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.byStudent[studentID]...), nil
}

func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.all...), nil
}

// ListRecent returns the limit most recent events, newest first.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || len(s.all) == 0 {
		return nil, nil
	}
	if limit > len(s.all) {
		limit = len(s.all)
	}
	out := make([]audit.Event, 0, limit)
	for i := len(s.all) - 1; i >= len(s.all)-limit; i-- {
		out = append(out, s.all[i])
	}
	return out, nil
}
