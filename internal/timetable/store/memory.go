package store

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"gradus/internal/timetable/models"
	id "gradus/pkg/domain"
)

// InMemory stores timetables in memory for the demo environment and tests.
type InMemory struct {
	mu         sync.RWMutex
	timetables map[id.TimetableID]models.Timetable
}

// NewInMemory creates an in-memory timetable store.
func NewInMemory() *InMemory {
	return &InMemory{
		timetables: make(map[id.TimetableID]models.Timetable),
	}
}

// Create adds a new timetable, failing if the ID is already taken.
func (s *InMemory) Create(_ context.Context, timetable *models.Timetable) error {
	if timetable == nil {
		return fmt.Errorf("timetable is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.timetables[timetable.ID]; exists {
		return fmt.Errorf("timetable ID must be unique: %w", ErrAlreadyExists)
	}
	s.timetables[timetable.ID] = copyTimetable(timetable)
	return nil
}

// GetByID retrieves a timetable by ID. Ownership is the service's
// concern; the store answers for any student's timetable.
func (s *InMemory) GetByID(_ context.Context, timetableID id.TimetableID) (*models.Timetable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if timetable, ok := s.timetables[timetableID]; ok {
		found := copyTimetable(&timetable)
		return &found, nil
	}
	return nil, fmt.Errorf("timetable not found: %w", ErrNotFound)
}

// ListByStudent returns the student's timetables, oldest first.
func (s *InMemory) ListByStudent(_ context.Context, studentID id.StudentID) ([]models.Timetable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	timetables := make([]models.Timetable, 0)
	for _, timetable := range s.timetables {
		if timetable.StudentID == studentID {
			timetables = append(timetables, copyTimetable(&timetable))
		}
	}
	sort.Slice(timetables, func(i, j int) bool {
		if !timetables[i].CreatedAt.Equal(timetables[j].CreatedAt) {
			return timetables[i].CreatedAt.Before(timetables[j].CreatedAt)
		}
		a, b := uuid.UUID(timetables[i].ID), uuid.UUID(timetables[j].ID)
		return bytes.Compare(a[:], b[:]) < 0
	})
	return timetables, nil
}

// Update replaces an existing timetable row and its full entry set.
func (s *InMemory) Update(_ context.Context, timetable *models.Timetable) error {
	if timetable == nil {
		return fmt.Errorf("timetable is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.timetables[timetable.ID]; !exists {
		return fmt.Errorf("timetable not found: %w", ErrNotFound)
	}
	s.timetables[timetable.ID] = copyTimetable(timetable)
	return nil
}

// Delete removes a timetable and its entries.
func (s *InMemory) Delete(_ context.Context, timetableID id.TimetableID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.timetables[timetableID]; !exists {
		return fmt.Errorf("timetable not found: %w", ErrNotFound)
	}
	delete(s.timetables, timetableID)
	return nil
}

// CountByStudent returns how many timetables the student owns.
func (s *InMemory) CountByStudent(_ context.Context, studentID id.StudentID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, timetable := range s.timetables {
		if timetable.StudentID == studentID {
			count++
		}
	}
	return count, nil
}

func copyTimetable(timetable *models.Timetable) models.Timetable {
	copied := *timetable
	copied.Entries = make([]models.Entry, len(timetable.Entries))
	copy(copied.Entries, timetable.Entries)
	return copied
}
