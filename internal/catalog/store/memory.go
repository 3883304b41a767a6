package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gradus/internal/catalog/models"
	id "gradus/pkg/domain"
)

// InMemory stores courses in memory for the demo environment and tests.
type InMemory struct {
	mu      sync.RWMutex
	courses map[string]models.Course
}

// NewInMemory creates an in-memory course store.
func NewInMemory() *InMemory {
	return &InMemory{
		courses: make(map[string]models.Course),
	}
}

// GetByCode retrieves a course by its code.
func (s *InMemory) GetByCode(_ context.Context, code id.CourseCode) (*models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if course, ok := s.courses[code.String()]; ok {
		return &course, nil
	}
	return nil, ErrNotFound
}

// GetByCodes retrieves the courses for the given codes, ordered by code.
// Unknown codes are omitted from the result.
func (s *InMemory) GetByCodes(_ context.Context, codes []id.CourseCode) ([]models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	found := make([]models.Course, 0, len(codes))
	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		key := code.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		if course, ok := s.courses[key]; ok {
			found = append(found, course)
		}
	}
	sortByCode(found)
	return found, nil
}

// ListRequired returns all required courses, ordered by code.
func (s *InMemory) ListRequired(_ context.Context) ([]models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var required []models.Course
	for _, course := range s.courses {
		if course.Required {
			required = append(required, course)
		}
	}
	sortByCode(required)
	return required, nil
}

// Search returns courses matching the filter, ordered by code.
func (s *InMemory) Search(_ context.Context, filter models.SearchFilter) ([]models.Course, error) {
	filter = filter.Normalize()

	s.mu.RLock()
	var matched []models.Course
	for _, course := range s.courses {
		if filter.Matches(course) {
			matched = append(matched, course)
		}
	}
	s.mu.RUnlock()

	sortByCode(matched)
	if filter.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[filter.Offset:]
	if len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// Create adds a new course, failing if the code is already taken.
func (s *InMemory) Create(_ context.Context, course *models.Course) error {
	if course == nil {
		return fmt.Errorf("course is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := course.Code.String()
	if _, exists := s.courses[key]; exists {
		return fmt.Errorf("course code must be unique: %w", ErrAlreadyExists)
	}
	s.courses[key] = *course
	return nil
}

// Update replaces an existing course.
func (s *InMemory) Update(_ context.Context, course *models.Course) error {
	if course == nil {
		return fmt.Errorf("course is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := course.Code.String()
	if _, exists := s.courses[key]; !exists {
		return ErrNotFound
	}
	s.courses[key] = *course
	return nil
}

// Upsert creates the course or replaces the existing one with the same code.
func (s *InMemory) Upsert(_ context.Context, course *models.Course) error {
	if course == nil {
		return fmt.Errorf("course is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses[course.Code.String()] = *course
	return nil
}

// Delete removes a course by code.
func (s *InMemory) Delete(_ context.Context, code id.CourseCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := code.String()
	if _, exists := s.courses[key]; !exists {
		return ErrNotFound
	}
	delete(s.courses, key)
	return nil
}

// Count returns the total number of courses.
func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.courses), nil
}

func sortByCode(courses []models.Course) {
	sort.Slice(courses, func(i, j int) bool {
		return courses[i].Code < courses[j].Code
	})
}
