package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gradus/internal/student/models"
	id "gradus/pkg/domain"
)

// InMemory stores students in memory for the demo environment and tests.
type InMemory struct {
	mu       sync.RWMutex
	students map[id.StudentID]models.Student
	byEmail  map[string]id.StudentID
	courses  map[id.StudentID][]models.CompletedCourse
}

// NewInMemory creates an in-memory student store.
func NewInMemory() *InMemory {
	return &InMemory{
		students: make(map[id.StudentID]models.Student),
		byEmail:  make(map[string]id.StudentID),
		courses:  make(map[id.StudentID][]models.CompletedCourse),
	}
}

// Create adds a new student, failing if the email is already registered.
func (s *InMemory) Create(_ context.Context, student *models.Student) error {
	if student == nil {
		return fmt.Errorf("student is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[student.Email]; exists {
		return fmt.Errorf("student email must be unique: %w", ErrAlreadyExists)
	}
	s.students[student.ID] = *student
	s.byEmail[student.Email] = student.ID
	return nil
}

// GetByID retrieves a student by ID.
func (s *InMemory) GetByID(_ context.Context, studentID id.StudentID) (*models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if student, ok := s.students[studentID]; ok {
		return &student, nil
	}
	return nil, fmt.Errorf("student not found: %w", ErrNotFound)
}

// GetByEmail retrieves a student by email. Emails are stored as given;
// the service layer lower-cases them at the boundary.
func (s *InMemory) GetByEmail(_ context.Context, email string) (*models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if studentID, ok := s.byEmail[email]; ok {
		student := s.students[studentID]
		return &student, nil
	}
	return nil, fmt.Errorf("student not found: %w", ErrNotFound)
}

// Update replaces an existing student row.
func (s *InMemory) Update(_ context.Context, student *models.Student) error {
	if student == nil {
		return fmt.Errorf("student is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, exists := s.students[student.ID]
	if !exists {
		return fmt.Errorf("student not found: %w", ErrNotFound)
	}
	if current.Email != student.Email {
		if _, taken := s.byEmail[student.Email]; taken {
			return fmt.Errorf("student email must be unique: %w", ErrAlreadyExists)
		}
		delete(s.byEmail, current.Email)
		s.byEmail[student.Email] = student.ID
	}
	s.students[student.ID] = *student
	return nil
}

// ListCourses returns the student's completed-course record, ordered by
// code. The result is a copy; callers may mutate it freely.
func (s *InMemory) ListCourses(_ context.Context, studentID id.StudentID) ([]models.CompletedCourse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.students[studentID]; !ok {
		return nil, fmt.Errorf("student not found: %w", ErrNotFound)
	}
	record := s.courses[studentID]
	courses := make([]models.CompletedCourse, len(record))
	copy(courses, record)
	return courses, nil
}

// ReplaceCourses swaps the student's entire completed-course record for
// the given set.
func (s *InMemory) ReplaceCourses(_ context.Context, studentID id.StudentID, courses []models.CompletedCourse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[studentID]; !ok {
		return fmt.Errorf("student not found: %w", ErrNotFound)
	}
	record := make([]models.CompletedCourse, len(courses))
	copy(record, courses)
	sort.Slice(record, func(i, j int) bool {
		return record[i].Code < record[j].Code
	})
	s.courses[studentID] = record
	return nil
}

// Count returns the total number of students.
func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.students), nil
}
