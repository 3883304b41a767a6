// Package service implements timetable operations: creating, listing,
// replacing, and deleting a student's weekly course plans. Every course
// placed in a slot must exist in the catalog; every read and mutation
// is scoped to the owning student.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	catalogmodels "gradus/internal/catalog/models"
	"gradus/internal/timetable/models"
	"gradus/internal/timetable/store"
	id "gradus/pkg/domain"
	dErrors "gradus/pkg/domain-errors"
	"gradus/pkg/platform/audit"
	"gradus/pkg/platform/middleware/requesttime"
)

// maxTimetablesPerStudent caps how many plans one student may keep.
const maxTimetablesPerStudent = 20

// Store defines the timetable persistence operations the service needs.
type Store interface {
	Create(ctx context.Context, timetable *models.Timetable) error
	GetByID(ctx context.Context, timetableID id.TimetableID) (*models.Timetable, error)
	ListByStudent(ctx context.Context, studentID id.StudentID) ([]models.Timetable, error)
	Update(ctx context.Context, timetable *models.Timetable) error
	Delete(ctx context.Context, timetableID id.TimetableID) error
	CountByStudent(ctx context.Context, studentID id.StudentID) (int, error)
}

// CourseDirectory answers which of a set of course codes exist.
// Satisfied by the catalog service; codes it does not know are omitted
// from the result.
type CourseDirectory interface {
	GetByCodes(ctx context.Context, codes []id.CourseCode) ([]catalogmodels.Course, error)
}

// CreateInput carries the validated fields for a new timetable.
type CreateInput struct {
	StudentID id.StudentID
	Name      string
	Entries   []models.Entry
}

// UpdateInput replaces a timetable in full: new name, complete entry set.
type UpdateInput struct {
	StudentID   id.StudentID
	TimetableID id.TimetableID
	Name        string
	Entries     []models.Entry
}

// Service is the timetable domain service.
type Service struct {
	store   Store
	courses CourseDirectory
	logger  *slog.Logger
	audit   *audit.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAuditLogger sets the audit logger for timetable events.
func WithAuditLogger(a *audit.Logger) Option {
	return func(s *Service) {
		s.audit = a
	}
}

// New creates a timetable service over the given store and course
// directory. Panics if either is nil - fail fast at startup.
func New(st Store, courses CourseDirectory, opts ...Option) *Service {
	if st == nil {
		panic("timetable.New: store is required")
	}
	if courses == nil {
		panic("timetable.New: course directory is required")
	}

	s := &Service{
		store:   st,
		courses: courses,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create builds a new timetable for the student after checking the
// plan cap and that every placed course exists.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Timetable, error) {
	if in.StudentID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "student ID is required")
	}

	count, err := s.store.CountByStudent(ctx, in.StudentID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count timetables")
	}
	if count >= maxTimetablesPerStudent {
		return nil, dErrors.New(dErrors.CodeConflict, "timetable limit reached")
	}

	if err := s.verifyCoursesExist(ctx, in.Entries); err != nil {
		return nil, err
	}

	timetable, err := models.NewTimetable(
		id.TimetableID(uuid.New()),
		in.StudentID,
		strings.TrimSpace(in.Name),
		in.Entries,
		requesttime.Now(ctx),
	)
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, timetable); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create timetable")
	}

	s.logAudit(ctx, string(audit.EventTimetableCreated),
		"student_id", in.StudentID.String(),
		"timetable_id", timetable.ID.String(),
		"entries", len(timetable.Entries))

	return timetable, nil
}

// Get returns one of the student's timetables.
func (s *Service) Get(ctx context.Context, studentID id.StudentID, timetableID id.TimetableID) (*models.Timetable, error) {
	if studentID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "student ID is required")
	}
	if timetableID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "timetable ID is required")
	}
	return s.loadOwned(ctx, studentID, timetableID)
}

// List returns all of the student's timetables, oldest first.
func (s *Service) List(ctx context.Context, studentID id.StudentID) ([]models.Timetable, error) {
	if studentID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "student ID is required")
	}
	timetables, err := s.store.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list timetables")
	}
	return timetables, nil
}

// Update replaces one of the student's timetables in full, re-checking
// the new entries against the catalog.
func (s *Service) Update(ctx context.Context, in UpdateInput) (*models.Timetable, error) {
	if in.StudentID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "student ID is required")
	}
	if in.TimetableID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "timetable ID is required")
	}

	timetable, err := s.loadOwned(ctx, in.StudentID, in.TimetableID)
	if err != nil {
		return nil, err
	}

	if err := s.verifyCoursesExist(ctx, in.Entries); err != nil {
		return nil, err
	}

	if err := timetable.Replace(strings.TrimSpace(in.Name), in.Entries, requesttime.Now(ctx)); err != nil {
		return nil, err
	}

	if err := s.store.Update(ctx, timetable); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "timetable not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update timetable")
	}

	s.logAudit(ctx, string(audit.EventTimetableUpdated),
		"student_id", in.StudentID.String(),
		"timetable_id", timetable.ID.String(),
		"entries", len(timetable.Entries))

	return timetable, nil
}

// Delete removes one of the student's timetables.
func (s *Service) Delete(ctx context.Context, studentID id.StudentID, timetableID id.TimetableID) error {
	if studentID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "student ID is required")
	}
	if timetableID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "timetable ID is required")
	}

	if _, err := s.loadOwned(ctx, studentID, timetableID); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, timetableID); err != nil {
		// A concurrent delete already produced the state we wanted.
		if !errors.Is(err, store.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete timetable")
		}
	}

	s.logAudit(ctx, string(audit.EventTimetableDeleted),
		"student_id", studentID.String(),
		"timetable_id", timetableID.String())

	return nil
}

// loadOwned fetches a timetable and confirms the student owns it.
// Whether the timetable is someone else's or absent, the answer is the
// same; existence is not leaked across students.
func (s *Service) loadOwned(ctx context.Context, studentID id.StudentID, timetableID id.TimetableID) (*models.Timetable, error) {
	timetable, err := s.store.GetByID(ctx, timetableID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "timetable not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load timetable")
	}
	if timetable.StudentID != studentID {
		return nil, dErrors.New(dErrors.CodeNotFound, "timetable not found")
	}
	return timetable, nil
}

// verifyCoursesExist rejects entries whose course the catalog has never
// heard of. A registry outage surfaces as-is so the client can retry;
// it never turns a valid plan into a validation error.
func (s *Service) verifyCoursesExist(ctx context.Context, entries []models.Entry) error {
	codes := uniqueCodes(entries)
	if len(codes) == 0 {
		return nil
	}

	known, err := s.courses.GetByCodes(ctx, codes)
	if err != nil {
		var dErr *dErrors.Error
		if errors.As(err, &dErr) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify course codes")
	}

	exists := make(map[id.CourseCode]struct{}, len(known))
	for _, course := range known {
		exists[course.Code] = struct{}{}
	}
	for _, code := range codes {
		if _, ok := exists[code]; !ok {
			return dErrors.New(dErrors.CodeValidation, "unknown course code: "+code.String())
		}
	}
	return nil
}

// uniqueCodes returns each placed course once, in first-seen order.
func uniqueCodes(entries []models.Entry) []id.CourseCode {
	seen := make(map[id.CourseCode]struct{}, len(entries))
	codes := make([]id.CourseCode, 0, len(entries))
	for _, entry := range entries {
		if _, dup := seen[entry.CourseCode]; dup {
			continue
		}
		seen[entry.CourseCode] = struct{}{}
		codes = append(codes, entry.CourseCode)
	}
	return codes
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if s.audit == nil {
		return
	}
	s.audit.Log(ctx, event, attributes...)
}
