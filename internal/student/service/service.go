// Package service implements student account and record operations:
// registration, profile reads, atomic record replacement, and graduation
// evaluation of the saved record. Store sentinels are translated to
// domain errors exactly once, here.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"gradus/internal/evaluation"
	"gradus/internal/student/models"
	"gradus/internal/student/store"
	id "gradus/pkg/domain"
	dErrors "gradus/pkg/domain-errors"
	"gradus/pkg/platform/audit"
	"gradus/pkg/platform/middleware/requesttime"
	"gradus/pkg/secrets"
)

// Store defines the student persistence operations the service needs.
type Store interface {
	Create(ctx context.Context, student *models.Student) error
	GetByID(ctx context.Context, studentID id.StudentID) (*models.Student, error)
	GetByEmail(ctx context.Context, email string) (*models.Student, error)
	Update(ctx context.Context, student *models.Student) error
	ListCourses(ctx context.Context, studentID id.StudentID) ([]models.CompletedCourse, error)
	ReplaceCourses(ctx context.Context, studentID id.StudentID, courses []models.CompletedCourse) error
}

// Evaluator judges a student context against the graduation requirements.
// Satisfied by evaluation.Service.
type Evaluator interface {
	Evaluate(ctx context.Context, ec evaluation.Context) (*evaluation.Report, error)
}

// RegisterInput carries the validated registration fields. The password
// arrives in plaintext and is hashed here; it is never stored.
type RegisterInput struct {
	Email          string
	Password       string
	Name           string
	StudentType    id.StudentType
	CurriculumYear string
}

// UpdateRecordInput replaces a student's academic record. A nil
// ExtraCurricularUnits leaves the stored total unchanged.
type UpdateRecordInput struct {
	StudentID            id.StudentID
	Courses              []models.CompletedCourse
	ExtraCurricularUnits *int
}

// Profile is a student together with their completed-course record.
type Profile struct {
	Student models.Student
	Courses []models.CompletedCourse
}

// Service is the student domain service.
type Service struct {
	store     Store
	evaluator Evaluator
	tx        RecordTx
	logger    *slog.Logger
	audit     *audit.Logger
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

// WithAuditLogger sets the audit logger for record and account events.
func WithAuditLogger(a *audit.Logger) Option {
	return func(s *Service) {
		s.audit = a
	}
}

// WithRecordTx overrides the transactional boundary for record mutations.
func WithRecordTx(tx RecordTx) Option {
	return func(s *Service) {
		if tx != nil {
			s.tx = tx
		}
	}
}

// New creates a student service over the given store and evaluator.
// Panics if either is nil - fail fast at startup.
func New(st Store, evaluator Evaluator, opts ...Option) *Service {
	if st == nil {
		panic("student.New: store is required")
	}
	if evaluator == nil {
		panic("student.New: evaluator is required")
	}

	s := &Service{
		store:     st,
		evaluator: evaluator,
		tx:        NewShardedRecordTx(st),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a new student account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.Student, error) {
	if strings.TrimSpace(in.Email) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if in.Password == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "password is required")
	}

	hash, err := secrets.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	studentType := in.StudentType
	if studentType == "" {
		studentType = id.StudentTypeFreshman
	}

	student, err := models.NewStudent(
		id.StudentID(uuid.New()),
		strings.ToLower(strings.TrimSpace(in.Email)),
		hash,
		strings.TrimSpace(in.Name),
		studentType,
		in.CurriculumYear,
		requesttime.Now(ctx),
	)
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, student); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, dErrors.New(dErrors.CodeConflict, "email already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register student")
	}

	s.logAudit(ctx, string(audit.EventStudentRegistered),
		"student_id", student.ID.String(),
		"email", student.Email)

	return student, nil
}

// GetProfile returns the student and their completed-course record.
func (s *Service) GetProfile(ctx context.Context, studentID id.StudentID) (*Profile, error) {
	if studentID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "student ID is required")
	}
	return s.loadProfile(ctx, studentID)
}

// GetAccount returns the bare account row without the course record.
// Intended for auth flows that only need identity attributes.
func (s *Service) GetAccount(ctx context.Context, studentID id.StudentID) (*models.Student, error) {
	if studentID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "student ID is required")
	}
	student, err := s.store.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "student not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load student")
	}
	return student, nil
}

// FindByEmail returns the account registered under the email, including
// the password hash. Intended for the login flow; never expose the result
// directly over HTTP.
func (s *Service) FindByEmail(ctx context.Context, email string) (*models.Student, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email is required")
	}

	student, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "student not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load student")
	}
	return student, nil
}

// UpdateRecord atomically replaces the student's completed-course set and,
// when provided, the extracurricular unit total. Concurrent updates for
// the same student are serialized; the last writer wins with a complete
// record, never an interleaved one.
func (s *Service) UpdateRecord(ctx context.Context, in UpdateRecordInput) (*Profile, error) {
	if in.StudentID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "student ID is required")
	}
	if err := models.ValidateCourses(in.Courses); err != nil {
		return nil, err
	}
	if in.ExtraCurricularUnits != nil && *in.ExtraCurricularUnits < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "extra_curricular_units must not be negative")
	}

	var profile *Profile
	err := s.tx.RunInTx(ctx, in.StudentID, func(st Store) error {
		student, err := st.GetByID(ctx, in.StudentID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "student not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load student")
		}

		if err := st.ReplaceCourses(ctx, in.StudentID, in.Courses); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to replace record")
		}

		if in.ExtraCurricularUnits != nil {
			student.ExtraCurricularUnits = *in.ExtraCurricularUnits
		}
		student.UpdatedAt = requesttime.Now(ctx)
		if err := st.Update(ctx, student); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update student")
		}

		courses, err := st.ListCourses(ctx, in.StudentID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load record")
		}
		profile = &Profile{Student: *student, Courses: courses}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, string(audit.EventRecordUpdated),
		"student_id", in.StudentID.String(),
		"courses", len(in.Courses))

	return profile, nil
}

// EvaluateGraduation runs the graduation requirements against the
// student's saved record.
func (s *Service) EvaluateGraduation(ctx context.Context, studentID id.StudentID) (*evaluation.Report, error) {
	if studentID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "student ID is required")
	}

	profile, err := s.loadProfile(ctx, studentID)
	if err != nil {
		return nil, err
	}

	report, err := s.evaluator.Evaluate(ctx, evaluationContext(profile))
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, string(audit.EventGraduationEvaluated),
		"student_id", studentID.String(),
		"passed", report.Passed,
		"missing_items", len(report.MissingItems))

	return report, nil
}

func (s *Service) loadProfile(ctx context.Context, studentID id.StudentID) (*Profile, error) {
	student, err := s.store.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "student not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load student")
	}

	courses, err := s.store.ListCourses(ctx, studentID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load record")
	}

	return &Profile{Student: *student, Courses: courses}, nil
}

// evaluationContext shapes a saved record for the engine. CourseCodes is
// always non-nil: a student with no completed courses is a valid, empty
// record, not a missing one.
func evaluationContext(profile *Profile) evaluation.Context {
	codes := make([]string, 0, len(profile.Courses))
	grades := make(map[string]id.Grade)
	for _, course := range profile.Courses {
		codes = append(codes, course.Code.String())
		if course.Graded() {
			grades[course.Code.String()] = course.Grade
		}
	}
	return evaluation.Context{
		CourseCodes:          codes,
		Grades:               grades,
		CurriculumYear:       profile.Student.CurriculumYear,
		StudentType:          profile.Student.StudentType,
		ExtraCurricularUnits: profile.Student.ExtraCurricularUnits,
	}
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if s.audit == nil {
		return
	}
	s.audit.Log(ctx, event, attributes...)
}
