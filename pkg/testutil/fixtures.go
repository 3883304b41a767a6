package testutil

import (
	"time"

	"github.com/google/uuid"

	authmodels "gradus/internal/auth/models"
	catalogmodels "gradus/internal/catalog/models"
	studentmodels "gradus/internal/student/models"
	id "gradus/pkg/domain"
)

// TestIDs provides convenient pre-generated IDs for tests.
// Use these for deterministic test data.
var TestIDs = struct {
	StudentID1 id.StudentID
	StudentID2 id.StudentID
	SessionID1 id.SessionID
	SessionID2 id.SessionID
}{
	StudentID1: id.StudentID(uuid.MustParse("11111111-1111-1111-1111-111111111111")),
	StudentID2: id.StudentID(uuid.MustParse("22222222-2222-2222-2222-222222222222")),
	SessionID1: id.SessionID(uuid.MustParse("eeee0000-0000-0000-0000-000000000001")),
	SessionID2: id.SessionID(uuid.MustParse("eeee0000-0000-0000-0000-000000000002")),
}

// StudentBuilder provides a fluent interface for building test students.
type StudentBuilder struct {
	student *studentmodels.Student
}

// NewStudentBuilder creates a StudentBuilder with sensible defaults.
func NewStudentBuilder() *StudentBuilder {
	now := time.Now().UTC()
	return &StudentBuilder{
		student: &studentmodels.Student{
			ID:             id.StudentID(uuid.New()),
			Email:          "test@university.edu",
			PasswordHash:   "$2a$10$fakehash",
			Name:           "Test Student",
			StudentType:    id.StudentTypeFreshman,
			CurriculumYear: "2024",
			Status:         studentmodels.StatusActive,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
	}
}

func (b *StudentBuilder) WithID(studentID id.StudentID) *StudentBuilder {
	b.student.ID = studentID
	return b
}

func (b *StudentBuilder) WithEmail(email string) *StudentBuilder {
	b.student.Email = email
	return b
}

func (b *StudentBuilder) WithName(name string) *StudentBuilder {
	b.student.Name = name
	return b
}

func (b *StudentBuilder) WithPasswordHash(hash string) *StudentBuilder {
	b.student.PasswordHash = hash
	return b
}

func (b *StudentBuilder) WithType(studentType id.StudentType) *StudentBuilder {
	b.student.StudentType = studentType
	return b
}

func (b *StudentBuilder) WithCurriculumYear(year string) *StudentBuilder {
	b.student.CurriculumYear = year
	return b
}

func (b *StudentBuilder) WithExtraCurricularUnits(units int) *StudentBuilder {
	b.student.ExtraCurricularUnits = units
	return b
}

func (b *StudentBuilder) Withdrawn() *StudentBuilder {
	b.student.Status = studentmodels.StatusWithdrawn
	return b
}

func (b *StudentBuilder) Build() *studentmodels.Student {
	return b.student
}

// SessionBuilder provides a fluent interface for building test sessions.
type SessionBuilder struct {
	session *authmodels.Session
}

// NewSessionBuilder creates a SessionBuilder with sensible defaults.
func NewSessionBuilder() *SessionBuilder {
	now := time.Now().UTC()
	return &SessionBuilder{
		session: &authmodels.Session{
			ID:                id.SessionID(uuid.New()),
			StudentID:         TestIDs.StudentID1,
			Status:            authmodels.SessionStatusActive,
			DeviceDisplayName: "Chrome on Mac OS X",
			CreatedAt:         now,
			ExpiresAt:         now.Add(30 * 24 * time.Hour),
			LastSeenAt:        now,
		},
	}
}

func (b *SessionBuilder) WithID(sessionID id.SessionID) *SessionBuilder {
	b.session.ID = sessionID
	return b
}

func (b *SessionBuilder) WithStudentID(studentID id.StudentID) *SessionBuilder {
	b.session.StudentID = studentID
	return b
}

func (b *SessionBuilder) WithDevice(name string) *SessionBuilder {
	b.session.DeviceDisplayName = name
	return b
}

func (b *SessionBuilder) WithLastAccessTokenJTI(jti string) *SessionBuilder {
	b.session.LastAccessTokenJTI = jti
	return b
}

func (b *SessionBuilder) CreatedAt(t time.Time) *SessionBuilder {
	b.session.CreatedAt = t
	b.session.LastSeenAt = t
	return b
}

func (b *SessionBuilder) ExpiresAt(t time.Time) *SessionBuilder {
	b.session.ExpiresAt = t
	return b
}

func (b *SessionBuilder) LastSeenAt(t time.Time) *SessionBuilder {
	b.session.LastSeenAt = t
	return b
}

func (b *SessionBuilder) Revoked() *SessionBuilder {
	now := time.Now().UTC()
	b.session.Status = authmodels.SessionStatusRevoked
	b.session.RevokedAt = &now
	return b
}

func (b *SessionBuilder) Build() *authmodels.Session {
	return b.session
}

// CourseBuilder provides a fluent interface for building catalog courses.
type CourseBuilder struct {
	course catalogmodels.Course
}

// NewCourseBuilder creates a CourseBuilder with sensible defaults.
func NewCourseBuilder(code string) *CourseBuilder {
	return &CourseBuilder{
		course: catalogmodels.Course{
			Code:      id.CourseCode(code),
			Name:      "Course " + code,
			Credit:    3,
			Category:  catalogmodels.CategoryGeneral,
			Stage:     catalogmodels.StageBasic,
			Source:    catalogmodels.SourceSeed,
			UpdatedAt: time.Now().UTC(),
		},
	}
}

func (b *CourseBuilder) WithName(name string) *CourseBuilder {
	b.course.Name = name
	return b
}

func (b *CourseBuilder) WithCredit(credit int) *CourseBuilder {
	b.course.Credit = credit
	return b
}

func (b *CourseBuilder) WithCategory(category catalogmodels.Category) *CourseBuilder {
	b.course.Category = category
	return b
}

func (b *CourseBuilder) WithStage(stage catalogmodels.Stage) *CourseBuilder {
	b.course.Stage = stage
	return b
}

func (b *CourseBuilder) Required() *CourseBuilder {
	b.course.Required = true
	return b
}

func (b *CourseBuilder) WithSource(source string) *CourseBuilder {
	b.course.Source = source
	return b
}

func (b *CourseBuilder) Build() catalogmodels.Course {
	return b.course
}

// Quick helper functions for simple test cases

// NewTestStudent creates a test student with the given ID and email.
func NewTestStudent(studentID id.StudentID, email string) *studentmodels.Student {
	return NewStudentBuilder().
		WithID(studentID).
		WithEmail(email).
		Build()
}

// NewTestSession creates a test session for the given student.
func NewTestSession(sessionID id.SessionID, studentID id.StudentID) *authmodels.Session {
	return NewSessionBuilder().
		WithID(sessionID).
		WithStudentID(studentID).
		Build()
}
