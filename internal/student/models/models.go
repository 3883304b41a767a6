// Package models contains the student domain: the account entity and the
// completed-course record the graduation engine evaluates. Entities here
// are transport-agnostic; JSON shapes live in responses.go.
package models

import (
	"time"

	id "gradus/pkg/domain"
	dErrors "gradus/pkg/domain-errors"
)

// StudentStatus represents whether a student account is active or withdrawn.
type StudentStatus string

const (
	StatusActive    StudentStatus = "ACTIVE"
	StatusWithdrawn StudentStatus = "WITHDRAWN"
)

func (s StudentStatus) IsValid() bool {
	return s == StatusActive || s == StatusWithdrawn
}

func (s StudentStatus) String() string {
	return string(s)
}

// Student is a registered student account together with the academic
// attributes graduation evaluation reads. PasswordHash never leaves the
// service layer; responses are built from ProfileResponse.
type Student struct {
	ID                   id.StudentID
	Email                string
	PasswordHash         string
	Name                 string
	StudentType          id.StudentType
	CurriculumYear       string
	ExtraCurricularUnits int
	Status               StudentStatus
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (s *Student) IsActive() bool {
	return s.Status == StatusActive
}

// Withdraw transitions the account to withdrawn state.
// Returns true if the transition occurred, false if already withdrawn.
func (s *Student) Withdraw(at time.Time) bool {
	if s.Status == StatusWithdrawn {
		return false
	}
	s.Status = StatusWithdrawn
	if at.After(s.UpdatedAt) {
		s.UpdatedAt = at
	}
	return true
}

// NewStudent constructs a Student and enforces basic invariants. New
// accounts start active with an empty course record and zero
// extracurricular units.
func NewStudent(studentID id.StudentID, email, passwordHash, name string, studentType id.StudentType, curriculumYear string, createdAt time.Time) (*Student, error) {
	if email == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "student email cannot be empty")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "student password hash cannot be empty")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "student name cannot be empty")
	}
	if !studentType.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid student type: "+studentType.String())
	}
	return &Student{
		ID:             studentID,
		Email:          email,
		PasswordHash:   passwordHash,
		Name:           name,
		StudentType:    studentType,
		CurriculumYear: curriculumYear,
		Status:         StatusActive,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}, nil
}

// CompletedCourse is one entry of a student's academic record. An empty
// Grade means the course was taken but no letter grade was recorded; the
// engine treats ungraded courses as earning their credit.
type CompletedCourse struct {
	Code  id.CourseCode
	Grade id.Grade
}

// Graded reports whether a letter grade was recorded for the course.
func (c CompletedCourse) Graded() bool {
	return c.Grade != ""
}

// ValidateCourses checks a completed-course set for empty codes, invalid
// grades, and duplicate codes. The record is a set; the same course cannot
// appear twice.
func ValidateCourses(courses []CompletedCourse) error {
	seen := make(map[id.CourseCode]struct{}, len(courses))
	for _, course := range courses {
		if course.Code.IsNil() {
			return dErrors.New(dErrors.CodeValidation, "course code cannot be empty")
		}
		if course.Grade != "" && !course.Grade.IsValid() {
			return dErrors.New(dErrors.CodeValidation, "unknown grade for "+course.Code.String()+": "+course.Grade.String())
		}
		if _, dup := seen[course.Code]; dup {
			return dErrors.New(dErrors.CodeValidation, "duplicate course code: "+course.Code.String())
		}
		seen[course.Code] = struct{}{}
	}
	return nil
}
