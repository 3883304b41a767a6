// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "gradus/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing StudentID where TimetableID is expected.
type (
	StudentID   uuid.UUID
	SessionID   uuid.UUID
	TimetableID uuid.UUID
)

// CourseCode is the institutional course identifier (e.g., "CS204").
// Codes are case-insensitive on input and canonically upper-case.
type CourseCode string

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseStudentID(s string) (StudentID, error) {
	id, err := parseUUID(s, "student ID")
	return StudentID(id), err
}

func ParseSessionID(s string) (SessionID, error) {
	id, err := parseUUID(s, "session ID")
	return SessionID(id), err
}

func ParseTimetableID(s string) (TimetableID, error) {
	id, err := parseUUID(s, "timetable ID")
	return TimetableID(id), err
}

// ParseCourseCode canonicalizes and validates a course code. Codes are
// trimmed, upper-cased, and restricted to letters, digits, and hyphens so
// that lookups against the catalog behave as set membership.
func ParseCourseCode(s string) (CourseCode, error) {
	code := strings.ToUpper(strings.TrimSpace(s))
	if code == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "course code cannot be empty")
	}
	for _, r := range code {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-':
		default:
			return "", dErrors.New(dErrors.CodeInvalidInput, "invalid course code format")
		}
	}
	return CourseCode(code), nil
}

// String methods - for logging and debugging.

func (id StudentID) String() string   { return uuid.UUID(id).String() }
func (id SessionID) String() string   { return uuid.UUID(id).String() }
func (id TimetableID) String() string { return uuid.UUID(id).String() }
func (c CourseCode) String() string   { return string(c) }

// IsNil checks - used for service-layer validation.

func (id StudentID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id TimetableID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (c CourseCode) IsNil() bool   { return c == "" }

// parseUUID is the shared validation logic.
// Note: Nil UUIDs are allowed here. Use IsNil() at the service layer for
// business validation, which allows store lookups to return proper
// "not found" errors for consistency.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	return id, nil
}
