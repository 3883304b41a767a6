package domain

import (
	"strings"

	dErrors "gradus/pkg/domain-errors"
)

// Grade is a letter grade on a completed course.
type Grade string

const (
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeBPlus Grade = "B+"
	GradeB     Grade = "B"
	GradeCPlus Grade = "C+"
	GradeC     Grade = "C"
	GradeDPlus Grade = "D+"
	GradeD     Grade = "D"
	GradeF     Grade = "F"
)

// ParseGrade validates a letter grade. The grade scale is closed; unknown
// letters are rejected rather than silently treated as passing.
func ParseGrade(s string) (Grade, error) {
	g := Grade(strings.ToUpper(strings.TrimSpace(s)))
	if !g.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown grade: "+s)
	}
	return g, nil
}

// IsValid returns true if the grade is a known valid value.
func (g Grade) IsValid() bool {
	switch g {
	case GradeAPlus, GradeA, GradeBPlus, GradeB, GradeCPlus, GradeC, GradeDPlus, GradeD, GradeF:
		return true
	}
	return false
}

// IsFailing reports whether the grade withholds credit. Only an explicit F
// does; every other grade, including D, earns the course's credit.
func (g Grade) IsFailing() bool {
	return g == GradeF
}

// String returns the string representation of the grade.
func (g Grade) String() string {
	return string(g)
}

// StudentType distinguishes admission tracks with different graduation thresholds.
type StudentType string

const (
	StudentTypeFreshman StudentType = "FRESHMAN"
	StudentTypeTransfer StudentType = "TRANSFER"
)

// ParseStudentType validates a student type. The empty string maps to
// FRESHMAN, the default admission track.
func ParseStudentType(s string) (StudentType, error) {
	t := StudentType(strings.ToUpper(strings.TrimSpace(s)))
	if t == "" {
		return StudentTypeFreshman, nil
	}
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown student type: "+s)
	}
	return t, nil
}

// IsValid returns true if the student type is a known valid value.
func (t StudentType) IsValid() bool {
	switch t {
	case StudentTypeFreshman, StudentTypeTransfer:
		return true
	}
	return false
}

// String returns the string representation of the student type.
func (t StudentType) String() string {
	return string(t)
}
