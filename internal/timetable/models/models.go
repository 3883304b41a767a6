// Package models contains the timetable domain: named weekly course
// plans a student assembles while deciding what to take next term.
// Timetables are planning aids; they never feed graduation evaluation.
package models

import (
	"fmt"
	"sort"
	"time"

	id "gradus/pkg/domain"
	dErrors "gradus/pkg/domain-errors"
)

// Weekly grid bounds. Days run Monday (1) through Saturday (6); each
// day has numbered class periods 1 through 10.
const (
	MinDayOfWeek = 1
	MaxDayOfWeek = 6
	MinPeriod    = 1
	MaxPeriod    = 10
)

// Entry places one course in a weekly slot. The same course may appear
// in several slots (lectures meeting twice a week), but a slot holds at
// most one course.
type Entry struct {
	CourseCode id.CourseCode
	DayOfWeek  int
	Period     int
}

// Timetable is one named plan owned by a single student. Entries are
// kept sorted by day then period so listings are deterministic.
type Timetable struct {
	ID        id.TimetableID
	StudentID id.StudentID
	Name      string
	Entries   []Entry
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTimetable constructs a Timetable and enforces basic invariants.
// The entry slice is copied and normalized; callers may reuse theirs.
func NewTimetable(timetableID id.TimetableID, studentID id.StudentID, name string, entries []Entry, createdAt time.Time) (*Timetable, error) {
	if timetableID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "timetable ID cannot be nil")
	}
	if studentID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "timetable student ID cannot be nil")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "timetable name cannot be empty")
	}
	if err := ValidateEntries(entries); err != nil {
		return nil, err
	}
	return &Timetable{
		ID:        timetableID,
		StudentID: studentID,
		Name:      name,
		Entries:   normalizeEntries(entries),
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}, nil
}

// Replace swaps the timetable's name and full entry set, the model
// counterpart of a PUT. The previous entries are discarded.
func (t *Timetable) Replace(name string, entries []Entry, at time.Time) error {
	if name == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "timetable name cannot be empty")
	}
	if err := ValidateEntries(entries); err != nil {
		return err
	}
	t.Name = name
	t.Entries = normalizeEntries(entries)
	if at.After(t.UpdatedAt) {
		t.UpdatedAt = at
	}
	return nil
}

// ValidateEntries checks an entry set for empty codes, out-of-range
// slots, and slot collisions. Two entries may share a course but never
// a slot.
func ValidateEntries(entries []Entry) error {
	seen := make(map[[2]int]struct{}, len(entries))
	for _, entry := range entries {
		if entry.CourseCode.IsNil() {
			return dErrors.New(dErrors.CodeValidation, "course code cannot be empty")
		}
		if entry.DayOfWeek < MinDayOfWeek || entry.DayOfWeek > MaxDayOfWeek {
			return dErrors.New(dErrors.CodeValidation,
				fmt.Sprintf("day_of_week must be between %d and %d", MinDayOfWeek, MaxDayOfWeek))
		}
		if entry.Period < MinPeriod || entry.Period > MaxPeriod {
			return dErrors.New(dErrors.CodeValidation,
				fmt.Sprintf("period must be between %d and %d", MinPeriod, MaxPeriod))
		}
		slot := [2]int{entry.DayOfWeek, entry.Period}
		if _, taken := seen[slot]; taken {
			return dErrors.New(dErrors.CodeValidation,
				fmt.Sprintf("slot already taken: day %d period %d", entry.DayOfWeek, entry.Period))
		}
		seen[slot] = struct{}{}
	}
	return nil
}

func normalizeEntries(entries []Entry) []Entry {
	normalized := make([]Entry, len(entries))
	copy(normalized, entries)
	sort.Slice(normalized, func(i, j int) bool {
		if normalized[i].DayOfWeek != normalized[j].DayOfWeek {
			return normalized[i].DayOfWeek < normalized[j].DayOfWeek
		}
		return normalized[i].Period < normalized[j].Period
	})
	return normalized
}
