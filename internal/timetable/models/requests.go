package models

import (
	"strings"

	id "gradus/pkg/domain"
	dErrors "gradus/pkg/domain-errors"
	"gradus/pkg/validation"
)

// EntryInput is one slot assignment in a timetable payload.
type EntryInput struct {
	CourseCode string `json:"course_code" validate:"required,notblank,max=20"`
	DayOfWeek  int    `json:"day_of_week" validate:"required,min=1,max=6"`
	Period     int    `json:"period" validate:"required,min=1,max=10"`
}

// CreateTimetableRequest is the payload for creating a timetable.
// Entries may be omitted; a plan often starts as just a name.
type CreateTimetableRequest struct {
	Name    string       `json:"name" validate:"required,notblank,max=100"`
	Entries []EntryInput `json:"entries,omitempty" validate:"omitempty,max=60,dive"`
}

// Normalize canonicalizes the request in place. Course codes are
// stored upper-case.
func (r *CreateTimetableRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	normalizeEntryInputs(r.Entries)
}

// Validate checks tags first, then the entry semantics: every code
// must parse and no two entries may claim the same slot.
func (r *CreateTimetableRequest) Validate() error {
	if err := validation.Validate(r); err != nil {
		return err
	}
	return validateEntryInputs(r.Entries)
}

// ToEntries converts the validated entries to domain slots.
func (r *CreateTimetableRequest) ToEntries() []Entry {
	return entryInputsToEntries(r.Entries)
}

// UpdateTimetableRequest replaces a timetable in full: the new name
// and the complete entry set. Entries must be present; an empty list
// clears the grid.
type UpdateTimetableRequest struct {
	Name    string       `json:"name" validate:"required,notblank,max=100"`
	Entries []EntryInput `json:"entries" validate:"omitempty,max=60,dive"`
}

// Normalize canonicalizes the request in place.
func (r *UpdateTimetableRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	normalizeEntryInputs(r.Entries)
}

// Validate checks tags first, then the entry semantics. A nil entry
// list is rejected: a replacement must say what the grid becomes.
func (r *UpdateTimetableRequest) Validate() error {
	if r.Entries == nil {
		return dErrors.New(dErrors.CodeValidation, "entries is required")
	}
	if err := validation.Validate(r); err != nil {
		return err
	}
	return validateEntryInputs(r.Entries)
}

// ToEntries converts the validated entries to domain slots.
func (r *UpdateTimetableRequest) ToEntries() []Entry {
	return entryInputsToEntries(r.Entries)
}

func normalizeEntryInputs(entries []EntryInput) {
	for i := range entries {
		entries[i].CourseCode = strings.ToUpper(strings.TrimSpace(entries[i].CourseCode))
	}
}

func validateEntryInputs(entries []EntryInput) error {
	seen := make(map[[2]int]struct{}, len(entries))
	for _, entry := range entries {
		if _, err := id.ParseCourseCode(entry.CourseCode); err != nil {
			return err
		}
		slot := [2]int{entry.DayOfWeek, entry.Period}
		if _, taken := seen[slot]; taken {
			return dErrors.New(dErrors.CodeValidation, "entries place two courses in the same slot")
		}
		seen[slot] = struct{}{}
	}
	return nil
}

func entryInputsToEntries(entries []EntryInput) []Entry {
	converted := make([]Entry, 0, len(entries))
	for _, in := range entries {
		// Validation already parsed every field, conversion cannot fail here.
		code, _ := id.ParseCourseCode(in.CourseCode)
		converted = append(converted, Entry{
			CourseCode: code,
			DayOfWeek:  in.DayOfWeek,
			Period:     in.Period,
		})
	}
	return converted
}
