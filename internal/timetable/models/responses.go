package models

import "time"

// This file contains transport-layer response models for JSON output.

// EntryResponse is one slot assignment in timetable output.
type EntryResponse struct {
	CourseCode string `json:"course_code"`
	DayOfWeek  int    `json:"day_of_week"`
	Period     int    `json:"period"`
}

// TimetableResponse is a timetable as returned to its owner.
type TimetableResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Entries   []EntryResponse `json:"entries"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TimetablesResponse wraps the owner's timetable listing.
type TimetablesResponse struct {
	Timetables []TimetableResponse `json:"timetables"`
}

// ToTimetableResponse shapes a timetable for JSON output. The entry
// list is never null; an empty grid marshals as [].
func ToTimetableResponse(timetable *Timetable) TimetableResponse {
	entries := make([]EntryResponse, 0, len(timetable.Entries))
	for _, entry := range timetable.Entries {
		entries = append(entries, EntryResponse{
			CourseCode: entry.CourseCode.String(),
			DayOfWeek:  entry.DayOfWeek,
			Period:     entry.Period,
		})
	}
	return TimetableResponse{
		ID:        timetable.ID.String(),
		Name:      timetable.Name,
		Entries:   entries,
		CreatedAt: timetable.CreatedAt,
		UpdatedAt: timetable.UpdatedAt,
	}
}

// ToTimetablesResponse shapes a timetable listing for JSON output.
// The outer list is never null either.
func ToTimetablesResponse(timetables []Timetable) TimetablesResponse {
	out := make([]TimetableResponse, 0, len(timetables))
	for i := range timetables {
		out = append(out, ToTimetableResponse(&timetables[i]))
	}
	return TimetablesResponse{Timetables: out}
}
