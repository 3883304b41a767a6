// Package store persists student timetables. A timetable row owns its
// entries; replacing the grid is atomic so a reader never sees a
// half-updated week.
package store

import "gradus/internal/sentinel"

var (
	// ErrNotFound is returned when no timetable exists for an ID.
	ErrNotFound = sentinel.ErrNotFound
	// ErrAlreadyExists is returned when creating a timetable whose ID is taken.
	ErrAlreadyExists = sentinel.ErrConflict
)
