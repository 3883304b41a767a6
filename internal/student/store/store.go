// Package store persists student accounts and their completed-course
// records. The record is owned by the student row; replacing it is atomic
// so an evaluation never sees a half-written course set.
package store

import "gradus/internal/sentinel"

var (
	// ErrNotFound is returned when no student exists for an ID or email.
	ErrNotFound = sentinel.ErrNotFound
	// ErrAlreadyExists is returned when registering an email that is taken.
	ErrAlreadyExists = sentinel.ErrConflict
)
