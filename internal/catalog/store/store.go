// Package store persists the course catalog. The catalog is the local
// source of truth for graduation evaluation; registry answers are folded
// into it by the service layer so evaluations keep working when the
// registry is down.
package store

import "gradus/internal/sentinel"

var (
	// ErrNotFound is returned when no course exists for a code.
	ErrNotFound = sentinel.ErrNotFound
	// ErrAlreadyExists is returned when creating a course whose code is taken.
	ErrAlreadyExists = sentinel.ErrConflict
)
