// Package session persists login sessions. Refresh bookkeeping runs
// under a per-session lock so a rotation can never race a concurrent
// revocation into resurrecting a dead session.
package session

import "gradus/internal/sentinel"

var (
	// ErrNotFound is returned when no session exists for an ID.
	ErrNotFound = sentinel.ErrNotFound
	// ErrAlreadyExists is returned when creating a session ID that is taken.
	ErrAlreadyExists = sentinel.ErrConflict
	// ErrRevoked is returned when advancing a session that was revoked.
	ErrRevoked = sentinel.ErrRevoked
	// ErrExpired is returned when advancing a session past its lifetime.
	ErrExpired = sentinel.ErrExpired
)
