// Package refreshtoken persists refresh-token records keyed by the
// SHA-256 hash of the opaque token. Consuming a token is atomic:
// whichever caller consumes first wins, every later presentation of the
// same token surfaces as reuse.
package refreshtoken

import "gradus/internal/sentinel"

var (
	// ErrNotFound is returned when no record exists for a token hash.
	ErrNotFound = sentinel.ErrNotFound
	// ErrTokenUsed is returned when consuming a token that was already rotated.
	ErrTokenUsed = sentinel.ErrAlreadyUsed
	// ErrTokenExpired is returned when consuming a token past its lifetime.
	ErrTokenExpired = sentinel.ErrExpired
)
