// Package cache provides TTL caches for remote course registry answers.
//
// The cache remembers both positive answers and authoritative misses, so
// repeated lookups for a course code the registry does not know skip the
// remote call until the entry expires.
package cache

import (
	"errors"

	"gradus/internal/catalog/models"
)

// ErrNotFound is returned when a requested entry does not exist in the
// cache or has expired.
var ErrNotFound = errors.New("not found")

// Entry is one cached registry answer. Found false records an
// authoritative "no such course" from upstream.
type Entry struct {
	Course *models.Course `json:"course,omitempty"`
	Found  bool           `json:"found"`
}
