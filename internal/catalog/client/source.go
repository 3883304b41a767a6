package client

import (
	"context"
	"net/http"

	"gradus/internal/catalog/models"
	id "gradus/pkg/domain"
)

// Source is the interface every remote course registry must implement.
//
// Implementations wrap external registry APIs behind a common interface so
// the lookup pipeline can fall back across heterogeneous sources without
// coupling to their protocols or data formats.
type Source interface {
	// ID returns a unique identifier for this source instance
	// (e.g., "university-registry-v1"). Used in errors, logs, and metrics.
	ID() string

	// FetchCourse retrieves one course by its canonical code.
	// Returns a SourceError on failure; the ErrorNotFound category is the
	// authoritative "no such course" answer, everything else is an
	// infrastructure failure.
	FetchCourse(ctx context.Context, code id.CourseCode) (*models.Course, error)

	// FetchCourses retrieves a batch of courses. Unknown codes are omitted
	// from the result, not reported as errors.
	FetchCourses(ctx context.Context, codes []id.CourseCode) ([]models.Course, error)

	// Health checks if the source is available and responding.
	// Returns nil if healthy, error otherwise.
	Health(ctx context.Context) error
}

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}
