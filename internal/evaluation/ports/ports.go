package ports

import (
	"context"

	catalogcontracts "gradus/contracts/catalog"
)

// CourseProvider defines the interface for course attribute lookups.
// This port allows the rule engine to fetch course data without depending
// on the catalog store, remote registry clients, or HTTP.
//
// The port uses contract types (gradus/contracts/catalog) which contain
// only the static attributes rules need: credit, category, stage, and the
// required flag.
type CourseProvider interface {
	// GetByCode retrieves one course's attributes.
	// Returns (nil, nil) when the code is unknown; an error only signals
	// an infrastructure failure.
	GetByCode(ctx context.Context, code string) (*catalogcontracts.CourseAttributes, error)

	// GetByCodes retrieves attributes for a batch of codes.
	// Unknown codes are omitted from the result, not reported as errors.
	GetByCodes(ctx context.Context, codes []string) ([]catalogcontracts.CourseAttributes, error)

	// GetRequiredCourses lists every course flagged mandatory for graduation.
	// Used once per tree build.
	GetRequiredCourses(ctx context.Context) ([]catalogcontracts.RequiredCourse, error)
}
