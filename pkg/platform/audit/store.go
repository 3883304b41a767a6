package audit

import (
	"context"

	id "gradus/pkg/domain"
)

// Store persists audit events. Implementations must be safe for
// concurrent use; Append is the hot path.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByStudent(ctx context.Context, studentID id.StudentID) ([]Event, error)
	ListAll(ctx context.Context) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
