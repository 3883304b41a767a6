package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrEntryNotPending reports a MarkProcessed call for an entry that does not
// exist or was already processed, usually a concurrent worker winning the race.
var ErrEntryNotPending = errors.New("outbox entry not found or already processed")

// Store defines the outbox persistence operations.
// Implementations must be safe for concurrent use.
type Store interface {
	// Append adds a new entry to the outbox.
	// Call this within the same transaction as the business operation so the
	// event and the state change commit or roll back together.
	Append(ctx context.Context, entry *Entry) error

	// FetchUnprocessed returns up to limit entries that haven't been processed,
	// oldest first. Implementations should use row-level locking
	// (e.g. FOR UPDATE SKIP LOCKED) so concurrent workers don't double-publish.
	FetchUnprocessed(ctx context.Context, limit int) ([]*Entry, error)

	// MarkProcessed marks an entry as successfully published to Kafka.
	MarkProcessed(ctx context.Context, id uuid.UUID, processedAt time.Time) error

	// CountPending returns the number of unprocessed entries.
	// Used for metrics and health monitoring.
	CountPending(ctx context.Context) (int64, error)

	// OldestPending returns the creation time of the oldest unprocessed
	// entry, or nil when everything has been published.
	OldestPending(ctx context.Context) (*time.Time, error)

	// DeleteProcessedBefore removes old processed entries for cleanup.
	// Returns the number of entries deleted.
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}
