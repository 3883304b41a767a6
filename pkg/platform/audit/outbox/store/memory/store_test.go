package memory

import (
	"context"
	"testing"
	"time"

	"gradus/pkg/platform/audit/outbox"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entryAt(created time.Time) *outbox.Entry {
	e := outbox.NewEntry("student", uuid.NewString(), "record_updated", []byte(`{}`))
	e.CreatedAt = created
	return e
}

func TestStore_FetchUnprocessedOrdersOldestFirst(t *testing.T) {
	ctx := context.Background()
	store := New()
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	newest := entryAt(base.Add(2 * time.Minute))
	oldest := entryAt(base)
	middle := entryAt(base.Add(time.Minute))
	for _, e := range []*outbox.Entry{newest, oldest, middle} {
		require.NoError(t, store.Append(ctx, e))
	}

	entries, err := store.FetchUnprocessed(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, oldest.ID, entries[0].ID)
	assert.Equal(t, middle.ID, entries[1].ID)
}

func TestStore_MarkProcessed(t *testing.T) {
	ctx := context.Background()
	store := New()
	entry := entryAt(time.Now())
	require.NoError(t, store.Append(ctx, entry))

	require.NoError(t, store.MarkProcessed(ctx, entry.ID, time.Now()))

	count, err := store.CountPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	t.Run("second mark fails", func(t *testing.T) {
		err := store.MarkProcessed(ctx, entry.ID, time.Now())
		assert.ErrorIs(t, err, outbox.ErrEntryNotPending)
	})

	t.Run("unknown entry fails", func(t *testing.T) {
		err := store.MarkProcessed(ctx, uuid.New(), time.Now())
		assert.ErrorIs(t, err, outbox.ErrEntryNotPending)
	})
}

func TestStore_OldestPending(t *testing.T) {
	ctx := context.Background()
	store := New()

	oldest, err := store.OldestPending(ctx)
	require.NoError(t, err)
	assert.Nil(t, oldest)

	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	first := entryAt(base)
	require.NoError(t, store.Append(ctx, first))
	require.NoError(t, store.Append(ctx, entryAt(base.Add(time.Hour))))

	oldest, err = store.OldestPending(ctx)
	require.NoError(t, err)
	require.NotNil(t, oldest)
	assert.Equal(t, base, *oldest)

	require.NoError(t, store.MarkProcessed(ctx, first.ID, time.Now()))
	oldest, err = store.OldestPending(ctx)
	require.NoError(t, err)
	require.NotNil(t, oldest)
	assert.Equal(t, base.Add(time.Hour), *oldest)
}

func TestStore_DeleteProcessedBefore(t *testing.T) {
	ctx := context.Background()
	store := New()
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	old := entryAt(base)
	recent := entryAt(base)
	pending := entryAt(base)
	for _, e := range []*outbox.Entry{old, recent, pending} {
		require.NoError(t, store.Append(ctx, e))
	}
	require.NoError(t, store.MarkProcessed(ctx, old.ID, base.Add(time.Minute)))
	require.NoError(t, store.MarkProcessed(ctx, recent.ID, base.Add(time.Hour)))

	deleted, err := store.DeleteProcessedBefore(ctx, base.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	// The pending entry survives regardless of age.
	count, err := store.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
