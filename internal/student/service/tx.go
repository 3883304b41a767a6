package service

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	id "gradus/pkg/domain"
	dErrors "gradus/pkg/domain-errors"
	platformsync "gradus/pkg/platform/sync"
)

// Shard contention metrics for monitoring lock behavior
var (
	shardLockWaitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gradus_student_shard_lock_wait_seconds",
		Help:    "Time spent waiting to acquire a student record shard lock",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})
	shardLockAcquisitions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gradus_student_shard_lock_acquisitions_total",
		Help: "Total number of student record shard lock acquisitions",
	})
)

// RecordTx provides a transactional boundary for record mutations: the
// load-replace-update sequence of one student must not interleave with
// another writer for the same student.
type RecordTx interface {
	RunInTx(ctx context.Context, studentID id.StudentID, fn func(store Store) error) error
}

// defaultRecordTxTimeout is the maximum duration for a record transaction.
const defaultRecordTxTimeout = 5 * time.Second

type shardedRecordTx struct {
	mu      *platformsync.ShardedMutex
	store   Store
	timeout time.Duration
}

// NewShardedRecordTx serializes record mutations per student with a
// sharded in-process lock over the given store.
func NewShardedRecordTx(store Store) RecordTx {
	return &shardedRecordTx{
		mu:    platformsync.NewShardedMutex(),
		store: store,
	}
}

func (t *shardedRecordTx) RunInTx(ctx context.Context, studentID id.StudentID, fn func(store Store) error) error {
	// Check if context is already cancelled
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "record transaction aborted: context cancelled")
	}

	// Apply timeout if not already set
	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultRecordTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	key := studentID.String()

	// Record lock acquisition timing for contention monitoring
	lockStart := time.Now()
	t.mu.Lock(key)
	shardLockWaitDuration.Observe(time.Since(lockStart).Seconds())
	shardLockAcquisitions.Inc()
	defer t.mu.Unlock(key)

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "record transaction aborted: context cancelled")
	}

	return fn(t.store)
}
