package ratelimit

import (
	"context"
	"sync"
	"time"

	"gradus/pkg/platform/middleware/requesttime"
)

// MemoryStore keeps sliding windows in process memory. It serves single
// instance deployments and tests; instances that must share counts use the
// Redis store instead.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*window
}

// window holds the timestamps still counting against a key, oldest first.
type window struct {
	stamps []time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		windows: make(map[string]*window),
	}
}

// Take records one request for key if it fits under limit within the window.
func (s *MemoryStore) Take(ctx context.Context, key string, limit int, windowDur time.Duration) (Result, error) {
	now := requesttime.Now(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok {
		w = &window{}
		s.windows[key] = w
	}
	w.dropBefore(now.Add(-windowDur))

	if len(w.stamps) >= limit {
		resetAt := w.stamps[0].Add(windowDur)
		return Result{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: retrySeconds(resetAt, now),
		}, nil
	}

	w.stamps = append(w.stamps, now)
	return Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(w.stamps),
		ResetAt:   w.stamps[0].Add(windowDur),
	}, nil
}

// dropBefore removes stamps at or before cutoff.
func (w *window) dropBefore(cutoff time.Time) {
	i := 0
	for ; i < len(w.stamps); i++ {
		if w.stamps[i].After(cutoff) {
			break
		}
	}
	w.stamps = w.stamps[i:]
}

// retrySeconds converts the wait until resetAt into whole seconds, rounded
// up so a client never retries before the slot actually frees.
func retrySeconds(resetAt, now time.Time) int {
	d := resetAt.Sub(now)
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
