package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Stub Implementations
// ============================================================================

type takeCall struct {
	key    string
	limit  int
	window time.Duration
}

type stubStore struct {
	takes []takeCall
	res   Result
	err   error
}

func (s *stubStore) Take(_ context.Context, key string, limit int, window time.Duration) (Result, error) {
	s.takes = append(s.takes, takeCall{key: key, limit: limit, window: window})
	if s.err != nil {
		return Result{}, s.err
	}
	return s.res, nil
}

// ============================================================================
// Tests
// ============================================================================

func TestNew_RequiresStore(t *testing.T) {
	require.PanicsWithValue(t, "ratelimit.New: store is required", func() {
		New(nil)
	})
}

func TestLimiter_Allow(t *testing.T) {
	t.Run("applies the scope policy to the store call", func(t *testing.T) {
		store := &stubStore{res: Result{Allowed: true, Limit: 5, Remaining: 4}}
		l := New(store, WithPolicy(ScopeAuth, Policy{Limit: 5, Window: 30 * time.Second}))

		res, err := l.Allow(context.Background(), ScopeAuth, "198.51.100.7")

		require.NoError(t, err)
		assert.True(t, res.Allowed)
		require.Len(t, store.takes, 1)
		assert.Equal(t, "ratelimit:auth:198.51.100.7", store.takes[0].key)
		assert.Equal(t, 5, store.takes[0].limit)
		assert.Equal(t, 30*time.Second, store.takes[0].window)
	})

	t.Run("scopes without a policy admit everything", func(t *testing.T) {
		store := &stubStore{}
		l := New(store)

		res, err := l.Allow(context.Background(), Scope("unknown"), "198.51.100.7")

		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Empty(t, store.takes)
	})

	t.Run("a non-positive limit disables the scope", func(t *testing.T) {
		store := &stubStore{}
		l := New(store, WithPolicy(ScopeAuth, Policy{Limit: 0, Window: time.Minute}))

		res, err := l.Allow(context.Background(), ScopeAuth, "198.51.100.7")

		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Empty(t, store.takes)
	})

	t.Run("store errors surface to the caller", func(t *testing.T) {
		store := &stubStore{err: errors.New("connection refused")}
		l := New(store)

		_, err := l.Allow(context.Background(), ScopeAuth, "198.51.100.7")

		require.Error(t, err)
	})

	t.Run("subjects containing the delimiter stay distinct", func(t *testing.T) {
		// "a:b" and "a_cb" would collide under naive concatenation.
		store := &stubStore{res: Result{Allowed: true}}
		l := New(store)

		_, err := l.Allow(context.Background(), ScopeAuth, "a:b")
		require.NoError(t, err)
		_, err = l.Allow(context.Background(), ScopeAuth, "a_cb")
		require.NoError(t, err)

		require.Len(t, store.takes, 2)
		assert.NotEqual(t, store.takes[0].key, store.takes[1].key)
	})

	t.Run("ipv6 subjects build stable keys", func(t *testing.T) {
		store := &stubStore{res: Result{Allowed: true}}
		l := New(store)

		_, err := l.Allow(context.Background(), ScopeAuth, "2001:db8::1")

		require.NoError(t, err)
		require.Len(t, store.takes, 1)
		assert.Equal(t, "ratelimit:auth:2001_cdb8_c_c1", store.takes[0].key)
	})
}
