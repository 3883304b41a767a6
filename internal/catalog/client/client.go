// Package client implements the remote course registry pipeline: a TTL
// answer cache in front of one or more registry sources, with concurrent
// lookup collapsing, retry backoff, and a circuit breaker on the primary
// source.
package client

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"gradus/internal/catalog/cache"
	"gradus/internal/catalog/metrics"
	"gradus/internal/catalog/models"
	"gradus/internal/catalog/tracer"
	id "gradus/pkg/domain"
	"gradus/pkg/platform/circuit"
)

// Cache is the consumer-side contract for the registry answer cache.
// Implementations live in internal/catalog/cache. A nil cache disables
// caching entirely.
type Cache interface {
	Get(ctx context.Context, code id.CourseCode) (*cache.Entry, error)
	Set(ctx context.Context, code id.CourseCode, entry cache.Entry) error
	Invalidate(ctx context.Context, code id.CourseCode) error
}

// BackoffConfig configures retry backoff for retryable source errors.
type BackoffConfig struct {
	InitialDelay time.Duration // Initial delay before first retry (default: 100ms)
	MaxDelay     time.Duration // Maximum delay between retries (default: 2s)
	MaxRetries   int           // Maximum number of retries (default: 3)
	Multiplier   float64       // Multiplier for exponential backoff (default: 2.0)
}

// Client coordinates course lookups against remote registries. Answers come
// from the TTL cache when possible, concurrent fetches for the same code are
// collapsed into one remote call, and the source chain is walked with retry
// backoff for transient failures. A circuit breaker guards the primary
// source: while it is open, fallback sources are tried first so a flapping
// primary stops fronting every lookup, and the occasional probe lets the
// circuit close again.
type Client struct {
	sources []Source
	cache   Cache
	breaker *circuit.Breaker
	group   singleflight.Group
	backoff BackoffConfig
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  tracer.Tracer
}

// Option configures the Client.
type Option func(*Client)

// WithCache sets the registry answer cache.
func WithCache(c Cache) Option {
	return func(cl *Client) {
		cl.cache = c
	}
}

// WithBreaker replaces the default circuit breaker guarding the primary
// source. Useful for tuning thresholds or sharing a breaker with health
// reporting.
func WithBreaker(b *circuit.Breaker) Option {
	return func(cl *Client) {
		if b != nil {
			cl.breaker = b
		}
	}
}

// WithBackoff sets the retry backoff configuration. Zero fields keep their
// defaults.
func WithBackoff(cfg BackoffConfig) Option {
	return func(cl *Client) {
		if cfg.InitialDelay > 0 {
			cl.backoff.InitialDelay = cfg.InitialDelay
		}
		if cfg.MaxDelay > 0 {
			cl.backoff.MaxDelay = cfg.MaxDelay
		}
		if cfg.MaxRetries > 0 {
			cl.backoff.MaxRetries = cfg.MaxRetries
		}
		if cfg.Multiplier > 0 {
			cl.backoff.Multiplier = cfg.Multiplier
		}
	}
}

// WithTimeout caps one full remote fetch including retries and fallbacks.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.timeout = d
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(cl *Client) {
		cl.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.logger = l
		}
	}
}

// WithTracer sets the tracer.
func WithTracer(t tracer.Tracer) Option {
	return func(cl *Client) {
		if t != nil {
			cl.tracer = t
		}
	}
}

// New creates a registry pipeline over the given sources, ordered primary
// first.
func New(sources []Source, opts ...Option) *Client {
	c := &Client{
		sources: sources,
		breaker: circuit.New("course-registry"),
		backoff: BackoffConfig{
			InitialDelay: 100 * time.Millisecond,
			MaxDelay:     2 * time.Second,
			MaxRetries:   3,
			Multiplier:   2.0,
		},
		timeout: 5 * time.Second,
		logger:  slog.Default(),
		tracer:  tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Course retrieves one course by code.
//
// Errors: a SourceError with the ErrorNotFound category is the
// authoritative "no such course" answer; any other error is an
// infrastructure failure.
func (c *Client) Course(ctx context.Context, code id.CourseCode) (*models.Course, error) {
	if len(c.sources) == 0 {
		return nil, ErrNoSources
	}

	// Cache first; positive and negative answers both short-circuit.
	if c.cache != nil {
		if entry, err := c.cache.Get(ctx, code); err == nil {
			if !entry.Found {
				return nil, NewSourceError(ErrorNotFound, "cache", "course not found (cached)", nil)
			}
			c.recordLookup(metrics.LookupCache)
			return entry.Course, nil
		} else if !errors.Is(err, cache.ErrNotFound) {
			c.logger.WarnContext(ctx, "course cache read failed",
				"course_code", code.String(),
				"error", err,
			)
		}
	}

	// Collapse concurrent fetches for the same code into one remote call.
	v, err, _ := c.group.Do(code.String(), func() (any, error) {
		return c.fetchCourse(ctx, code)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Course), nil
}

// Courses retrieves a batch of courses. Codes the registry does not know
// are omitted from the result, and the miss is cached so the next lookup
// skips the remote call.
func (c *Client) Courses(ctx context.Context, codes []id.CourseCode) ([]models.Course, error) {
	if len(c.sources) == 0 {
		return nil, ErrNoSources
	}
	if len(codes) == 0 {
		return nil, nil
	}

	found := make([]models.Course, 0, len(codes))
	missing := make([]id.CourseCode, 0, len(codes))
	if c.cache != nil {
		for _, code := range codes {
			entry, err := c.cache.Get(ctx, code)
			if err != nil {
				if !errors.Is(err, cache.ErrNotFound) {
					c.logger.WarnContext(ctx, "course cache read failed",
						"course_code", code.String(),
						"error", err,
					)
				}
				missing = append(missing, code)
				continue
			}
			// Negative entries answer the code without a remote call.
			if entry.Found {
				c.recordLookup(metrics.LookupCache)
				found = append(found, *entry.Course)
			}
		}
	} else {
		missing = append(missing, codes...)
	}

	if len(missing) == 0 {
		return found, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var fetched []models.Course
	err := c.fetchWithFallback(ctx, len(missing), func(ctx context.Context, src Source) error {
		batch, err := src.FetchCourses(ctx, missing)
		if err != nil {
			return err
		}
		fetched = batch
		return nil
	})
	if err != nil {
		return nil, err
	}

	returned := make(map[id.CourseCode]bool, len(fetched))
	for _, course := range fetched {
		cc := course
		returned[cc.Code] = true
		c.recordLookup(metrics.LookupRegistry)
		c.cacheSet(ctx, cc.Code, cache.Entry{Course: &cc, Found: true})
	}
	for _, code := range missing {
		if !returned[code] {
			c.cacheSet(ctx, code, cache.Entry{Found: false})
		}
	}

	return append(found, fetched...), nil
}

// InvalidateCourse drops any cached registry answer for the code. Called
// after admin mutations so a stale cache entry cannot resurrect deleted or
// overwritten data.
func (c *Client) InvalidateCourse(ctx context.Context, code id.CourseCode) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Invalidate(ctx, code); err != nil {
		c.logger.WarnContext(ctx, "course cache invalidation failed",
			"course_code", code.String(),
			"error", err,
		)
	}
}

// Health reports whether at least one source answers its health endpoint.
func (c *Client) Health(ctx context.Context) error {
	if len(c.sources) == 0 {
		return ErrNoSources
	}
	var lastErr error
	for _, src := range c.sources {
		if err := src.Health(ctx); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	return lastErr
}

// fetchCourse walks the source chain for one code and write-caches the
// answer, including authoritative misses.
func (c *Client) fetchCourse(ctx context.Context, code id.CourseCode) (*models.Course, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var fetched *models.Course
	err := c.fetchWithFallback(ctx, 1, func(ctx context.Context, src Source) error {
		course, err := src.FetchCourse(ctx, code)
		if err != nil {
			return err
		}
		fetched = course
		return nil
	})
	if err != nil {
		if IsNotFound(err) {
			c.cacheSet(ctx, code, cache.Entry{Found: false})
		}
		return nil, err
	}

	c.recordLookup(metrics.LookupRegistry)
	c.cacheSet(ctx, code, cache.Entry{Course: fetched, Found: true})
	return fetched, nil
}

// fetchWithFallback runs fn against the source chain. While the breaker is
// open the fallbacks are tried before the primary, so the primary still
// sees an occasional probe but stops fronting every lookup. An
// authoritative not-found from any source wins over infrastructure errors
// from the rest of the chain.
func (c *Client) fetchWithFallback(ctx context.Context, codeCount int, fn func(context.Context, Source) error) error {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, tracer.SpanRegistry,
		tracer.Int(tracer.AttrCodeCount, codeCount),
	)

	order := make([]int, 0, len(c.sources))
	for i := range c.sources {
		order = append(order, i)
	}
	if c.breaker.IsOpen() && len(c.sources) > 1 {
		order = append(order[1:], 0)
	}

	var lastErr error
	var notFoundErr error
	for _, idx := range order {
		src := c.sources[idx]
		err := c.trySourceWithBackoff(ctx, src, fn)
		if idx == 0 {
			c.recordPrimaryOutcome(ctx, err)
		}
		if err == nil {
			span.SetAttributes(tracer.String(tracer.AttrSourceID, src.ID()))
			span.End(nil)
			c.recordRegistryRequest(nil, start)
			return nil
		}

		lastErr = err
		if notFoundErr == nil && IsNotFound(err) {
			notFoundErr = err
		}
		if ctx.Err() != nil {
			break
		}
	}

	if notFoundErr != nil {
		// The registry answered; the course just doesn't exist.
		span.SetAttributes(tracer.Bool(tracer.AttrFound, false))
		span.End(nil)
		c.recordRegistryRequest(nil, start)
		return notFoundErr
	}

	if lastErr == nil {
		lastErr = ErrAllSourcesFailed
	}
	span.End(lastErr)
	c.recordRegistryRequest(lastErr, start)
	return lastErr
}

// trySourceWithBackoff runs fn against one source with exponential backoff
// for retryable errors.
func (c *Client) trySourceWithBackoff(ctx context.Context, src Source, fn func(context.Context, Source) error) error {
	var lastErr error
	delay := c.backoff.InitialDelay

	for attempt := 0; attempt <= c.backoff.MaxRetries; attempt++ {
		// Wait before retry (skip on first attempt)
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}

			delay = time.Duration(float64(delay) * c.backoff.Multiplier)
			if delay > c.backoff.MaxDelay {
				delay = c.backoff.MaxDelay
			}
		}

		err := fn(ctx, src)
		if err == nil {
			return nil
		}
		lastErr = err

		// Only retry if error is retryable
		if !IsRetryable(err) {
			return err
		}
	}

	return lastErr
}

// recordPrimaryOutcome feeds the primary source's result into the circuit
// breaker. An authoritative not-found counts as a success: the registry
// answered.
func (c *Client) recordPrimaryOutcome(ctx context.Context, err error) {
	if err == nil || IsNotFound(err) {
		_, change := c.breaker.RecordSuccess()
		if change.Closed {
			c.logger.InfoContext(ctx, "registry circuit breaker closed",
				"circuit", c.breaker.Name(),
			)
			if c.metrics != nil {
				c.metrics.SetBreakerOpen(false)
			}
		}
		return
	}

	_, change := c.breaker.RecordFailure()
	if change.Opened {
		c.logger.ErrorContext(ctx, "registry circuit breaker opened",
			"circuit", c.breaker.Name(),
			"error", err,
		)
		if c.metrics != nil {
			c.metrics.SetBreakerOpen(true)
		}
	}
}

// cacheSet is best-effort; a failed cache write never fails the lookup.
func (c *Client) cacheSet(ctx context.Context, code id.CourseCode, entry cache.Entry) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(ctx, code, entry); err != nil {
		c.logger.WarnContext(ctx, "course cache write failed",
			"course_code", code.String(),
			"error", err,
		)
	}
}

func (c *Client) recordRegistryRequest(err error, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordRegistryRequest(err, time.Since(start))
}

func (c *Client) recordLookup(source string) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordLookup(source)
}
