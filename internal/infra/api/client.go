package api

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/vietddude/vetclinic/internal/core/session"
	"github.com/vietddude/vetclinic/internal/infra/api/fallback"
	"github.com/vietddude/vetclinic/internal/infra/api/retry"
	"github.com/vietddude/vetclinic/internal/infra/api/transport"
	"github.com/vietddude/vetclinic/internal/infra/metrics"
)

// Client dispatches requests to the backend.
type Client struct {
	doer    transport.Doer
	session *session.Session
	cache   *fallback.Cache
	policy  retry.Policy
	clock   retry.Clock
	logger  *slog.Logger

	anyFailure bool
	requestID  func() string
}

// Option configures a Client.
type Option func(*Client)

// WithPolicy replaces retry.DefaultPolicy.
func WithPolicy(p retry.Policy) Option {
	return func(c *Client) { c.policy = p }
}

// WithFallback enables the fallback cache for descriptors with a cache key.
func WithFallback(cache *fallback.Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithAnyFailureFallback lets any terminal failure other than cancellation be
// answered from the cache. By default only failures the retry policy treats
// as transient are, so rejections such as 401 or 404 always reach the caller.
func WithAnyFailureFallback(enabled bool) Option {
	return func(c *Client) { c.anyFailure = enabled }
}

func WithClock(clock retry.Clock) Option {
	return func(c *Client) {
		if clock != nil {
			c.clock = clock
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRequestIDs replaces the request id generator.
func WithRequestIDs(gen func() string) Option {
	return func(c *Client) {
		if gen != nil {
			c.requestID = gen
		}
	}
}

// New creates a client over doer. sess may be nil for anonymous use.
func New(doer transport.Doer, sess *session.Session, opts ...Option) *Client {
	c := &Client{
		doer:      doer,
		session:   sess,
		policy:    retry.DefaultPolicy,
		clock:     retry.SystemClock,
		logger:    slog.Default(),
		requestID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the session the client signs requests with.
func (c *Client) Session() *session.Session {
	return c.session
}

// Cache returns the fallback cache, or nil when disabled.
func (c *Client) Cache() *fallback.Cache {
	return c.cache
}

// Dispatch sends d, retrying transient failures. The session is read once,
// before the first attempt; every retry reuses the same signed descriptor.
//
// On success a cache-eligible response is recorded. When transient failures
// exhaust the attempts, the last recorded response is returned instead if one
// exists. Non-retryable failures surface as *DispatchError unless
// WithAnyFailureFallback is set. Cancellation never reads the cache and yields
// an error matching ErrCancelled.
func (c *Client) Dispatch(ctx context.Context, d transport.Descriptor) (*Result, error) {
	start := c.clock.Now()
	op := operation(d)

	d = authorize(d, c.snapshot())
	if d.Header.Get(RequestIDHeader) == "" {
		d = d.WithHeader(RequestIDHeader, c.requestID())
	}
	logger := c.logger.With("operation", op, "request_id", d.Header.Get(RequestIDHeader))

	resp, trace, err := retry.Run(ctx, c.policy, d.NoRetry,
		func(ctx context.Context, n int) (*transport.Response, error) {
			resp, err := c.doer.Do(ctx, d)
			outcome := metrics.OutcomeSuccess
			if err != nil {
				outcome = metrics.OutcomeError
			}
			metrics.APIAttemptsTotal.WithLabelValues(op, outcome).Inc()
			return resp, err
		},
		retry.WithClock(c.clock),
		retry.OnTransition(func(t retry.Transition) {
			c.observe(logger, op, t)
		}),
	)
	elapsed := func() float64 { return c.clock.Now().Sub(start).Seconds() }

	if err == nil {
		metrics.APIDispatchDuration.WithLabelValues(op, metrics.OutcomeSuccess).Observe(elapsed())
		c.remember(ctx, logger, op, d.CacheKey, resp.Body)
		return &Result{
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
			Payload:    resp.Body,
			Attempts:   trace.Count(),
		}, nil
	}

	if errors.Is(err, retry.ErrCancelled) {
		metrics.APIDispatchDuration.WithLabelValues(op, metrics.OutcomeCancelled).Observe(elapsed())
		logger.Debug("Dispatch cancelled", "attempts", trace.Count())
		return nil, err
	}

	terr := classified(err)
	if c.fallbackAllowed(d, terr) {
		if res := c.recall(ctx, logger, op, d.CacheKey, terr); res != nil {
			res.Attempts = trace.Count()
			metrics.APIDispatchDuration.WithLabelValues(op, metrics.OutcomeFallback).Observe(elapsed())
			return res, nil
		}
	}

	metrics.APIDispatchDuration.WithLabelValues(op, metrics.OutcomeError).Observe(elapsed())
	logger.Debug("Dispatch failed", "attempts", trace.Count(), "error", terr)
	return nil, &DispatchError{Operation: op, Attempts: trace.Count(), Err: terr}
}

func (c *Client) snapshot() session.Snapshot {
	if c.session == nil {
		return session.Snapshot{}
	}
	return c.session.Snapshot()
}

func (c *Client) observe(logger *slog.Logger, op string, t retry.Transition) {
	switch t.State {
	case retry.StateBackoff:
		kind := "other"
		var terr *transport.Error
		if errors.As(t.Err, &terr) {
			kind = terr.Kind.String()
		}
		metrics.APIRetriesTotal.WithLabelValues(op, kind).Inc()
		logger.Warn("Request failed, retrying",
			"attempt", t.Attempt,
			"delay", t.Delay,
			"error", t.Err,
		)
	case retry.StateAttempting:
		logger.Debug("Sending request", "attempt", t.Attempt)
	case retry.StateFailed:
		logger.Debug("Giving up", "attempt", t.Attempt, "reason", t.Reason)
	}
}

func (c *Client) fallbackAllowed(d transport.Descriptor, terr *transport.Error) bool {
	if c.cache == nil || d.CacheKey == "" {
		return false
	}
	if c.anyFailure {
		return true
	}
	return c.policy.Transient(terr)
}

// remember records a successful cache-eligible payload. Failures are logged
// and never change the result.
func (c *Client) remember(ctx context.Context, logger *slog.Logger, op, key string, body []byte) {
	if c.cache == nil || key == "" {
		return
	}
	if err := c.cache.Store(ctx, key, body); err != nil {
		logger.Warn("Failed to store fallback entry", "key", key, "error", err)
		return
	}
	metrics.FallbackWritesTotal.WithLabelValues(op).Inc()
}

// recall returns the cached result for key, or nil on a miss.
func (c *Client) recall(ctx context.Context, logger *slog.Logger, op, key string, cause error) *Result {
	entry, err := c.cache.Lookup(ctx, key)
	if err != nil {
		if !errors.Is(err, fallback.ErrMiss) {
			logger.Warn("Failed to read fallback entry", "key", key, "error", err)
		}
		return nil
	}
	if err := c.cache.MarkServed(ctx, key); err != nil {
		logger.Warn("Failed to mark fallback entry served", "key", key, "error", err)
	}
	metrics.FallbackServedTotal.WithLabelValues(op).Inc()
	logger.Warn("Serving cached response",
		"key", key,
		"stored_at", entry.StoredAt,
		"error", cause,
	)
	return &Result{
		Payload:   entry.Payload,
		FromCache: true,
		StoredAt:  entry.StoredAt,
	}
}

// classified returns err as a *transport.Error, wrapping foreign errors as
// KindOther.
func classified(err error) *transport.Error {
	var terr *transport.Error
	if errors.As(err, &terr) {
		return terr
	}
	return &transport.Error{Kind: transport.KindOther, Message: "unexpected failure", Err: err}
}

func operation(d transport.Descriptor) string {
	if d.Name != "" {
		return d.Name
	}
	return d.String()
}
