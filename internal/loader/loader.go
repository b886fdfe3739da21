// Package loader orchestrates entity-collection fetches for the guided flow.
//
// Every collection exposes {items, status, error} to its consumers. Transient
// failures are retried on a bounded policy before an error is ever surfaced;
// logical failures from the data store surface immediately. Completions of
// concurrent fetches may interleave in any order, so results carry a
// generation stamp and only the newest request for a collection is allowed to
// apply its result (last-request-wins).
package loader

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/flintspark/civicflow/internal/errors"
)

// Status describes the lifecycle of a collection.
type Status string

const (
	// StatusIdle means the collection has never been populated.
	StatusIdle Status = "idle"
	// StatusLoading means a fetch is in flight.
	StatusLoading Status = "loading"
	// StatusReady means the last fetch succeeded.
	StatusReady Status = "ready"
	// StatusFailed means the last fetch failed after exhausting retries.
	StatusFailed Status = "failed"
)

// Policy bounds automatic retries of transient fetch failures.
//
// It is deliberately decoupled from wall-clock time: tests shrink Delay to
// run without real sleeps.
type Policy struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries uint64
	// Delay is the fixed wait between attempts.
	Delay time.Duration
	// Permanent reports whether err must surface without retrying, such as a
	// logical failure response from the data store. Nil treats every error as
	// transient.
	Permanent func(error) bool
}

// DefaultPolicy retries twice with a two-second delay, the behaviour users
// see as "silent recovery" before an error state ever renders.
func DefaultPolicy(permanent func(error) bool) Policy {
	return Policy{
		MaxRetries: 2,
		Delay:      2 * time.Second,
		Permanent:  permanent,
	}
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	return backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Delay), p.MaxRetries), ctx)
}

// Snapshot is a point-in-time copy of a collection's state.
type Snapshot[T any] struct {
	Items  []T
	Status Status
	Err    error
}

// Collection holds one entity type's items together with loading state.
type Collection[T any] struct {
	mu     sync.Mutex
	name   string
	policy Policy
	logger *slog.Logger

	items  []T
	status Status
	err    error
	gen    uint64
}

func NewCollection[T any](name string, policy Policy, logger *slog.Logger) *Collection[T] {
	return &Collection[T]{
		name:   name,
		policy: policy,
		logger: logger.With("collection", name),
		status: StatusIdle,
	}
}

// Load fetches the collection, retrying transient failures per the policy,
// and applies the result unless a newer Load has been issued meanwhile.
// It blocks until the outcome is decided; issue concurrent loads from
// separate goroutines.
func (c *Collection[T]) Load(ctx context.Context, fetch func(context.Context) ([]T, error)) {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.status = StatusLoading
	c.err = nil
	c.mu.Unlock()

	var items []T
	operation := func() error {
		fetched, err := fetch(ctx)
		if err != nil {
			if c.policy.Permanent != nil && c.policy.Permanent(err) {
				return backoff.Permanent(err)
			}
			c.logger.LogAttrs(ctx, slog.LevelWarn, "transient fetch failure, retrying", errors.SlogError(err))
			return err
		}
		items = fetched
		return nil
	}
	err := backoff.Retry(operation, c.policy.backOff(ctx))

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		// A newer request owns the collection now; this result is stale.
		c.logger.LogAttrs(ctx, slog.LevelDebug, "discarding stale fetch result")
		return
	}
	if err != nil {
		c.status = StatusFailed
		c.err = err
		c.logger.LogAttrs(ctx, slog.LevelError, "fetch failed", errors.SlogError(err))
		return
	}
	c.items = items
	c.status = StatusReady
	c.err = nil
}

// Ensure triggers exactly one load when the collection has never been
// populated. It recovers from a missed initial trigger, such as a session
// restored from storage whose caches were discarded.
func (c *Collection[T]) Ensure(ctx context.Context, fetch func(context.Context) ([]T, error)) {
	c.mu.Lock()
	idle := c.status == StatusIdle
	c.mu.Unlock()
	if idle {
		c.Load(ctx, fetch)
	}
}

// Snapshot returns a copy of the current state.
func (c *Collection[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]T, len(c.items))
	copy(items, c.items)
	return Snapshot[T]{Items: items, Status: c.status, Err: c.err}
}

// Reset empties the collection back to the unloaded state. Any in-flight
// fetch result becomes stale and is discarded on arrival.
func (c *Collection[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.items = nil
	c.status = StatusIdle
	c.err = nil
}
