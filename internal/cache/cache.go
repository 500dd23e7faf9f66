// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/apex/log"
	"golang.org/x/sync/singleflight"

	"github.com/staranto/showcase/internal/metrics"
)

const (
	DefaultStaleTime  = 5 * time.Minute
	DefaultRetry      = 1
	DefaultRetryDelay = time.Second
)

// Fetcher produces fresh data for a key.
type Fetcher func(ctx context.Context) (any, error)

// State is a snapshot of one cache entry.
type State struct {
	Data      any
	HasData   bool
	UpdatedAt time.Time
	Err       error
	ErrAt     time.Time
	Fetching  bool
}

// Data returns the entry's data as a T.
func Data[T any](s State) (T, bool) {
	v, ok := s.Data.(T)
	return v, ok && s.HasData
}

// Cache is an in-memory query cache. Fetches for the same key are collapsed
// into one call, failed fetches are retried, and every state transition is
// reported to the registered listeners.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*State

	// emitMu serializes transition+notify so listeners see transitions in the
	// order they were applied.
	emitMu    sync.Mutex
	lmu       sync.Mutex
	listeners []listenerSlot
	nextID    int

	group singleflight.Group

	staleTime  time.Duration
	retry      int
	retryDelay time.Duration
	now        func() time.Time
	metrics    *metrics.Metrics
}

type Option func(*Cache)

// WithStaleTime sets how long data is considered fresh after it was stored.
func WithStaleTime(d time.Duration) Option {
	return func(c *Cache) { c.staleTime = d }
}

// WithRetry sets the number of automatic retries after a failed attempt.
func WithRetry(n int) Option {
	return func(c *Cache) {
		if n >= 0 {
			c.retry = n
		}
	}
}

// WithRetryDelay sets the pause between a failed attempt and its retry.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Cache) { c.retryDelay = d }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

func New(opts ...Option) *Cache {
	c := &Cache{
		entries:    make(map[string]*State),
		staleTime:  DefaultStaleTime,
		retry:      DefaultRetry,
		retryDelay: DefaultRetryDelay,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StaleTime returns the configured freshness window.
func (c *Cache) StaleTime() time.Duration {
	return c.staleTime
}

// Get returns a snapshot of the entry for key.
func (c *Cache) Get(key string) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.entries[key]
	if !ok {
		return State{}, false
	}
	return *s, true
}

// IsStale reports whether key has no data or its data is at least staleTime
// old.
func (c *Cache) IsStale(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.entries[key]
	if !ok || !s.HasData {
		return true
	}
	return c.now().Sub(s.UpdatedAt) >= c.staleTime
}

// SetData seeds key with data stored at updatedAt. It is used to hydrate the
// cache and does not count as a fetch.
func (c *Cache) SetData(key string, data any, updatedAt time.Time) {
	c.transition(key, EventDataSet, func(s *State) {
		s.Data = data
		s.HasData = true
		s.UpdatedAt = updatedAt
		s.Err = nil
		s.ErrAt = time.Time{}
	})
}

// Remove drops the entry for key.
func (c *Cache) Remove(key string) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	_, ok := c.entries[key]
	delete(c.entries, key)
	c.mu.Unlock()

	if ok {
		c.emit(Event{Type: EventRemoved, Key: key})
	}
}

// Fetch runs fn for key, or joins the call already in flight for key. The
// underlying call is detached from ctx so one caller giving up does not fail
// the others; ctx only bounds how long this caller waits.
//
// On failure the entry keeps its previous data and records the error.
func (c *Cache) Fetch(ctx context.Context, key string, fn Fetcher) (any, error) {
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		return c.run(detached, key, fn)
	})

	select {
	case res := <-ch:
		if res.Shared {
			c.metrics.IncrementShared()
		}
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Ensure starts a background fetch when key is missing or stale and nothing
// is in flight, and returns the current state without waiting.
func (c *Cache) Ensure(ctx context.Context, key string, fn Fetcher) State {
	c.mu.Lock()
	s, ok := c.entries[key]
	if !ok {
		s = &State{}
		c.entries[key] = s
	}
	start := c.needsFetch(s)
	if start {
		s.Fetching = true
	}
	snap := *s
	c.mu.Unlock()

	if start {
		go func() {
			_, _ = c.Fetch(context.WithoutCancel(ctx), key, fn)
		}()
	}

	return snap
}

// needsFetch must be called with mu held. A recent failure holds off the next
// attempt for staleTime so a broken remote is not hammered.
func (c *Cache) needsFetch(s *State) bool {
	if s.Fetching {
		return false
	}
	now := c.now()
	if !s.ErrAt.IsZero() && now.Sub(s.ErrAt) < c.staleTime {
		return false
	}
	if !s.HasData {
		return true
	}
	return now.Sub(s.UpdatedAt) >= c.staleTime
}

func (c *Cache) run(ctx context.Context, key string, fn Fetcher) (any, error) {
	c.transition(key, EventFetchStarted, func(s *State) {
		s.Fetching = true
	})

	var (
		data any
		err  error
	)
	for attempt := 0; attempt <= c.retry; attempt++ {
		if attempt > 0 {
			c.metrics.IncrementRetries()
			log.WithError(err).Warnf("fetch %s failed, retrying (%d/%d)", key, attempt, c.retry)
			if c.retryDelay > 0 {
				t := time.NewTimer(c.retryDelay)
				select {
				case <-t.C:
				case <-ctx.Done():
					t.Stop()
				}
			}
		}

		data, err = fn(ctx)
		if err == nil {
			break
		}
	}

	now := c.now()

	if err != nil {
		log.WithError(err).Errorf("fetch %s failed", key)
		c.metrics.IncrementFetch("error")
		c.transition(key, EventFetchFailed, func(s *State) {
			s.Fetching = false
			s.Err = err
			s.ErrAt = now
		})
		return nil, err
	}

	c.metrics.IncrementFetch("success")
	c.transition(key, EventFetchSucceeded, func(s *State) {
		s.Data = data
		s.HasData = true
		s.UpdatedAt = now
		s.Err = nil
		s.ErrAt = time.Time{}
		s.Fetching = false
	})

	return data, nil
}

// transition applies mutate to the entry for key, creating it if needed, and
// notifies listeners with the resulting snapshot.
func (c *Cache) transition(key string, typ EventType, mutate func(*State)) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	s, ok := c.entries[key]
	if !ok {
		s = &State{}
		c.entries[key] = s
	}
	mutate(s)
	snap := *s
	c.mu.Unlock()

	log.Debugf("cache %s: %s", key, typ)
	c.emit(Event{Type: typ, Key: key, State: snap})
}
