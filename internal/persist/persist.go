// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/apex/log"

	"github.com/staranto/showcase/internal/cache"
	"github.com/staranto/showcase/internal/cacheutil"
	"github.com/staranto/showcase/internal/metrics"
	"github.com/staranto/showcase/internal/project"
)

// ErrCorrupt is returned by Record when the durable record cannot be parsed.
var ErrCorrupt = errors.New("cached record is corrupted")

// errDangling marks a timestamp left behind by an interrupted write.
var errDangling = errors.New("timestamp without data")

// outcome labels for the hydration counter.
const (
	outcomeFresh   = "fresh"
	outcomeStale   = "stale"
	outcomeCorrupt = "corrupt"
	outcomeAbsent  = "absent"
	outcomeError   = "error"
)

// Controller restores the project list from the durable store at startup and
// writes it back after every successful fetch.
type Controller struct {
	store   cacheutil.Store
	qc      *cache.Cache
	ttl     time.Duration
	now     func() time.Time
	metrics *metrics.Metrics
}

type Option func(*Controller)

// WithTTL sets how long a durable record is trusted.
func WithTTL(d time.Duration) Option {
	return func(c *Controller) { c.ttl = d }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

func New(store cacheutil.Store, qc *cache.Cache, opts ...Option) *Controller {
	c := &Controller{
		store: store,
		qc:    qc,
		ttl:   project.TTL,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Hydrate seeds the query cache from the durable record when it is younger
// than the TTL. Stale and corrupted records are deleted. It returns true if
// the cache was seeded. Store failures are logged and treated as no record.
func (c *Controller) Hydrate() bool {
	rec, outcome, err := c.load()
	c.metrics.IncrementHydration(outcome)

	switch outcome {
	case outcomeError:
		log.WithError(err).Warnf("failed to read cached %s from %s", project.Key, c.store)
		return false
	case outcomeAbsent:
		log.Debugf("no cached %s in %s", project.Key, c.store)
		if errors.Is(err, errDangling) {
			if err := c.store.Delete(project.TimestampKey); err != nil {
				log.WithError(err).Warn("failed to delete dangling timestamp")
			}
		}
		return false
	case outcomeCorrupt:
		log.WithError(err).Warnf("discarding corrupted cached %s", project.Key)
		c.discard()
		return false
	case outcomeStale:
		log.Debugf("discarding cached %s stored %s ago", project.Key, rec.Age(c.now()))
		c.discard()
		return false
	}

	c.qc.SetData(project.Key, rec.Data, rec.StoredTime())
	log.Debugf("hydrated %d %s from %s", len(rec.Data), project.Key, c.store)
	return true
}

// OnFetchSettled persists data for the projects key. Other keys and empty
// results are ignored. Failures are logged and dropped.
func (c *Controller) OnFetchSettled(key string, data []project.Project) {
	if key != project.Key || len(data) == 0 {
		return
	}

	b, err := json.Marshal(data)
	if err != nil {
		c.writeFailed(err)
		return
	}

	ts := strconv.FormatInt(c.now().UnixMilli(), 10)
	if err := c.store.Set(project.Key, string(b)); err != nil {
		c.writeFailed(err)
		return
	}
	if err := c.store.Set(project.TimestampKey, ts); err != nil {
		c.writeFailed(err)
		return
	}

	c.metrics.IncrementPersistWrites()
	log.Debugf("persisted %d %s to %s", len(data), project.Key, c.store)
}

// Attach registers the controller on the query cache. Every successful fetch
// of the projects key is written through to the store.
func (c *Controller) Attach() (detach func()) {
	return c.qc.Subscribe(func(e cache.Event) {
		if e.Key != project.Key {
			return
		}
		data, ok := cache.Data[[]project.Project](e.State)
		if ok {
			c.metrics.SetProjectsAvailable(len(data))
		}
		if e.Type == cache.EventFetchSucceeded && ok {
			c.OnFetchSettled(e.Key, data)
		}
	})
}

// Record returns the durable record without judging its freshness. ok is
// false when nothing is stored.
func (c *Controller) Record() (project.CacheRecord, bool, error) {
	rec, outcome, err := c.load()
	switch outcome {
	case outcomeAbsent:
		return project.CacheRecord{}, false, nil
	case outcomeError, outcomeCorrupt:
		return project.CacheRecord{}, false, err
	}
	return rec, true, nil
}

// Purge deletes the durable record.
func (c *Controller) Purge() error {
	if err := c.store.Delete(project.Key, project.TimestampKey); err != nil {
		return fmt.Errorf("failed to purge %s: %w", c.store, err)
	}
	return nil
}

// load reads and parses both keys. The returned outcome is one of the
// hydration labels; fresh and stale carry a parsed record.
func (c *Controller) load() (project.CacheRecord, string, error) {
	raw, hasData, err := c.store.Get(project.Key)
	if err != nil {
		return project.CacheRecord{}, outcomeError, err
	}
	ts, hasTS, err := c.store.Get(project.TimestampKey)
	if err != nil {
		return project.CacheRecord{}, outcomeError, err
	}

	if !hasData {
		if hasTS {
			return project.CacheRecord{}, outcomeAbsent, errDangling
		}
		return project.CacheRecord{}, outcomeAbsent, nil
	}
	if !hasTS {
		return project.CacheRecord{}, outcomeCorrupt, fmt.Errorf("%w: missing %s", ErrCorrupt, project.TimestampKey)
	}

	storedAt, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return project.CacheRecord{}, outcomeCorrupt, fmt.Errorf("%w: %s: %w", ErrCorrupt, project.TimestampKey, err)
	}

	var data []project.Project
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return project.CacheRecord{}, outcomeCorrupt, fmt.Errorf("%w: %s: %w", ErrCorrupt, project.Key, err)
	}
	if data == nil {
		return project.CacheRecord{}, outcomeCorrupt, fmt.Errorf("%w: %s is not an array", ErrCorrupt, project.Key)
	}

	rec := project.CacheRecord{Key: project.Key, Data: data, StoredAt: storedAt}
	if !rec.Fresh(c.now(), c.ttl) {
		return rec, outcomeStale, nil
	}
	return rec, outcomeFresh, nil
}

func (c *Controller) discard() {
	if err := c.store.Delete(project.Key, project.TimestampKey); err != nil {
		log.WithError(err).Warnf("failed to delete cached %s", project.Key)
	}
}

func (c *Controller) writeFailed(err error) {
	c.metrics.IncrementPersistFailures()
	log.WithError(err).Warnf("failed to persist %s to %s", project.Key, c.store)
}
