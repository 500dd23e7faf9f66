// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/showcase/internal/metrics"
)

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.UnixMilli(1_700_000_000_000)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recorder collects events delivered to a listener.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) listen(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []EventType
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

var errBoom = errors.New("boom")

func TestFetch_StoresData(t *testing.T) {
	clk := newClock()
	c := New(WithClock(clk.Now))
	rec := &recorder{}
	c.Subscribe(rec.listen)

	v, err := c.Fetch(context.Background(), "k", func(context.Context) (any, error) {
		return []string{"a"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, v)

	s, ok := c.Get("k")
	require.True(t, ok)
	assert.True(t, s.HasData)
	assert.False(t, s.Fetching)
	assert.Equal(t, clk.Now(), s.UpdatedAt)

	got, ok := Data[[]string](s)
	assert.True(t, ok)
	assert.Equal(t, []string{"a"}, got)

	assert.Equal(t, []EventType{EventFetchStarted, EventFetchSucceeded}, rec.types())
}

func TestFetch_RetriesExactlyOnce(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		wantCalls int32
		wantErr   bool
	}{
		{name: "first attempt succeeds", failures: 0, wantCalls: 1},
		{name: "retry succeeds", failures: 1, wantCalls: 2},
		{name: "retry fails", failures: 5, wantCalls: 2, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metrics.New()
			c := New(WithRetryDelay(0), WithMetrics(m))

			var calls atomic.Int32
			_, err := c.Fetch(context.Background(), "k", func(context.Context) (any, error) {
				n := calls.Add(1)
				if int(n) <= tt.failures {
					return nil, errBoom
				}
				return "ok", nil
			})

			assert.Equal(t, tt.wantCalls, calls.Load())
			assert.Equal(t, float64(tt.wantCalls-1), testutil.ToFloat64(m.FetchRetries))
			if tt.wantErr {
				assert.ErrorIs(t, err, errBoom)
				assert.Equal(t, 1.0, testutil.ToFloat64(m.Fetches.WithLabelValues("error")))
			} else {
				assert.NoError(t, err)
				assert.Equal(t, 1.0, testutil.ToFloat64(m.Fetches.WithLabelValues("success")))
			}
		})
	}
}

func TestFetch_RetriesEveryFailureKind(t *testing.T) {
	for _, err := range []error{
		errBoom,
		fmt.Errorf("list entries: %w", errBoom),
		context.DeadlineExceeded,
	} {
		t.Run(err.Error(), func(t *testing.T) {
			c := New(WithRetryDelay(0))

			var calls atomic.Int32
			_, got := c.Fetch(context.Background(), "k", func(context.Context) (any, error) {
				calls.Add(1)
				return nil, err
			})

			assert.ErrorIs(t, got, err)
			assert.Equal(t, int32(2), calls.Load())
		})
	}
}

func TestFetch_FailureKeepsLastData(t *testing.T) {
	clk := newClock()
	c := New(WithRetryDelay(0), WithClock(clk.Now))
	c.SetData("k", "old", clk.Now())

	rec := &recorder{}
	c.Subscribe(rec.listen)

	_, err := c.Fetch(context.Background(), "k", func(context.Context) (any, error) {
		return nil, errBoom
	})
	require.ErrorIs(t, err, errBoom)

	s, _ := c.Get("k")
	assert.Equal(t, "old", s.Data)
	assert.True(t, s.HasData)
	assert.ErrorIs(t, s.Err, errBoom)
	assert.Equal(t, clk.Now(), s.ErrAt)
	assert.Equal(t, []EventType{EventFetchStarted, EventFetchFailed}, rec.types())
}

func TestFetch_Deduplicates(t *testing.T) {
	c := New()

	gate := make(chan struct{})
	var calls atomic.Int32
	fn := func(context.Context) (any, error) {
		calls.Add(1)
		<-gate
		return "v", nil
	}

	var wg sync.WaitGroup
	results := make([]any, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.Fetch(context.Background(), "k", fn)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	// Give the second caller time to join the flight before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, []any{"v", "v"}, results)
}

func TestFetch_CallerCancelDoesNotCancelFlight(t *testing.T) {
	c := New()

	gate := make(chan struct{})
	var sawCancel atomic.Bool
	fn := func(ctx context.Context) (any, error) {
		<-gate
		if ctx.Err() != nil {
			sawCancel.Store(true)
		}
		return "v", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Fetch(ctx, "k", fn)
		done <- err
	}()

	require.Eventually(t, func() bool {
		s, _ := c.Get("k")
		return s.Fetching
	}, time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(gate)
	require.Eventually(t, func() bool {
		s, _ := c.Get("k")
		return s.HasData
	}, time.Second, time.Millisecond)
	assert.False(t, sawCancel.Load())
}

func TestEnsure(t *testing.T) {
	clk := newClock()
	c := New(WithClock(clk.Now), WithStaleTime(time.Minute), WithRetryDelay(0))

	gate := make(chan struct{})
	var calls atomic.Int32
	fn := func(context.Context) (any, error) {
		calls.Add(1)
		<-gate
		return "v", nil
	}

	s := c.Ensure(context.Background(), "k", fn)
	assert.False(t, s.HasData)
	assert.True(t, s.Fetching)

	// A second call while the first is in flight does not start another.
	s = c.Ensure(context.Background(), "k", fn)
	assert.True(t, s.Fetching)

	close(gate)
	require.Eventually(t, func() bool {
		s, _ := c.Get("k")
		return s.HasData && !s.Fetching
	}, time.Second, time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	// Fresh data: no fetch.
	s = c.Ensure(context.Background(), "k", fn)
	assert.False(t, s.Fetching)
	assert.Equal(t, "v", s.Data)

	// Stale data: served immediately while a refresh runs in the background.
	clk.Advance(time.Minute)
	s = c.Ensure(context.Background(), "k", fn)
	assert.True(t, s.HasData)
	assert.True(t, s.Fetching)
	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, time.Millisecond)
}

func TestEnsure_HoldsOffAfterFailure(t *testing.T) {
	clk := newClock()
	c := New(WithClock(clk.Now), WithStaleTime(time.Minute), WithRetryDelay(0))

	var calls atomic.Int32
	fn := func(context.Context) (any, error) {
		calls.Add(1)
		return nil, errBoom
	}

	_, err := c.Fetch(context.Background(), "k", fn)
	require.Error(t, err)
	require.Equal(t, int32(2), calls.Load())

	s := c.Ensure(context.Background(), "k", fn)
	assert.False(t, s.Fetching)
	assert.ErrorIs(t, s.Err, errBoom)

	clk.Advance(time.Minute)
	s = c.Ensure(context.Background(), "k", fn)
	assert.True(t, s.Fetching)
}

func TestIsStale_Boundary(t *testing.T) {
	clk := newClock()
	c := New(WithClock(clk.Now), WithStaleTime(5*time.Minute))

	assert.True(t, c.IsStale("k"))

	c.SetData("k", 1, clk.Now().Add(-5*time.Minute+time.Millisecond))
	assert.False(t, c.IsStale("k"))

	c.SetData("k", 1, clk.Now().Add(-5*time.Minute))
	assert.True(t, c.IsStale("k"))
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	c := New()
	first, second := &recorder{}, &recorder{}
	unsubFirst := c.Subscribe(first.listen)
	c.Subscribe(second.listen)

	c.SetData("k", 1, time.Now())
	unsubFirst()
	c.Remove("k")
	c.Remove("missing")

	assert.Equal(t, []EventType{EventDataSet}, first.types())
	assert.Equal(t, []EventType{EventDataSet, EventRemoved}, second.types())

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestListener_CanReadState(t *testing.T) {
	c := New()
	var seen State
	c.Subscribe(func(e Event) {
		seen, _ = c.Get(e.Key)
	})

	c.SetData("k", "x", time.Now())
	assert.Equal(t, "x", seen.Data)
}

func TestEventType_String(t *testing.T) {
	assert.Equal(t, "fetch-succeeded", EventFetchSucceeded.String())
	assert.Equal(t, "unknown", EventType(0).String())
}
