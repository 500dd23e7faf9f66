// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package projects

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/showcase/internal/cache"
	"github.com/staranto/showcase/internal/contentful"
	"github.com/staranto/showcase/internal/project"
)

var errRemote = errors.New("remote down")

type fakeSource struct {
	calls       atomic.Int32
	contentType atomic.Value
	gate        chan struct{}
	err         error
	entries     []contentful.Entry
}

func (f *fakeSource) Entries(_ context.Context, ct string) ([]contentful.Entry, error) {
	f.calls.Add(1)
	f.contentType.Store(ct)
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.entries, nil
}

func entries(titles ...string) []contentful.Entry {
	out := make([]contentful.Entry, 0, len(titles))
	for i, title := range titles {
		out = append(out, contentful.Entry{
			Sys:    contentful.Sys{ID: string(rune('a' + i))},
			Fields: contentful.Fields{Title: title, URL: "https://example.com/" + title},
		})
	}
	return out
}

func newService(src Source, opts ...cache.Option) (*Service, *cache.Cache) {
	qc := cache.New(append([]cache.Option{cache.WithRetryDelay(0)}, opts...)...)
	return New(qc, src), qc
}

func TestProjects_LoadingThenData(t *testing.T) {
	src := &fakeSource{gate: make(chan struct{}), entries: entries("one", "two")}
	svc, _ := newService(src)

	r := svc.Projects(context.Background())
	assert.True(t, r.Loading)
	assert.True(t, r.Fetching)
	assert.NotNil(t, r.Projects)
	assert.Empty(t, r.Projects)

	close(src.gate)
	require.Eventually(t, func() bool {
		return !svc.Projects(context.Background()).Loading
	}, time.Second, time.Millisecond)

	r = svc.Projects(context.Background())
	assert.NoError(t, r.Err)
	require.Len(t, r.Projects, 2)
	assert.Equal(t, "one", r.Projects[0].Title)
	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, project.ContentType, src.contentType.Load())
}

func TestProjects_Deduplicates(t *testing.T) {
	src := &fakeSource{gate: make(chan struct{}), entries: entries("one")}
	svc, _ := newService(src)

	svc.Projects(context.Background())
	svc.Projects(context.Background())

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Wait(context.Background())
		}()
	}

	require.Eventually(t, func() bool { return src.calls.Load() >= 1 }, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(src.gate)
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
}

func TestProjects_StaleServedWhileRefreshing(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	src := &fakeSource{gate: make(chan struct{}), entries: entries("new")}
	svc, qc := newService(src, cache.WithClock(func() time.Time { return now }))

	qc.SetData(project.Key, []project.Project{{ID: "x", Title: "old"}}, now.Add(-project.TTL))

	r := svc.Projects(context.Background())
	assert.False(t, r.Loading)
	assert.True(t, r.Fetching)
	require.Len(t, r.Projects, 1)
	assert.Equal(t, "old", r.Projects[0].Title)

	close(src.gate)
	require.Eventually(t, func() bool {
		r := svc.Projects(context.Background())
		return len(r.Projects) == 1 && r.Projects[0].Title == "new"
	}, time.Second, time.Millisecond)
}

func TestWait_FreshDataSkipsFetch(t *testing.T) {
	src := &fakeSource{entries: entries("remote")}
	svc, qc := newService(src)
	qc.SetData(project.Key, []project.Project{{ID: "x", Title: "cached"}}, time.Now())

	r := svc.Wait(context.Background())
	require.Len(t, r.Projects, 1)
	assert.Equal(t, "cached", r.Projects[0].Title)
	assert.Zero(t, src.calls.Load())
}

func TestWait_FailureKeepsLastData(t *testing.T) {
	src := &fakeSource{err: errRemote}
	svc, qc := newService(src)

	r := svc.Wait(context.Background())
	assert.False(t, r.Loading)
	assert.ErrorIs(t, r.Err, errRemote)
	assert.NotNil(t, r.Projects)
	assert.Empty(t, r.Projects)
	assert.Equal(t, int32(2), src.calls.Load(), "one retry")

	qc.SetData(project.Key, []project.Project{{ID: "x", Title: "kept"}}, time.Now().Add(-time.Hour))
	r = svc.Wait(context.Background())
	assert.ErrorIs(t, r.Err, errRemote)
	require.Len(t, r.Projects, 1)
	assert.Equal(t, "kept", r.Projects[0].Title)
}

func TestRefresh_IgnoresFreshness(t *testing.T) {
	src := &fakeSource{entries: entries("remote")}
	svc, qc := newService(src)
	qc.SetData(project.Key, []project.Project{{ID: "x", Title: "cached"}}, time.Now())

	r := svc.Refresh(context.Background())
	require.NoError(t, r.Err)
	require.Len(t, r.Projects, 1)
	assert.Equal(t, "remote", r.Projects[0].Title)
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestRefresh_MalformedResponseKeepsLastData(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	}))
	defer srv.Close()

	client, err := contentful.NewClient(contentful.Config{
		BaseURL:   srv.URL,
		SpaceID:   "space1",
		Token:     "secret",
		RateLimit: 1000,
		Burst:     1000,
	})
	require.NoError(t, err)

	svc, qc := newService(client)
	stored := time.Now().Add(-time.Hour)
	qc.SetData(project.Key, []project.Project{{ID: "x", Title: "kept"}}, stored)

	r := svc.Refresh(context.Background())
	assert.ErrorIs(t, r.Err, contentful.ErrMalformedResponse)
	require.Len(t, r.Projects, 1)
	assert.Equal(t, "kept", r.Projects[0].Title)
	assert.Equal(t, int32(2), hits.Load(), "one attempt plus one retry")

	s, ok := qc.Get(project.Key)
	require.True(t, ok)
	assert.ErrorIs(t, s.Err, contentful.ErrMalformedResponse)
	assert.True(t, s.UpdatedAt.Equal(stored))
}

func TestResult_ProjectsAreCopies(t *testing.T) {
	src := &fakeSource{entries: entries("one")}
	svc, _ := newService(src)

	r := svc.Wait(context.Background())
	r.Projects[0].Title = "mutated"

	assert.Equal(t, "one", svc.Wait(context.Background()).Projects[0].Title)
}

func TestSubscribe(t *testing.T) {
	src := &fakeSource{entries: entries("one")}
	svc, qc := newService(src)

	var mu sync.Mutex
	var seen []Result
	unsubscribe := svc.Subscribe(func(r Result) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, r)
	})

	qc.SetData("other", 1, time.Now())
	svc.Wait(context.Background())
	unsubscribe()
	svc.Refresh(context.Background())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 2)
	assert.True(t, seen[0].Loading)
	assert.True(t, seen[0].Fetching)
	assert.False(t, seen[1].Loading)
	assert.Len(t, seen[1].Projects, 1)
}

func TestWithContentType(t *testing.T) {
	src := &fakeSource{entries: entries("one")}
	svc := New(cache.New(), src, WithContentType("caseStudy"))
	svc.Wait(context.Background())
	assert.Equal(t, "caseStudy", src.contentType.Load())
}
