// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package projects

import (
	"context"
	"slices"
	"time"

	"github.com/staranto/showcase/internal/cache"
	"github.com/staranto/showcase/internal/contentful"
	"github.com/staranto/showcase/internal/project"
)

// Source returns the raw entries of a content type.
type Source interface {
	Entries(ctx context.Context, contentType string) ([]contentful.Entry, error)
}

// Result is what consumers of the service see. Loading is true only while
// there is no data and no fetch has failed yet. Projects is never nil.
type Result struct {
	Loading   bool
	Fetching  bool
	Projects  []project.Project
	UpdatedAt time.Time
	Err       error
}

// Service is the single entry point the presentation layer reads projects
// through. It is backed by the query cache, so concurrent callers share one
// request and fresh data is served without touching the network.
type Service struct {
	qc          *cache.Cache
	src         Source
	contentType string
}

type Option func(*Service)

// WithContentType overrides project.ContentType.
func WithContentType(ct string) Option {
	return func(s *Service) {
		if ct != "" {
			s.contentType = ct
		}
	}
}

func New(qc *cache.Cache, src Source, opts ...Option) *Service {
	s := &Service{
		qc:          qc,
		src:         src,
		contentType: project.ContentType,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Projects returns the current projects without blocking. A fetch is started
// in the background when the data is missing or stale.
func (s *Service) Projects(ctx context.Context) Result {
	return toResult(s.qc.Ensure(ctx, project.Key, s.fetch))
}

// Wait returns fresh data immediately, otherwise fetches (or joins the fetch
// in flight) and returns its outcome. A failed fetch resolves to the last
// known data with Err set.
func (s *Service) Wait(ctx context.Context) Result {
	if !s.qc.IsStale(project.Key) {
		st, _ := s.qc.Get(project.Key)
		return toResult(st)
	}
	return s.fetchNow(ctx)
}

// Refresh fetches regardless of freshness.
func (s *Service) Refresh(ctx context.Context) Result {
	return s.fetchNow(ctx)
}

// Subscribe calls fn with the new result after every transition of the
// projects entry.
func (s *Service) Subscribe(fn func(Result)) (unsubscribe func()) {
	return s.qc.Subscribe(func(e cache.Event) {
		if e.Key != project.Key {
			return
		}
		fn(toResult(e.State))
	})
}

func (s *Service) fetchNow(ctx context.Context) Result {
	_, err := s.qc.Fetch(ctx, project.Key, s.fetch)
	st, _ := s.qc.Get(project.Key)
	r := toResult(st)
	if err != nil {
		r.Loading = false
		r.Err = err
	}
	return r
}

func (s *Service) fetch(ctx context.Context) (any, error) {
	entries, err := s.src.Entries(ctx, s.contentType)
	if err != nil {
		return nil, err
	}
	return project.FromEntries(entries), nil
}

func toResult(st cache.State) Result {
	r := Result{
		Loading:   !st.HasData && st.Err == nil,
		Fetching:  st.Fetching,
		Projects:  []project.Project{},
		UpdatedAt: st.UpdatedAt,
		Err:       st.Err,
	}
	if data, ok := cache.Data[[]project.Project](st); ok && data != nil {
		r.Projects = slices.Clone(data)
	}
	return r
}
