// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the counters shared by the query cache and the persistence
// controller. Each instance owns its registry so tests can build as many as
// they like.
type Metrics struct {
	Registry *prometheus.Registry

	Fetches           *prometheus.CounterVec
	FetchRetries      prometheus.Counter
	FetchesShared     prometheus.Counter
	Hydrations        *prometheus.CounterVec
	PersistWrites     prometheus.Counter
	PersistFailures   prometheus.Counter
	ProjectsAvailable prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		Fetches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "showcase_fetches_total",
			Help: "Remote fetches completed by the query cache, by result",
		}, []string{"result"}),
		FetchRetries: f.NewCounter(prometheus.CounterOpts{
			Name: "showcase_fetch_retries_total",
			Help: "Automatic retries issued after a failed fetch attempt",
		}),
		FetchesShared: f.NewCounter(prometheus.CounterOpts{
			Name: "showcase_fetches_shared_total",
			Help: "Callers that joined an in-flight fetch instead of issuing their own",
		}),
		Hydrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "showcase_hydrations_total",
			Help: "Startup hydration attempts, by outcome",
		}, []string{"outcome"}),
		PersistWrites: f.NewCounter(prometheus.CounterOpts{
			Name: "showcase_persist_writes_total",
			Help: "Successful durable cache writes",
		}),
		PersistFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "showcase_persist_failures_total",
			Help: "Durable cache writes that failed and were dropped",
		}),
		ProjectsAvailable: f.NewGauge(prometheus.GaugeOpts{
			Name: "showcase_projects_available",
			Help: "Number of projects currently held by the query cache",
		}),
	}
}

func (m *Metrics) IncrementFetch(result string) {
	if m == nil {
		return
	}
	m.Fetches.WithLabelValues(result).Inc()
}

func (m *Metrics) IncrementRetries() {
	if m == nil {
		return
	}
	m.FetchRetries.Inc()
}

func (m *Metrics) IncrementShared() {
	if m == nil {
		return
	}
	m.FetchesShared.Inc()
}

func (m *Metrics) IncrementHydration(outcome string) {
	if m == nil {
		return
	}
	m.Hydrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementPersistWrites() {
	if m == nil {
		return
	}
	m.PersistWrites.Inc()
}

func (m *Metrics) IncrementPersistFailures() {
	if m == nil {
		return
	}
	m.PersistFailures.Inc()
}

func (m *Metrics) SetProjectsAvailable(count int) {
	if m == nil {
		return
	}
	m.ProjectsAvailable.Set(float64(count))
}
