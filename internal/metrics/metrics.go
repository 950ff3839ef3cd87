// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package metrics defines the Prometheus collectors exported at /metrics.
// All recording methods are safe to call on a nil *Metrics, which lets
// tests and disabled deployments skip instrumentation entirely.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Auth
	SignInsTotal         *prometheus.CounterVec
	SessionChangesTotal  *prometheus.CounterVec
	GuardOutcomesTotal   *prometheus.CounterVec
	ProfileFetchFailures prometheus.Counter

	// Caches
	CacheHitsTotal    *prometheus.CounterVec
	CacheMissesTotal  *prometheus.CounterVec
	CacheInvalidTotal *prometheus.CounterVec

	// Content
	MutationsTotal *prometheus.CounterVec

	// Jobs
	HousekeepingRowsTotal *prometheus.CounterVec
}

// New creates and registers all collectors on a fresh registry, along
// with the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clubhouse_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "clubhouse_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		SignInsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clubhouse_sign_ins_total",
				Help: "Sign-in attempts by result code",
			},
			[]string{"result"},
		),
		SessionChangesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clubhouse_session_changes_total",
				Help: "Session change events published, by kind",
			},
			[]string{"kind"},
		),
		GuardOutcomesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clubhouse_guard_outcomes_total",
				Help: "Route guard decisions by outcome",
			},
			[]string{"outcome"},
		),
		ProfileFetchFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "clubhouse_profile_fetch_failures_total",
				Help: "Profile loads that failed and were treated as unapproved",
			},
		),
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clubhouse_cache_hits_total",
				Help: "Cache hits by cache name",
			},
			[]string{"cache"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clubhouse_cache_misses_total",
				Help: "Cache misses by cache name",
			},
			[]string{"cache"},
		),
		CacheInvalidTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clubhouse_cache_invalidations_total",
				Help: "Cache invalidations by cache name",
			},
			[]string{"cache"},
		),
		MutationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clubhouse_content_mutations_total",
				Help: "Content mutations by table, operation and result",
			},
			[]string{"table", "op", "result"},
		),
		HousekeepingRowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clubhouse_housekeeping_rows_total",
				Help: "Rows changed by scheduled housekeeping, by task",
			},
			[]string{"task"},
		),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.SignInsTotal,
		m.SessionChangesTotal,
		m.GuardOutcomesTotal,
		m.ProfileFetchFailures,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CacheInvalidTotal,
		m.MutationsTotal,
		m.HousekeepingRowsTotal,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(seconds)
}

// SignIn counts a sign-in attempt. result is "ok" or an auth error code.
func (m *Metrics) SignIn(result string) {
	if m == nil {
		return
	}
	m.SignInsTotal.WithLabelValues(result).Inc()
}

// SessionChange counts a published session change.
func (m *Metrics) SessionChange(kind string) {
	if m == nil {
		return
	}
	m.SessionChangesTotal.WithLabelValues(kind).Inc()
}

// GuardOutcome counts a route guard decision.
func (m *Metrics) GuardOutcome(outcome string) {
	if m == nil {
		return
	}
	m.GuardOutcomesTotal.WithLabelValues(outcome).Inc()
}

// ProfileFetchFailed counts a failed profile load.
func (m *Metrics) ProfileFetchFailed() {
	if m == nil {
		return
	}
	m.ProfileFetchFailures.Inc()
}

// CacheHit counts a hit on the named cache.
func (m *Metrics) CacheHit(cache string) {
	if m == nil {
		return
	}
	m.CacheHitsTotal.WithLabelValues(cache).Inc()
}

// CacheMiss counts a miss on the named cache.
func (m *Metrics) CacheMiss(cache string) {
	if m == nil {
		return
	}
	m.CacheMissesTotal.WithLabelValues(cache).Inc()
}

// CacheInvalidated counts an invalidation of the named cache.
func (m *Metrics) CacheInvalidated(cache string) {
	if m == nil {
		return
	}
	m.CacheInvalidTotal.WithLabelValues(cache).Inc()
}

// Mutation counts a content mutation. result is "ok", "forbidden" or "error".
func (m *Metrics) Mutation(table, op, result string) {
	if m == nil {
		return
	}
	m.MutationsTotal.WithLabelValues(table, op, result).Inc()
}

// Housekept adds n rows changed by a housekeeping task.
func (m *Metrics) Housekept(task string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.HousekeepingRowsTotal.WithLabelValues(task).Add(float64(n))
}
