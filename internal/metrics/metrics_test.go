// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("GET", "/", "200", 0.1)
	m.SignIn("ok")
	m.SessionChange("signed_in")
	m.GuardOutcome("render")
	m.ProfileFetchFailed()
	m.CacheHit("profile")
	m.CacheMiss("profile")
	m.CacheInvalidated("query")
	m.Mutation("news", "create", "ok")
	m.Housekept("polls", 2)
}

func TestCounters(t *testing.T) {
	m := New()

	m.SignIn("ok")
	m.SignIn("ok")
	m.SignIn("invalid_credentials")
	if got := testutil.ToFloat64(m.SignInsTotal.WithLabelValues("ok")); got != 2 {
		t.Errorf("sign-ins ok = %v, want 2", got)
	}

	m.ProfileFetchFailed()
	if got := testutil.ToFloat64(m.ProfileFetchFailures); got != 1 {
		t.Errorf("profile fetch failures = %v, want 1", got)
	}

	m.GuardOutcome("redirect")
	if got := testutil.ToFloat64(m.GuardOutcomesTotal.WithLabelValues("redirect")); got != 1 {
		t.Errorf("guard redirect = %v, want 1", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveRequest("GET", "/news", "200", 0.02)
	m.Mutation("news", "update", "forbidden")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{
		"clubhouse_http_requests_total",
		"clubhouse_content_mutations_total",
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
