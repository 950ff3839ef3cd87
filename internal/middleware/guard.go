// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"

	"clubhouse/internal/auth"
	"clubhouse/internal/authz"
	"clubhouse/internal/guard"
	"clubhouse/internal/metrics"
)

// retryAfterSeconds is how long the loading interstitial asks the
// browser to wait before reloading.
const retryAfterSeconds = "2"

// Notices renders the pages the guard shows instead of the requested one.
type Notices interface {
	Notice(w http.ResponseWriter, r *http.Request, status int, outcome guard.Outcome)
}

// Gate turns route guard outcomes into HTTP responses.
type Gate struct {
	notices Notices
	metrics *metrics.Metrics
}

// NewGate creates a Gate. m may be nil.
func NewGate(n Notices, m *metrics.Metrics) *Gate {
	return &Gate{notices: n, metrics: m}
}

// Require guards every route below it at the given level. Must be
// applied after LoadSession.
func (g *Gate) Require(req guard.Requirement) func(http.Handler) http.Handler {
	return g.guard(func(sess auth.Session) guard.Outcome {
		return guard.Decide(sess, req)
	})
}

// RequireSection guards an admin section using its allowed roles.
func (g *Gate) RequireSection(key authz.SectionKey) func(http.Handler) http.Handler {
	return g.guard(func(sess auth.Session) guard.Outcome {
		return guard.DecideSection(sess, key)
	})
}

func (g *Gate) guard(decide func(auth.Session) guard.Outcome) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			outcome := decide(auth.FromContext(r.Context()))
			g.metrics.GuardOutcome(outcome.String())

			switch outcome {
			case guard.Render:
				next.ServeHTTP(w, r)
			case guard.ShowLoading:
				w.Header().Set("Retry-After", retryAfterSeconds)
				w.Header().Set("Cache-Control", "no-store")
				g.notices.Notice(w, r, http.StatusServiceUnavailable, outcome)
			case guard.Redirect:
				Redirect(w, r, guard.SignInURL(r.URL.RequestURI()))
			default:
				w.Header().Set("Cache-Control", "no-store")
				g.notices.Notice(w, r, http.StatusForbidden, outcome)
			}
		})
	}
}

// Redirect sends the browser to url with 303 See Other. HTMX requests get
// an HX-Redirect header instead so the whole page navigates.
func Redirect(w http.ResponseWriter, r *http.Request, url string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", url)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}
