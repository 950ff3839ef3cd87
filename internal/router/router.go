// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// club site. Routes are organized into the public site, the sign-in pages
// and the admin area, where every section sits behind the route guard.
package router

import (
	"io/fs"
	"net/http"
	"net/netip"
	"strings"

	"github.com/go-chi/chi/v5"

	"clubhouse/internal/authz"
	"clubhouse/internal/guard"
	"clubhouse/internal/handlers"
	"clubhouse/internal/metrics"
	"clubhouse/internal/middleware"
	"clubhouse/internal/render"
)

// Deps holds everything the router wires together.
type Deps struct {
	Sessions middleware.Restorer
	Gate     *middleware.Gate
	Renderer *render.Renderer

	Auth     *handlers.Auth
	Admin    *handlers.Admin
	Users    *handlers.Users
	Settings *handlers.Settings
	Public   *handlers.Public

	// AuthLimit throttles sign-in and sign-up attempts; FormLimit throttles
	// public form posts. Either may be nil.
	AuthLimit *middleware.RateLimiter
	FormLimit *middleware.RateLimiter

	// Metrics records request counts and latencies and may be nil. It is
	// exposed at /metrics when ServeMetrics is set.
	Metrics      *metrics.Metrics
	ServeMetrics bool
	// Static is served at /static/ when set.
	Static fs.FS
	Secure bool
	// TrustedProxies are the peers allowed to report the client address in
	// forwarding headers.
	TrustedProxies []netip.Prefix
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.TrustProxies(d.TrustedProxies))
	r.Use(middleware.Logger(d.Metrics))
	r.Use(middleware.SecureHeaders(d.Secure))

	// No session, no CSRF.
	r.Get("/health", healthHandler)
	if d.Metrics != nil && d.ServeMetrics {
		r.Handle("/metrics", d.Metrics.Handler())
	}
	if d.Static != nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(d.Static)))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.CSRF(d.Secure))
		r.Use(middleware.LoadSession(d.Sessions))

		r.Route("/auth", func(r chi.Router) {
			r.Get("/", d.Auth.Page)
			r.Get("/confirm", d.Auth.Confirm)
			r.Post("/sign-out", d.Auth.SignOut)
			r.Group(func(r chi.Router) {
				r.Use(limit(d.AuthLimit))
				r.Post("/sign-in", d.Auth.SignIn)
				r.Post("/sign-up", d.Auth.SignUp)
			})
		})

		// Pending users may see their own account.
		r.With(d.Gate.Require(guard.RequireAuthenticated)).Get("/account", d.Auth.Account)

		r.Route("/admin", func(r chi.Router) { mountAdmin(r, d) })

		r.Group(func(r chi.Router) {
			r.Use(postsOnly(limit(d.FormLimit)))
			d.Public.Mount(r)
		})

		r.NotFound(d.Renderer.NotFound)
	})

	return r
}

// mountAdmin registers one guarded route group per admin section. The
// guard for a section uses the same allowed roles as its navigation
// entry, so a hidden link is also a refused route.
func mountAdmin(r chi.Router, d Deps) {
	for _, sec := range authz.Sections() {
		guarded := d.Gate.RequireSection(sec.Key)
		switch sec.Key {
		case authz.SectionDashboard:
			r.With(guarded).Get("/", d.Admin.Dashboard)
		case authz.SectionUsers:
			r.Route(subPath(sec), func(r chi.Router) {
				r.Use(guarded)
				d.Users.Mount(r)
			})
		case authz.SectionSettings:
			r.Route(subPath(sec), func(r chi.Router) {
				r.Use(guarded)
				r.Get("/", d.Settings.Page)
				r.Post("/", d.Settings.Save)
				d.Admin.MountTables(r, sec)
			})
		default:
			r.Route(subPath(sec), func(r chi.Router) {
				r.Use(guarded)
				r.Get("/", d.Admin.Section(sec))
				d.Admin.MountTables(r, sec)
			})
		}
	}
}

func subPath(sec authz.Section) string {
	return strings.TrimPrefix(sec.Path, "/admin")
}

// limit returns rl's middleware, or a pass-through when rl is nil.
func limit(rl *middleware.RateLimiter) func(http.Handler) http.Handler {
	if rl == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return rl.Middleware
}

// postsOnly applies mw to POST requests only.
func postsOnly(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		limited := mw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				limited.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
