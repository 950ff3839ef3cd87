// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router tests verify the HTTP routing configuration, middleware
// chains, and the health endpoint.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubhouse/internal/auth"
	"clubhouse/internal/content"
	"clubhouse/internal/handlers"
	"clubhouse/internal/metrics"
	"clubhouse/internal/middleware"
	"clubhouse/internal/models"
	"clubhouse/internal/render"
	"clubhouse/internal/store"
)

// fixedSessions restores every request to the same session.
type fixedSessions struct{ sess auth.Session }

func (f *fixedSessions) Restore(context.Context, string) auth.Session { return f.sess }

type profiles map[uuid.UUID]*models.Profile

func (p profiles) FindByID(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	if pr, ok := p[id]; ok {
		return pr, nil
	}
	return nil, store.ErrNotFound
}

type noSettings struct{}

func (noSettings) Grouped(context.Context) ([]models.SettingGroup, error) { return nil, nil }
func (noSettings) SetMany(context.Context, map[string]string) error       { return nil }
func (noSettings) All(context.Context) (models.SiteSettings, error) {
	return models.SiteSettings{}, nil
}

type noFeatures struct{}

func (noFeatures) Enabled(context.Context, string) (bool, error) { return false, nil }

type noPolls struct{}

func (noPolls) Results(context.Context, uuid.UUID) (*models.PollResults, error) {
	return nil, store.ErrNotFound
}
func (noPolls) LatestOpen(context.Context) (uuid.UUID, error) { return uuid.Nil, store.ErrNotFound }
func (noPolls) Vote(context.Context, uuid.UUID, uuid.UUID, string) error {
	return store.ErrNotFound
}

type noAccounts struct{}

func (noAccounts) List(context.Context) ([]models.Profile, error)             { return nil, nil }
func (noAccounts) SetApproval(context.Context, uuid.UUID, bool) error         { return nil }
func (noAccounts) SetRole(context.Context, uuid.UUID, models.Role) error      { return nil }
func (noAccounts) Delete(context.Context, uuid.UUID) error                    { return nil }
func (noAccounts) ProfileChanged(context.Context, uuid.UUID, auth.ChangeKind) {}

type refusingController struct{}

func (refusingController) SignIn(context.Context, string, string) (string, auth.Session, error) {
	return "", auth.Anonymous(), errors.New("invalid credentials")
}
func (refusingController) SignUp(context.Context, string, string, string) error { return nil }
func (refusingController) SignOut(context.Context, string) auth.Session         { return auth.Anonymous() }

type noJar struct{}

func (noJar) SetCookie(http.ResponseWriter, string) {}
func (noJar) ClearCookie(http.ResponseWriter)       {}

type harness struct {
	handler  http.Handler
	sessions *fixedSessions
	profiles profiles
}

func newHarness(t *testing.T, limiter *middleware.RateLimiter, trusted ...netip.Prefix) *harness {
	t.Helper()
	rn, err := render.New(false, "Test FC")
	require.NoError(t, err)

	h := &harness{sessions: &fixedSessions{sess: auth.Anonymous()}, profiles: profiles{}}
	svc := content.NewService(nil, h.profiles)
	m := metrics.New()

	h.handler = New(Deps{
		Sessions:     h.sessions,
		Gate:         middleware.NewGate(rn, m),
		Renderer:     rn,
		Auth:         handlers.NewAuth(rn, refusingController{}, nil, noJar{}),
		Admin:        handlers.NewAdmin(rn, svc, nil, nil, nil),
		Users:        handlers.NewUsers(rn, svc, noAccounts{}, noAccounts{}, noAccounts{}),
		Settings:     handlers.NewSettings(rn, svc, noSettings{}, svc),
		Public:       handlers.NewPublic(rn, svc, noSettings{}, noFeatures{}, noPolls{}, nil),
		AuthLimit:    limiter,
		Metrics:      m,
		ServeMetrics: true,
		Static:       fstest.MapFS{"css/site.css": {Data: []byte("body{}")}},

		TrustedProxies: trusted,
	})
	return h
}

func (h *harness) signIn(role models.Role, approved bool) {
	p := &models.Profile{ID: uuid.New(), Email: "someone@example.com", Role: role, IsApproved: approved}
	h.profiles[p.ID] = p
	h.sessions.sess = auth.Authenticated(auth.Principal{ID: p.ID, Email: p.Email}, p)
}

func (h *harness) get(path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthHandler(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/health", nil)

	healthHandler(w, r)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}

	ct := resp.Header.Get("Content-Type")
	if ct != "application/json" {
		t.Errorf("content-type: got %q, want %q", ct, "application/json")
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field: got %q, want %q", body["status"], "ok")
	}
}

func TestAdminGuard(t *testing.T) {
	tests := []struct {
		name     string
		sign     func(h *harness)
		path     string
		want     int
		location string
	}{
		{"anonymous redirected", func(*harness) {}, "/admin/news", http.StatusSeeOther, "/auth?next=%2Fadmin%2Fnews"},
		{"loading", func(h *harness) { h.sessions.sess = auth.LoadingSession() }, "/admin/news", http.StatusServiceUnavailable, ""},
		{"pending", func(h *harness) { h.signIn(models.RoleAdmin, false) }, "/admin/news", http.StatusForbidden, ""},
		{"moderator section", func(h *harness) { h.signIn(models.RoleModerator, true) }, "/admin/news", http.StatusOK, ""},
		{"moderator on staff", func(h *harness) { h.signIn(models.RoleModerator, true) }, "/admin/staff", http.StatusForbidden, ""},
		{"moderator on users", func(h *harness) { h.signIn(models.RoleModerator, true) }, "/admin/users", http.StatusForbidden, ""},
		{"moderator on settings table", func(h *harness) { h.signIn(models.RoleModerator, true) }, "/admin/settings/site_settings", http.StatusForbidden, ""},
		{"admin on staff", func(h *harness) { h.signIn(models.RoleAdmin, true) }, "/admin/staff", http.StatusOK, ""},
		{"admin on settings", func(h *harness) { h.signIn(models.RoleAdmin, true) }, "/admin/settings", http.StatusOK, ""},
		{"admin on users", func(h *harness) { h.signIn(models.RoleAdmin, true) }, "/admin/users", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			tt.sign(h)
			rec := h.get(tt.path)
			assert.Equal(t, tt.want, rec.Code)
			if tt.location != "" {
				assert.Equal(t, tt.location, rec.Header().Get("Location"))
			}
		})
	}
}

func TestAccountPage(t *testing.T) {
	tests := []struct {
		name string
		sign func(h *harness)
		want int
		text string
	}{
		{"anonymous redirected", func(*harness) {}, http.StatusSeeOther, ""},
		{"loading", func(h *harness) { h.sessions.sess = auth.LoadingSession() }, http.StatusServiceUnavailable, ""},
		{"pending sees status", func(h *harness) { h.signIn(models.RoleAdmin, false) }, http.StatusOK, "waiting for an administrator"},
		{"moderator", func(h *harness) { h.signIn(models.RoleModerator, true) }, http.StatusOK, "sections of the"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			tt.sign(h)
			rec := h.get("/account")
			assert.Equal(t, tt.want, rec.Code)
			if tt.text != "" {
				assert.Contains(t, rec.Body.String(), tt.text)
				assert.Contains(t, rec.Body.String(), "someone@example.com")
			}
		})
	}
}

func TestLoadingSetsRetryAfter(t *testing.T) {
	h := newHarness(t, nil)
	h.sessions.sess = auth.LoadingSession()

	rec := h.get("/admin")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestNotFound(t *testing.T) {
	h := newHarness(t, nil)
	assert.Equal(t, http.StatusNotFound, h.get("/no/such/page").Code)
	assert.Equal(t, http.StatusNotFound, h.get("/gallery").Code, "gallery toggle off")
}

func TestStaticAndMetrics(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.get("/static/css/site.css")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "body{}", rec.Body.String())

	h.get("/admin")
	rec = h.get("/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "guard_outcomes_total")
}

func TestPostsRequireCSRF(t *testing.T) {
	h := newHarness(t, nil)

	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/sign-out", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	limiter, err := middleware.NewRateLimiter(client, "auth", 1, time.Minute)
	require.NoError(t, err)
	h := newHarness(t, limiter)

	assert.Equal(t, http.StatusUnauthorized, postSignIn(h, "192.0.2.7:1234", ""))
	assert.Equal(t, http.StatusTooManyRequests, postSignIn(h, "192.0.2.7:1234", ""))
}

func TestAuthRateLimitIgnoresSpoofedForwarding(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	limiter, err := middleware.NewRateLimiter(client, "auth", 1, time.Minute)
	require.NoError(t, err)
	h := newHarness(t, limiter, netip.MustParsePrefix("10.0.0.0/8"))

	assert.Equal(t, http.StatusUnauthorized, postSignIn(h, "203.0.113.5:1234", "198.51.100.1"))
	assert.Equal(t, http.StatusTooManyRequests, postSignIn(h, "203.0.113.5:1234", "198.51.100.2"))
	assert.Equal(t, http.StatusTooManyRequests, postSignIn(h, "203.0.113.5:1234", "198.51.100.3"))

	// Behind our own proxy the forwarded address is the client.
	assert.Equal(t, http.StatusUnauthorized, postSignIn(h, "10.0.0.2:1234", "198.51.100.4"))
	assert.Equal(t, http.StatusTooManyRequests, postSignIn(h, "10.0.0.2:1234", "198.51.100.4"))
}

func postSignIn(h *harness, remoteAddr, forwardedFor string) int {
	form := url.Values{"email": {"a@example.com"}, "password": {"pw"}, "csrf_token": {"tok"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/sign-in", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: middleware.CSRFCookieName, Value: "tok"})
	req.RemoteAddr = remoteAddr
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec.Code
}
