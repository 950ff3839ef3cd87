// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubhouse/internal/auth"
	"clubhouse/internal/content"
	"clubhouse/internal/models"
	"clubhouse/internal/render"
	"clubhouse/internal/store"
)

func newRenderer(t *testing.T) *render.Renderer {
	t.Helper()
	rn, err := render.New(false, "Test FC")
	require.NoError(t, err)
	return rn
}

// fakeProfiles serves profiles by id for the content service.
type fakeProfiles struct {
	byID map[uuid.UUID]*models.Profile
}

func (f *fakeProfiles) FindByID(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return p, nil
}

// team holds one profile per role and the content service they act on.
type team struct {
	svc      *content.Service
	db       *sql.DB
	mock     sqlmock.Sqlmock
	profiles *fakeProfiles

	admin, moderator, pending *models.Profile
}

func newTeam(t *testing.T) *team {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})

	tm := &team{
		db:        db,
		mock:      mock,
		admin:     &models.Profile{ID: uuid.New(), Email: "admin@example.com", FullName: "Alex Admin", Role: models.RoleAdmin, IsApproved: true},
		moderator: &models.Profile{ID: uuid.New(), Email: "mod@example.com", FullName: "Morgan Mod", Role: models.RoleModerator, IsApproved: true},
		pending:   &models.Profile{ID: uuid.New(), Email: "new@example.com", FullName: "Pat Pending", Role: models.RoleModerator},
	}
	tm.profiles = &fakeProfiles{byID: map[uuid.UUID]*models.Profile{
		tm.admin.ID:     tm.admin,
		tm.moderator.ID: tm.moderator,
		tm.pending.ID:   tm.pending,
	}}
	tm.svc = content.NewService(db, tm.profiles)
	return tm
}

// as attaches a signed-in session for p to req.
func as(req *http.Request, p *models.Profile) *http.Request {
	sess := auth.Authenticated(auth.Principal{ID: p.ID, Email: p.Email}, p)
	return req.WithContext(auth.WithSession(req.Context(), sess))
}

func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func body(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	b, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return string(b)
}

// flashOf returns the type and message of the flash the response queued.
func flashOf(rec *httptest.ResponseRecorder) (string, string) {
	for _, c := range rec.Result().Cookies() {
		if c.Name != "ch_flash" || c.MaxAge < 0 {
			continue
		}
		raw, err := url.QueryUnescape(c.Value)
		if err != nil {
			return "", ""
		}
		typ, msg, _ := strings.Cut(raw, "|")
		return typ, msg
	}
	return "", ""
}

// fakeInvalidator records table invalidations.
type fakeInvalidator struct {
	mu     sync.Mutex
	tables []string
}

func (f *fakeInvalidator) Invalidate(_ context.Context, name string, _ uuid.UUID, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables = append(f.tables, name)
}
