// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"clubhouse/internal/authz"
	"clubhouse/internal/guard"
	"clubhouse/internal/models"
	"clubhouse/internal/render"
)

const (
	settingsPath = "/admin/settings"
	// maxSettingLen bounds a single setting value.
	maxSettingLen = 2000
)

// SettingsStore reads and writes site settings.
type SettingsStore interface {
	Grouped(ctx context.Context) ([]models.SettingGroup, error)
	SetMany(ctx context.Context, settings map[string]string) error
}

// Invalidator drops the cached reads of a table after a write made
// outside the content service.
type Invalidator interface {
	Invalidate(ctx context.Context, name string, id uuid.UUID, action string)
}

// Settings groups the site settings page handlers.
type Settings struct {
	renderer *render.Renderer
	authz    Authorizer
	settings SettingsStore
	cache    Invalidator
}

// NewSettings creates a new Settings handler group.
func NewSettings(renderer *render.Renderer, authorizer Authorizer, settings SettingsStore, cache Invalidator) *Settings {
	return &Settings{
		renderer: renderer,
		authz:    authorizer,
		settings: settings,
		cache:    cache,
	}
}

// Page renders every setting grouped by category.
func (s *Settings) Page(w http.ResponseWriter, r *http.Request) {
	groups, err := s.settings.Grouped(r.Context())
	if err != nil {
		serverError(w, "load settings failed", err)
		return
	}
	s.renderer.Page(w, r, "admin/settings", &render.PageData{
		Title:   "Settings",
		Section: authz.SectionSettings,
		Data:    map[string]any{"Groups": groups},
	})
}

// Save writes the submitted values of existing settings. Unknown keys in
// the form are ignored; new settings are created from the table screen.
func (s *Settings) Save(w http.ResponseWriter, r *http.Request) {
	if _, err := s.authz.Authorize(r.Context(), actor(r), authz.SectionSettings); err != nil {
		s.renderer.Notice(w, r, http.StatusForbidden, guard.ShowForbidden)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	groups, err := s.settings.Grouped(r.Context())
	if err != nil {
		serverError(w, "load settings failed", err)
		return
	}

	changes := make(map[string]string)
	for _, g := range groups {
		for _, st := range g.Settings {
			vals, ok := r.PostForm[st.Key]
			if !ok || len(vals) == 0 {
				continue
			}
			v := strings.TrimSpace(vals[0])
			if len(v) > maxSettingLen {
				redirectWithFlash(w, r, settingsPath, "error", st.Key+" is too long.")
				return
			}
			if v != st.Value {
				changes[st.Key] = v
			}
		}
	}
	if len(changes) == 0 {
		redirectWithFlash(w, r, settingsPath, "info", "Nothing to save.")
		return
	}

	if err := s.settings.SetMany(r.Context(), changes); err != nil {
		slog.Error("save settings failed", "error", err)
		redirectWithFlash(w, r, settingsPath, "error", "Settings could not be saved. Please try again.")
		return
	}
	s.cache.Invalidate(r.Context(), "site_settings", uuid.Nil, "update")
	redirectWithFlash(w, r, settingsPath, "success", "Settings saved.")
}
