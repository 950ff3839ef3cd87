// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"clubhouse/internal/auth"
	"clubhouse/internal/authz"
	"clubhouse/internal/guard"
	"clubhouse/internal/identity"
	"clubhouse/internal/models"
	"clubhouse/internal/render"
	"clubhouse/internal/store"
)

const usersPath = "/admin/users"

// ProfileAdmin reads and changes profiles for user management.
type ProfileAdmin interface {
	List(ctx context.Context) ([]models.Profile, error)
	SetApproval(ctx context.Context, id uuid.UUID, approved bool) error
	SetRole(ctx context.Context, id uuid.UUID, role models.Role) error
}

// IdentityRemover deletes an identity; its profile goes with it.
type IdentityRemover interface {
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProfileNotifier republishes a profile change to session subscribers.
type ProfileNotifier interface {
	ProfileChanged(ctx context.Context, id uuid.UUID, kind auth.ChangeKind)
}

// Authorizer reloads the acting profile and checks it against a section.
type Authorizer interface {
	Authorize(ctx context.Context, actor uuid.UUID, section authz.SectionKey) (*models.Profile, error)
}

// Users groups the account approval and role management handlers.
type Users struct {
	renderer   *render.Renderer
	authz      Authorizer
	profiles   ProfileAdmin
	identities IdentityRemover
	notify     ProfileNotifier
}

// NewUsers creates a new Users handler group.
func NewUsers(renderer *render.Renderer, authorizer Authorizer, profiles ProfileAdmin, identities IdentityRemover, notify ProfileNotifier) *Users {
	return &Users{
		renderer:   renderer,
		authz:      authorizer,
		profiles:   profiles,
		identities: identities,
		notify:     notify,
	}
}

// Mount registers the user management routes. The caller guards the group.
func (u *Users) Mount(r chi.Router) {
	r.Get("/", u.List)
	r.Post("/{id}/approve", u.setApproval(true))
	r.Post("/{id}/unapprove", u.setApproval(false))
	r.Post("/{id}/role", u.SetRole)
	r.Post("/{id}/delete", u.Delete)
}

// List renders every profile, pending ones first.
func (u *Users) List(w http.ResponseWriter, r *http.Request) {
	profiles, err := u.profiles.List(r.Context())
	if err != nil {
		serverError(w, "list profiles failed", err)
		return
	}
	u.renderer.Page(w, r, "admin/users", &render.PageData{
		Title:   "Users",
		Section: authz.SectionUsers,
		Data: map[string]any{
			"Profiles": profiles,
			"Self":     actor(r),
		},
	})
}

func (u *Users) setApproval(approved bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target, ok := u.target(w, r)
		if !ok {
			return
		}
		if err := u.profiles.SetApproval(r.Context(), target, approved); err != nil {
			u.failed(w, r, "set approval", target, err)
			return
		}
		u.notify.ProfileChanged(r.Context(), target, auth.ChangeProfileUpdated)
		msg := "Account approved."
		if !approved {
			msg = "Approval revoked."
		}
		redirectWithFlash(w, r, usersPath, "success", msg)
	}
}

// SetRole changes a profile's role. Only admin and moderator are accepted.
func (u *Users) SetRole(w http.ResponseWriter, r *http.Request) {
	target, ok := u.target(w, r)
	if !ok {
		return
	}
	role, valid := models.Role(r.PostFormValue("role")).Normalize()
	if !valid || r.PostFormValue("role") == "" {
		redirectWithFlash(w, r, usersPath, "error", "Unknown role.")
		return
	}
	if err := u.profiles.SetRole(r.Context(), target, role); err != nil {
		u.failed(w, r, "set role", target, err)
		return
	}
	u.notify.ProfileChanged(r.Context(), target, auth.ChangeProfileUpdated)
	redirectWithFlash(w, r, usersPath, "success", "Role changed to "+role.Label()+".")
}

// Delete removes an account entirely.
func (u *Users) Delete(w http.ResponseWriter, r *http.Request) {
	target, ok := u.target(w, r)
	if !ok {
		return
	}
	if err := u.identities.Delete(r.Context(), target); err != nil {
		u.failed(w, r, "delete account", target, err)
		return
	}
	u.notify.ProfileChanged(r.Context(), target, auth.ChangeProfileDeleted)
	redirectWithFlash(w, r, usersPath, "success", "Account deleted.")
}

// target parses {id}, re-checks that the actor may still manage users,
// and refuses changes to the actor's own account so an admin cannot lock
// themselves out.
func (u *Users) target(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := idParam(r)
	if !ok {
		u.renderer.NotFound(w, r)
		return uuid.Nil, false
	}
	self := actor(r)
	if _, err := u.authz.Authorize(r.Context(), self, authz.SectionUsers); err != nil {
		u.renderer.Notice(w, r, http.StatusForbidden, guard.ShowForbidden)
		return uuid.Nil, false
	}
	if id == self {
		redirectWithFlash(w, r, usersPath, "error", "You cannot change your own account.")
		return uuid.Nil, false
	}
	return id, true
}

func (u *Users) failed(w http.ResponseWriter, r *http.Request, op string, target uuid.UUID, err error) {
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, identity.ErrNotFound) {
		redirectWithFlash(w, r, usersPath, "error", "That account no longer exists.")
		return
	}
	slog.Error("user management failed", "op", op, "user_id", target, "error", err)
	redirectWithFlash(w, r, usersPath, "error", "The change could not be saved. Please try again.")
}
