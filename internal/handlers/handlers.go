// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the club site and its
// admin area. Handlers are grouped by concern (auth, admin, users,
// settings, public) and receive their dependencies through the handler
// struct.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"clubhouse/internal/auth"
	"clubhouse/internal/content"
	"clubhouse/internal/guard"
	"clubhouse/internal/middleware"
	"clubhouse/internal/render"
)

// defaultAfterSignIn is where a sign-in without a usable next lands.
const defaultAfterSignIn = "/admin"

// actor returns the id of whoever is signed in, or uuid.Nil.
func actor(r *http.Request) uuid.UUID {
	return auth.FromContext(r.Context()).UserID()
}

// idParam parses the {id} route parameter.
func idParam(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

// pageParam parses ?page=, defaulting to 1.
func pageParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// paginate fills the paging keys templates read. rows holds up to
// perPage+1 rows; the extra one only signals that a next page exists.
func paginate[T any](data map[string]any, rows []T, page, perPage int) []T {
	hasNext := len(rows) > perPage
	if hasNext {
		rows = rows[:perPage]
	}
	data["Page"] = page
	data["PrevPage"] = page - 1
	data["NextPage"] = page + 1
	data["HasNext"] = hasNext
	return rows
}

// nextTarget returns next when it is a safe local path.
func nextTarget(next string) string {
	if guard.SafeNext(next) {
		return next
	}
	return defaultAfterSignIn
}

// redirectWithFlash queues a flash and redirects.
func redirectWithFlash(w http.ResponseWriter, r *http.Request, url, typ, msg string) {
	render.SetFlash(w, render.Flash{Type: typ, Message: msg})
	middleware.Redirect(w, r, url)
}

// serverError logs err and sends a bare 500.
func serverError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// forbidden reports whether err is an authorization refusal from the
// content service and, if so, renders the forbidden notice.
func forbidden(rn *render.Renderer, w http.ResponseWriter, r *http.Request, err error) bool {
	if !errors.Is(err, content.ErrForbidden) {
		return false
	}
	rn.Notice(w, r, http.StatusForbidden, guard.ShowForbidden)
	return true
}

// mutationFeedback turns a failed write into a flash message and the
// per-field messages to show beside the inputs.
func mutationFeedback(err error) (string, map[string]string) {
	var merr *content.MutationError
	if errors.As(err, &merr) {
		fields := merr.Fields()
		if fields == nil {
			fields = map[string]string{}
		}
		return merr.Message(), fields
	}
	return "The change could not be saved. Please try again.", map[string]string{}
}
