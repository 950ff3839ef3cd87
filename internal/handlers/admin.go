// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"clubhouse/internal/auth"
	"clubhouse/internal/authz"
	"clubhouse/internal/content"
	"clubhouse/internal/models"
	"clubhouse/internal/render"
	"clubhouse/internal/storage"
	"clubhouse/internal/store"
)

const (
	adminPerPage = 25
	// refOptionLimit caps the choices offered by a reference dropdown.
	refOptionLimit = 500
)

// CacheLogReader lists recent cache invalidations for the dashboard.
type CacheLogReader interface {
	RecentEntries(ctx context.Context, limit int) ([]store.CacheLogEntry, error)
}

// PendingCounter counts profiles awaiting approval.
type PendingCounter interface {
	CountPending(ctx context.Context) (int, error)
}

// Admin groups the dashboard and the generic content screens of every
// admin section.
type Admin struct {
	renderer *render.Renderer
	content  *content.Service
	cacheLog CacheLogReader
	pending  PendingCounter
	storage  *storage.Client
}

// NewAdmin creates a new Admin handler group. storageClient may be nil if
// S3 is not configured; photo uploads are then unavailable.
func NewAdmin(renderer *render.Renderer, svc *content.Service, cacheLog CacheLogReader, pending PendingCounter, storageClient *storage.Client) *Admin {
	return &Admin{
		renderer: renderer,
		content:  svc,
		cacheLog: cacheLog,
		pending:  pending,
		storage:  storageClient,
	}
}

// dashboardTile is one count on the dashboard.
type dashboardTile struct {
	Label string
	Value int
	Path  string
}

// tileSpec describes a dashboard count and the section it belongs to.
type tileSpec struct {
	section authz.SectionKey
	label   string
	table   string
	where   map[string]any
	path    string
}

var dashboardTiles = []tileSpec{
	{authz.SectionNews, "News articles", "news", nil, "/admin/news/news"},
	{authz.SectionFixtures, "Fixtures", "fixtures", nil, "/admin/fixtures/fixtures"},
	{authz.SectionPlayers, "Players", "players", map[string]any{"is_active": true}, "/admin/players/players"},
	{authz.SectionEvents, "Events", "events", nil, "/admin/events/events"},
	{authz.SectionComments, "Comments to review", "comments", map[string]any{"is_approved": false}, "/admin/comments/comments"},
	{authz.SectionInbox, "Unread messages", "contact_submissions", map[string]any{"is_read": false}, "/admin/inbox/contact_submissions"},
	{authz.SectionInbox, "New membership enquiries", "join_submissions", map[string]any{"status": "new"}, "/admin/inbox/join_submissions"},
}

// Dashboard renders the counts of every section the session may use,
// fetched concurrently. Tiles follow sidebar order.
func (a *Admin) Dashboard(w http.ResponseWriter, r *http.Request) {
	sess := auth.FromContext(r.Context())

	var specs []tileSpec
	for _, key := range sess.Capabilities().Keys() {
		for _, spec := range dashboardTiles {
			if spec.section == key {
				specs = append(specs, spec)
			}
		}
	}
	tiles := make([]dashboardTile, len(specs))
	var pendingUsers int
	var entries []store.CacheLogEntry

	g, ctx := errgroup.WithContext(r.Context())
	for i, spec := range specs {
		g.Go(func() error {
			n, err := a.content.Count(ctx, spec.table, content.Filter{Where: spec.where})
			if err != nil {
				return err
			}
			tiles[i] = dashboardTile{Label: spec.label, Value: n, Path: spec.path}
			return nil
		})
	}
	if sess.Can(authz.SectionUsers) {
		if a.pending != nil {
			g.Go(func() error {
				n, err := a.pending.CountPending(ctx)
				pendingUsers = n
				return err
			})
		}
		if a.cacheLog != nil {
			g.Go(func() error {
				var err error
				entries, err = a.cacheLog.RecentEntries(ctx, 10)
				return err
			})
		}
	}

	var flashes []render.Flash
	if err := g.Wait(); err != nil {
		slog.Error("dashboard counts failed", "error", err)
		flashes = append(flashes, render.Flash{Type: "warning", Message: "Some figures could not be loaded."})
	}
	if sess.Can(authz.SectionUsers) && a.pending != nil {
		tiles = append(tiles, dashboardTile{Label: "Accounts awaiting approval", Value: pendingUsers, Path: "/admin/users"})
	}

	a.renderer.Page(w, r, "admin/dashboard", &render.PageData{
		Title:   "Dashboard",
		Section: authz.SectionDashboard,
		Flashes: flashes,
		Data: map[string]any{
			"Counts":   tiles,
			"CacheLog": entries,
		},
	})
}

// Section renders the index of a section: links to each of its tables.
func (a *Admin) Section(sec authz.Section) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.renderer.Page(w, r, "admin/section", &render.PageData{
			Title:   sec.Name,
			Section: sec.Key,
			Data: map[string]any{
				"Tables": content.ForSection(sec.Key),
				"Base":   sec.Path,
			},
		})
	}
}

// MountTables registers the list, create, edit and delete screens for
// every table of sec. The caller guards the group.
func (a *Admin) MountTables(r chi.Router, sec authz.Section) {
	r.Get("/{table}", a.list(sec))
	r.Get("/{table}/new", a.newForm(sec))
	r.Post("/{table}", a.create(sec))
	r.Get("/{table}/{id}", a.edit(sec))
	r.Post("/{table}/{id}", a.update(sec))
	r.Post("/{table}/{id}/delete", a.remove(sec))
	if sec.Key == authz.SectionGallery {
		r.Get("/{table}/upload", a.uploadForm(sec))
		r.Post("/{table}/upload", a.upload(sec))
	}
}

// table resolves {table} to a table of sec, rendering 404 otherwise.
func (a *Admin) table(w http.ResponseWriter, r *http.Request, sec authz.Section) (content.Table, bool) {
	t, ok := content.Lookup(chi.URLParam(r, "table"))
	if !ok || t.Section != sec.Key {
		a.renderer.NotFound(w, r)
		return content.Table{}, false
	}
	return t, true
}

func tableBase(sec authz.Section, t content.Table) string {
	return sec.Path + "/" + t.Name
}

func (a *Admin) list(sec authz.Section) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := a.table(w, r, sec)
		if !ok {
			return
		}
		page := pageParam(r)
		data := map[string]any{
			"Table":   t,
			"Columns": t.Listed(),
			"Base":    tableBase(sec, t),
			"Upload":  t.Name == "gallery_images" && a.storage != nil,
		}

		var flashes []render.Flash
		rows, err := a.content.List(r.Context(), t.Name, content.Filter{
			Limit:  adminPerPage + 1,
			Offset: uint64((page - 1) * adminPerPage),
		})
		if err != nil {
			slog.Error("admin list failed", "table", t.Name, "error", err)
			flashes = append(flashes, render.Flash{Type: "error", Message: "The list could not be loaded."})
		}
		data["Rows"] = paginate(data, rows, page, adminPerPage)

		a.renderer.Page(w, r, "admin/list", &render.PageData{
			Title:   t.Label,
			Section: sec.Key,
			Flashes: flashes,
			Data:    data,
		})
	}
}

func (a *Admin) newForm(sec authz.Section) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := a.table(w, r, sec)
		if !ok {
			return
		}
		if t.ReadOnly {
			a.renderer.NotFound(w, r)
			return
		}
		a.form(w, r, sec, t, formState{values: content.Values{}})
	}
}

func (a *Admin) create(sec authz.Section) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := a.table(w, r, sec)
		if !ok {
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}

		values, err := t.ParseForm(r.PostForm)
		if err != nil {
			a.form(w, r, sec, t, invalidForm(t, r.PostForm, err))
			return
		}
		if _, err := a.content.Create(r.Context(), actor(r), t.Name, values); err != nil {
			if forbidden(a.renderer, w, r, err) {
				return
			}
			a.form(w, r, sec, t, failedForm(t, r.PostForm, err))
			return
		}
		redirectWithFlash(w, r, tableBase(sec, t), "success", singular(t)+" created.")
	}
}

func (a *Admin) edit(sec authz.Section) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := a.table(w, r, sec)
		if !ok {
			return
		}
		id, ok := idParam(r)
		if !ok || t.ReadOnly {
			a.renderer.NotFound(w, r)
			return
		}
		row, err := a.content.Get(r.Context(), t.Name, id)
		if errors.Is(err, content.ErrNotFound) {
			a.renderer.NotFound(w, r)
			return
		}
		if err != nil {
			serverError(w, "admin load row failed", err)
			return
		}
		a.form(w, r, sec, t, formState{id: id, values: content.Values(row)})
	}
}

func (a *Admin) update(sec authz.Section) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := a.table(w, r, sec)
		if !ok {
			return
		}
		id, ok := idParam(r)
		if !ok {
			a.renderer.NotFound(w, r)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}

		values, err := t.ParseForm(r.PostForm)
		if err != nil {
			st := invalidForm(t, r.PostForm, err)
			st.id = id
			a.form(w, r, sec, t, st)
			return
		}
		if err := a.content.Update(r.Context(), actor(r), t.Name, id, values); err != nil {
			if forbidden(a.renderer, w, r, err) {
				return
			}
			st := failedForm(t, r.PostForm, err)
			st.id = id
			a.form(w, r, sec, t, st)
			return
		}
		redirectWithFlash(w, r, tableBase(sec, t), "success", singular(t)+" saved.")
	}
}

func (a *Admin) remove(sec authz.Section) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := a.table(w, r, sec)
		if !ok {
			return
		}
		id, ok := idParam(r)
		if !ok {
			a.renderer.NotFound(w, r)
			return
		}

		// A photo's object is removed after its row, so a refused delete
		// never orphans the row.
		var objectKey string
		if t.Name == "gallery_images" && a.storage != nil {
			if row, err := a.content.Get(r.Context(), t.Name, id); err == nil {
				objectKey = row.String("s3_key")
			}
		}

		base := tableBase(sec, t)
		if err := a.content.Delete(r.Context(), actor(r), t.Name, id); err != nil {
			if forbidden(a.renderer, w, r, err) {
				return
			}
			msg, _ := mutationFeedback(err)
			redirectWithFlash(w, r, base, "error", msg)
			return
		}
		if objectKey != "" {
			if err := a.storage.Delete(r.Context(), objectKey); err != nil {
				slog.Warn("photo object not deleted", "key", objectKey, "error", err)
			}
		}
		redirectWithFlash(w, r, base, "success", singular(t)+" deleted.")
	}
}

// formState is what the edit form is rendered from.
type formState struct {
	id      uuid.UUID
	values  content.Values
	errors  map[string]string
	flash   string
	invalid bool
}

// invalidForm re-renders submitted input that failed parsing.
func invalidForm(t content.Table, form url.Values, err error) formState {
	st := formState{values: submitted(t, form), invalid: true, errors: map[string]string{}}
	var verr *content.ValidationError
	if errors.As(err, &verr) {
		st.errors = verr.Fields
	}
	st.flash = "Please correct the highlighted fields."
	return st
}

// failedForm re-renders submitted input after the write was refused.
func failedForm(t content.Table, form url.Values, err error) formState {
	msg, fields := mutationFeedback(err)
	return formState{values: submitted(t, form), errors: fields, flash: msg, invalid: true}
}

// submitted keeps the raw form input so the form shows exactly what was
// typed.
func submitted(t content.Table, form url.Values) content.Values {
	v := content.Values{}
	for _, col := range t.Columns {
		if col.Kind == content.Bool {
			v[col.Name] = form.Get(col.Name) != ""
			continue
		}
		v[col.Name] = form.Get(col.Name)
	}
	return v
}

// refOption is one choice of a reference dropdown.
type refOption struct {
	ID    string
	Label string
}

func (a *Admin) form(w http.ResponseWriter, r *http.Request, sec authz.Section, t content.Table, st formState) {
	base := tableBase(sec, t)
	action, title := base, "New "+singular(t)
	if st.id != uuid.Nil {
		action, title = base+"/"+st.id.String(), "Edit "+singular(t)
	}
	if st.errors == nil {
		st.errors = map[string]string{}
	}

	page := &render.PageData{
		Title:   title,
		Section: sec.Key,
		Data: map[string]any{
			"Table":  t,
			"Values": st.values,
			"Errors": st.errors,
			"Refs":   a.refOptions(r.Context(), t),
			"Action": action,
			"Base":   base,
		},
	}
	if st.invalid {
		page.Status = http.StatusUnprocessableEntity
		page.Flashes = []render.Flash{{Type: "error", Message: st.flash}}
	}
	a.renderer.Page(w, r, "admin/form", page)
}

// refOptions loads the choices for every reference column of t.
func (a *Admin) refOptions(ctx context.Context, t content.Table) map[string][]refOption {
	out := map[string][]refOption{}
	for _, col := range t.Columns {
		if col.Kind == content.Ref {
			out[col.Name] = a.options(ctx, col.Ref)
		}
	}
	return out
}

// options lists the rows of a table as dropdown choices.
func (a *Admin) options(ctx context.Context, table string) []refOption {
	ref, ok := content.Lookup(table)
	if !ok {
		return nil
	}
	rows, err := a.content.List(ctx, ref.Name, content.Filter{Limit: refOptionLimit})
	if err != nil {
		slog.Warn("reference options not loaded", "table", ref.Name, "error", err)
		return nil
	}
	opts := make([]refOption, 0, len(rows))
	for _, row := range rows {
		opts = append(opts, refOption{ID: row.ID().String(), Label: rowLabel(ref, row)})
	}
	return opts
}

// rowLabel names a row by its first listed text column.
func rowLabel(t content.Table, row models.Row) string {
	for _, col := range t.Columns {
		if col.Listed && col.Kind == content.Text {
			if s := row.String(col.Name); s != "" {
				return s
			}
		}
	}
	return row.ID().String()
}

// singular is the label used in form titles and flashes.
func singular(t content.Table) string {
	if s, ok := singulars[t.Name]; ok {
		return s
	}
	return t.Label
}

var singulars = map[string]string{
	"news":                "Article",
	"pages":               "Page",
	"faqs":                "Question",
	"fixtures":            "Fixture",
	"teams":               "Team",
	"honours":             "Honour",
	"players":             "Player",
	"training_sessions":   "Training session",
	"staff":               "Staff member",
	"gallery_albums":      "Album",
	"gallery_images":      "Photo",
	"sponsors":            "Sponsor",
	"events":              "Event",
	"announcements":       "Announcement",
	"polls":               "Poll",
	"poll_options":        "Poll option",
	"poll_votes":          "Vote",
	"comments":            "Comment",
	"contact_submissions": "Message",
	"join_submissions":    "Enquiry",
	"site_settings":       "Setting",
	"feature_toggles":     "Feature",
}
