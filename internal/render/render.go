// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render provides HTML template rendering for the public site,
// the admin area and the guard notices. Admin pages support HTMX partial
// rendering, detected via the HX-Request header.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"clubhouse/internal/auth"
	"clubhouse/internal/authz"
	"clubhouse/internal/guard"
	"clubhouse/internal/middleware"
	"clubhouse/internal/models"
)

//go:embed templates
var templateFS embed.FS

// PageData holds all data passed to templates.
type PageData struct {
	Title     string
	Section   authz.SectionKey // active sidebar section
	Session   auth.Session
	Nav       []authz.Section // sidebar entries the session may see
	SiteName  string
	CSRFToken string
	Data      map[string]any
	Flashes   []Flash
	// Status is the HTTP status to send; zero means 200.
	Status int
}

// status returns the HTTP status the page is sent with.
func (d *PageData) status() int {
	if d.Status == 0 {
		return http.StatusOK
	}
	return d.Status
}

// Flash represents a one-time notification message displayed to the user.
type Flash struct {
	Type    string // "success", "error", "warning", "info"
	Message string
}

// layouts maps a template directory to the layout its pages are wrapped
// in. Pages in directories without a layout are standalone documents.
var layouts = map[string]string{
	"admin":  "admin/base.html",
	"public": "public/base.html",
}

// Renderer handles template parsing and execution.
type Renderer struct {
	templates map[string]*template.Template
	siteName  string
	globals   GlobalsFunc
}

// GlobalsFunc supplies data every public page needs, such as site
// settings, enabled features and active announcements.
type GlobalsFunc func(r *http.Request) map[string]any

// New parses every template from the embedded filesystem. Page templates
// are keyed by "<dir>/<name>" without the extension, e.g. "admin/list".
// When devMode is true, layouts load CSS and scripts from CDNs.
func New(devMode bool, siteName string) (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template),
		siteName:  siteName,
	}
	funcs := funcMap(devMode)

	pages, err := fs.Glob(templateFS, "templates/*/*.html")
	if err != nil {
		return nil, fmt.Errorf("glob templates: %w", err)
	}

	for _, page := range pages {
		rel := strings.TrimPrefix(page, "templates/")
		dir, file := path.Split(rel)
		dir = strings.TrimSuffix(dir, "/")
		if file == "base.html" {
			continue
		}
		name := dir + "/" + strings.TrimSuffix(file, ".html")

		files := []string{page}
		root := file
		if layout, ok := layouts[dir]; ok {
			files = []string{"templates/" + layout, page}
			root = "base.html"
		}

		tmpl, err := template.New(root).Funcs(funcs).ParseFS(templateFS, files...)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[name] = tmpl
	}

	return r, nil
}

// SetGlobals installs the provider of shared public page data. Keys the
// handler already set are left alone.
func (rn *Renderer) SetGlobals(fn GlobalsFunc) {
	rn.globals = fn
}

// Has reports whether a page template exists.
func (rn *Renderer) Has(name string) bool {
	_, ok := rn.templates[name]
	return ok
}

// Page renders a full page or, for HTMX requests to layout pages, only the
// "content" block. Session, navigation, CSRF token and pending flashes
// are filled in from the request.
func (rn *Renderer) Page(w http.ResponseWriter, r *http.Request, name string, data *PageData) {
	tmpl, ok := rn.templates[name]
	if !ok {
		http.Error(w, fmt.Sprintf("template %q not found", name), http.StatusInternalServerError)
		return
	}

	data.CSRFToken = middleware.CSRFTokenFromCtx(r.Context())
	data.Session = auth.FromContext(r.Context())
	data.Nav = data.Session.Navigation()
	if data.SiteName == "" {
		data.SiteName = rn.siteName
	}
	if data.Data == nil {
		data.Data = map[string]any{}
	}
	data.Flashes = append(popFlashes(w, r), data.Flashes...)

	dir, _, _ := strings.Cut(name, "/")
	_, hasLayout := layouts[dir]
	if dir == "public" {
		rn.fillGlobals(r, data.Data)
	}

	exec := tmpl.Name()
	if hasLayout {
		exec = "base.html"
		if isHTMX(r) {
			exec = "content"
		}
	}

	// Render into a buffer so a template error still yields a clean 500.
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, exec, data); err != nil {
		slog.Error("template execution failed", "template", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(data.status())
	buf.WriteTo(w)
}

func (rn *Renderer) fillGlobals(r *http.Request, data map[string]any) {
	if rn.globals != nil {
		for k, v := range rn.globals(r) {
			if _, ok := data[k]; !ok {
				data[k] = v
			}
		}
	}
	// The layout indexes these, which fails on an untyped nil.
	if _, ok := data["Features"]; !ok {
		data["Features"] = map[string]bool{}
	}
	if _, ok := data["Settings"]; !ok {
		data["Settings"] = models.SiteSettings{}
	}
}

// Notice renders the page the route guard shows instead of the requested
// one: the loading interstitial, the pending-approval notice, or the
// forbidden notice.
func (rn *Renderer) Notice(w http.ResponseWriter, r *http.Request, status int, outcome guard.Outcome) {
	title := "Access denied"
	switch outcome {
	case guard.ShowLoading:
		title = "Just a moment"
	case guard.ShowPendingApproval:
		title = "Awaiting approval"
	}
	rn.Page(w, r, "notice/notice", &PageData{
		Title:  title,
		Status: status,
		Data:   map[string]any{"Outcome": outcome.String()},
	})
}

// NotFound renders the public 404 page.
func (rn *Renderer) NotFound(w http.ResponseWriter, r *http.Request) {
	rn.Page(w, r, "public/not_found", &PageData{Title: "Page not found", Status: http.StatusNotFound})
}

// isHTMX returns true if the request was made by HTMX (has HX-Request header).
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
