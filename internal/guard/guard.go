// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package guard decides, for a session and a required access level,
// whether a page renders, redirects to sign-in, or shows an interstitial.
// It is the only place that chooses between redirecting and rendering a
// notice in place.
package guard

import (
	"net/url"

	"clubhouse/internal/auth"
	"clubhouse/internal/authz"
)

// SignInPath is where unauthenticated visitors are sent.
const SignInPath = "/auth"

// Requirement is the access level a page needs.
type Requirement int

const (
	RequireNone Requirement = iota
	RequireAuthenticated
	RequireApproved
	RequireAdmin
)

func (r Requirement) String() string {
	switch r {
	case RequireNone:
		return "none"
	case RequireAuthenticated:
		return "authenticated"
	case RequireApproved:
		return "approved"
	case RequireAdmin:
		return "admin"
	}
	return "unknown"
}

// Outcome is what the page should do.
type Outcome int

const (
	Render Outcome = iota
	ShowLoading
	Redirect
	ShowPendingApproval
	ShowForbidden
)

func (o Outcome) String() string {
	switch o {
	case Render:
		return "render"
	case ShowLoading:
		return "loading"
	case Redirect:
		return "redirect"
	case ShowPendingApproval:
		return "pending_approval"
	case ShowForbidden:
		return "forbidden"
	}
	return "unknown"
}

// Decide applies the guard rules in order:
//
//  1. an unresolved or loading session shows the loading notice
//  2. a page with no requirement renders
//  3. nobody signed in redirects to sign-in
//  4. a signed-in but unapproved user sees the pending notice
//  5. an admin page for a non-admin shows the forbidden notice
//  6. anything else renders
//
// RequireAuthenticated pages skip rule 4 so a pending user can still
// reach them (sign-out, their own account).
func Decide(sess auth.Session, req Requirement) Outcome {
	if sess.IsPending() {
		return ShowLoading
	}
	if req == RequireNone {
		return Render
	}
	if !sess.IsAuthenticated() {
		return Redirect
	}
	if req == RequireAuthenticated {
		return Render
	}
	if !sess.IsApproved() {
		return ShowPendingApproval
	}
	if req == RequireAdmin && !sess.IsAdmin() {
		return ShowForbidden
	}
	return Render
}

// RequirementFor returns the level a section's AllowedRoles imply:
// admin for sections moderators may not use, approved otherwise.
func RequirementFor(section authz.Section) Requirement {
	if section.AdminOnly() {
		return RequireAdmin
	}
	return RequireApproved
}

// DecideSection guards an admin section. On top of Decide it forbids
// any section missing from the session's capability set, which covers
// sections with no AllowedRoles and profiles with unusable roles.
func DecideSection(sess auth.Session, key authz.SectionKey) Outcome {
	section, ok := authz.Lookup(key)
	if !ok {
		if out := Decide(sess, RequireAdmin); out != Render {
			return out
		}
		return ShowForbidden
	}

	out := Decide(sess, RequirementFor(section))
	if out != Render {
		return out
	}
	if !sess.Can(key) {
		return ShowForbidden
	}
	return Render
}

// SignInURL returns the sign-in path that returns to next afterwards.
func SignInURL(next string) string {
	if !SafeNext(next) {
		return SignInPath
	}
	return SignInPath + "?next=" + url.QueryEscape(next)
}

// SafeNext reports whether next is a local absolute path that sign-in
// may redirect to.
func SafeNext(next string) bool {
	if next == "" || next[0] != '/' {
		return false
	}
	if len(next) > 1 && (next[1] == '/' || next[1] == '\\') {
		return false
	}
	u, err := url.Parse(next)
	return err == nil && u.Scheme == "" && u.Host == ""
}
