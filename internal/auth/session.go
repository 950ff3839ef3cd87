// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package auth

import (
	"context"

	"github.com/google/uuid"

	"clubhouse/internal/authz"
	"clubhouse/internal/models"
)

// State is the lifecycle position of a Session.
type State int

const (
	// StateUninitialized is the zero Session: nothing has been resolved yet.
	StateUninitialized State = iota
	// StateLoading means the session could not be resolved right now.
	StateLoading
	StateAnonymous
	StatePendingApproval
	StateApprovedModerator
	StateApprovedAdmin
)

var stateNames = [...]string{
	StateUninitialized:     "uninitialized",
	StateLoading:           "loading",
	StateAnonymous:         "anonymous",
	StatePendingApproval:   "pending_approval",
	StateApprovedModerator: "approved_moderator",
	StateApprovedAdmin:     "approved_admin",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Principal is the signed-in identity as far as a session is concerned.
type Principal struct {
	ID    uuid.UUID
	Email string
}

// Session is a snapshot of who is signed in and their profile. Profile
// may be nil for a signed-in user whose profile could not be loaded;
// such a session has no capabilities.
type Session struct {
	Identity *Principal
	Profile  *models.Profile
	Loading  bool

	resolved bool
}

// Anonymous returns a resolved session with nobody signed in.
func Anonymous() Session {
	return Session{resolved: true}
}

// LoadingSession returns a session whose state is not yet known.
func LoadingSession() Session {
	return Session{Loading: true, resolved: true}
}

// Authenticated returns a session for principal with the given profile.
func Authenticated(principal Principal, profile *models.Profile) Session {
	return Session{Identity: &principal, Profile: profile, resolved: true}
}

// State derives the lifecycle state from the snapshot.
func (s Session) State() State {
	switch {
	case !s.resolved:
		return StateUninitialized
	case s.Loading:
		return StateLoading
	case s.Identity == nil:
		return StateAnonymous
	case authz.IsAdmin(s.Profile):
		return StateApprovedAdmin
	case authz.IsModerator(s.Profile):
		return StateApprovedModerator
	default:
		// Unapproved, profile missing, or a role that grants nothing.
		return StatePendingApproval
	}
}

// IsPending reports whether the guard has to wait before deciding.
func (s Session) IsPending() bool {
	st := s.State()
	return st == StateUninitialized || st == StateLoading
}

// IsAuthenticated reports whether an identity is signed in.
func (s Session) IsAuthenticated() bool {
	return !s.IsPending() && s.Identity != nil
}

// IsApproved reports whether the signed-in profile is approved.
func (s Session) IsApproved() bool {
	return s.IsAuthenticated() && authz.IsApproved(s.Profile)
}

// IsAdmin reports whether the signed-in profile is an approved admin.
func (s Session) IsAdmin() bool {
	return s.IsAuthenticated() && authz.IsAdmin(s.Profile)
}

// Can reports whether the session may use the admin section.
func (s Session) Can(key authz.SectionKey) bool {
	return s.IsAuthenticated() && authz.Can(s.Profile, key)
}

// Capabilities returns the sections the session may use.
func (s Session) Capabilities() authz.CapabilitySet {
	if !s.IsAuthenticated() {
		return authz.CapabilitySet{}
	}
	return authz.Capabilities(s.Profile)
}

// Navigation returns the sidebar entries for the session.
func (s Session) Navigation() []authz.Section {
	if !s.IsAuthenticated() {
		return nil
	}
	return authz.Navigation(s.Profile)
}

// UserID returns the signed-in identity's id, or uuid.Nil.
func (s Session) UserID() uuid.UUID {
	if s.Identity == nil {
		return uuid.Nil
	}
	return s.Identity.ID
}

type contextKey struct{}

// WithSession stores the request's session snapshot in ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the request's session snapshot. A context without
// one yields the zero Session, whose state is StateUninitialized.
func FromContext(ctx context.Context) Session {
	s, _ := ctx.Value(contextKey{}).(Session)
	return s
}
