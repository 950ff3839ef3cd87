// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role represents a profile's permission level in the admin area.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
)

// Normalize maps a stored role value onto one of the two legal roles.
// An empty value reads as moderator (the column default); anything else
// that is not a legal role reports ok=false and must grant nothing.
func (r Role) Normalize() (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(string(r))) {
	case "", string(RoleModerator):
		return RoleModerator, true
	case string(RoleAdmin):
		return RoleAdmin, true
	default:
		return r, false
	}
}

// Label returns the badge text shown in the user management table.
func (r Role) Label() string {
	n, ok := r.Normalize()
	if !ok {
		return "Unknown"
	}
	if n == RoleAdmin {
		return "Admin"
	}
	return "Moderator"
}

// Profile is the authorization record held 1:1 with an identity.
// Role and IsApproved are the only inputs to authorization decisions.
type Profile struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	FullName   string    `json:"full_name"`
	Role       Role      `json:"role"`
	IsApproved bool      `json:"is_approved"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DisplayName prefers the full name and falls back to the email address.
func (p *Profile) DisplayName() string {
	if p == nil {
		return ""
	}
	if name := strings.TrimSpace(p.FullName); name != "" {
		return name
	}
	return p.Email
}
