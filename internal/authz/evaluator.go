// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package authz derives authorization decisions from a profile. Every
// function is pure and total: a nil or partially filled profile is a
// normal input and yields the most restrictive answer.
package authz

import (
	"slices"

	"clubhouse/internal/models"
)

// IsApproved reports whether an admin has approved the profile.
func IsApproved(p *models.Profile) bool {
	return p != nil && p.IsApproved
}

// HasRole reports whether the profile is approved and holds role.
func HasRole(p *models.Profile, role models.Role) bool {
	if !IsApproved(p) {
		return false
	}
	got, ok := p.Role.Normalize()
	if !ok {
		return false
	}
	want, ok := role.Normalize()
	return ok && got == want
}

// IsModerator reports whether the profile is an approved moderator.
func IsModerator(p *models.Profile) bool {
	return HasRole(p, models.RoleModerator)
}

// IsAdmin reports whether the profile is an approved admin.
func IsAdmin(p *models.Profile) bool {
	return HasRole(p, models.RoleAdmin)
}

// CapabilitySet is the ordered set of sections a profile may use.
type CapabilitySet struct {
	keys []SectionKey
}

// Has reports whether the set contains key.
func (c CapabilitySet) Has(key SectionKey) bool {
	return slices.Contains(c.keys, key)
}

// Keys returns the section keys in sidebar order.
func (c CapabilitySet) Keys() []SectionKey {
	return slices.Clone(c.keys)
}

// Len returns the number of sections in the set.
func (c CapabilitySet) Len() int { return len(c.keys) }

// Empty reports whether the set grants nothing.
func (c CapabilitySet) Empty() bool { return len(c.keys) == 0 }

// Equal reports whether both sets hold the same keys in the same order.
func (c CapabilitySet) Equal(other CapabilitySet) bool {
	return slices.Equal(c.keys, other.keys)
}

// Capabilities returns the sections visible to the profile. Unapproved
// profiles and unknown roles get the empty set.
func Capabilities(p *models.Profile) CapabilitySet {
	var set CapabilitySet
	for _, s := range allowedSections(p) {
		set.keys = append(set.keys, s.Key)
	}
	return set
}

// Can reports whether the profile may view and mutate the section.
func Can(p *models.Profile, key SectionKey) bool {
	s, ok := Lookup(key)
	if !ok || !IsApproved(p) {
		return false
	}
	return s.Allows(p.Role)
}

// Navigation returns the sidebar entries for the profile in declared order.
func Navigation(p *models.Profile) []Section {
	return allowedSections(p)
}

func allowedSections(p *models.Profile) []Section {
	if !IsApproved(p) {
		return nil
	}
	var out []Section
	for _, s := range sections {
		if s.Allows(p.Role) {
			out = append(out, s)
		}
	}
	return out
}
