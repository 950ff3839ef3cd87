// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package authz

import (
	"errors"
	"fmt"

	"clubhouse/internal/models"
)

// SectionKey identifies one admin-area section.
type SectionKey string

const (
	SectionDashboard     SectionKey = "dashboard"
	SectionNews          SectionKey = "news"
	SectionPages         SectionKey = "pages"
	SectionFixtures      SectionKey = "fixtures"
	SectionTeams         SectionKey = "teams"
	SectionPlayers       SectionKey = "players"
	SectionTraining      SectionKey = "training"
	SectionStaff         SectionKey = "staff"
	SectionGallery       SectionKey = "gallery"
	SectionSponsors      SectionKey = "sponsors"
	SectionEvents        SectionKey = "events"
	SectionAnnouncements SectionKey = "announcements"
	SectionPolls         SectionKey = "polls"
	SectionComments      SectionKey = "comments"
	SectionInbox         SectionKey = "inbox"
	SectionSettings      SectionKey = "settings"
	SectionUsers         SectionKey = "users"
)

// Section describes an admin-area section and the roles allowed to see
// and mutate it. An empty AllowedRoles means nobody.
type Section struct {
	Key          SectionKey
	Name         string
	Path         string
	AllowedRoles []models.Role
}

// Allows reports whether role is listed in the section's AllowedRoles.
// Roles that do not normalize to a legal value are never allowed.
func (s Section) Allows(role models.Role) bool {
	r, ok := role.Normalize()
	if !ok {
		return false
	}
	for _, allowed := range s.AllowedRoles {
		if allowed == r {
			return true
		}
	}
	return false
}

// AdminOnly reports whether moderators are excluded from the section.
func (s Section) AdminOnly() bool {
	return s.Allows(models.RoleAdmin) && !s.Allows(models.RoleModerator)
}

var (
	everyone  = []models.Role{models.RoleAdmin, models.RoleModerator}
	adminOnly = []models.Role{models.RoleAdmin}
)

// sections is the ordered sidebar. Navigation, capabilities, the route
// guard and the content service all read from it.
var sections = []Section{
	{Key: SectionDashboard, Name: "Dashboard", Path: "/admin", AllowedRoles: everyone},
	{Key: SectionNews, Name: "News", Path: "/admin/news", AllowedRoles: everyone},
	{Key: SectionPages, Name: "Pages", Path: "/admin/pages", AllowedRoles: everyone},
	{Key: SectionFixtures, Name: "Fixtures", Path: "/admin/fixtures", AllowedRoles: everyone},
	{Key: SectionTeams, Name: "Teams", Path: "/admin/teams", AllowedRoles: everyone},
	{Key: SectionPlayers, Name: "Players", Path: "/admin/players", AllowedRoles: everyone},
	{Key: SectionTraining, Name: "Training", Path: "/admin/training", AllowedRoles: everyone},
	{Key: SectionStaff, Name: "Staff", Path: "/admin/staff", AllowedRoles: adminOnly},
	{Key: SectionGallery, Name: "Gallery", Path: "/admin/gallery", AllowedRoles: everyone},
	{Key: SectionSponsors, Name: "Sponsors", Path: "/admin/sponsors", AllowedRoles: everyone},
	{Key: SectionEvents, Name: "Events", Path: "/admin/events", AllowedRoles: everyone},
	{Key: SectionAnnouncements, Name: "Announcements", Path: "/admin/announcements", AllowedRoles: everyone},
	{Key: SectionPolls, Name: "Polls", Path: "/admin/polls", AllowedRoles: everyone},
	{Key: SectionComments, Name: "Comments", Path: "/admin/comments", AllowedRoles: everyone},
	{Key: SectionInbox, Name: "Inbox", Path: "/admin/inbox", AllowedRoles: everyone},
	{Key: SectionSettings, Name: "Settings", Path: "/admin/settings", AllowedRoles: adminOnly},
	{Key: SectionUsers, Name: "Users", Path: "/admin/users", AllowedRoles: adminOnly},
}

// Sections returns a copy of the section list in sidebar order.
func Sections() []Section {
	out := make([]Section, len(sections))
	copy(out, sections)
	return out
}

// Lookup finds a section by key.
func Lookup(key SectionKey) (Section, bool) {
	for _, s := range sections {
		if s.Key == key {
			return s, true
		}
	}
	return Section{}, false
}

// Validate checks the built-in section list. It runs at startup.
func Validate() error {
	return ValidateSections(sections)
}

// ValidateSections rejects lists with missing keys or paths, duplicate
// keys, empty AllowedRoles, or roles that are not legal role values.
func ValidateSections(list []Section) error {
	var errs []error
	seen := make(map[SectionKey]bool, len(list))
	for i, s := range list {
		if s.Key == "" || s.Path == "" {
			errs = append(errs, fmt.Errorf("section %d: key and path are required", i))
			continue
		}
		if seen[s.Key] {
			errs = append(errs, fmt.Errorf("section %q: duplicate key", s.Key))
		}
		seen[s.Key] = true
		if len(s.AllowedRoles) == 0 {
			errs = append(errs, fmt.Errorf("section %q: AllowedRoles must be declared", s.Key))
		}
		for _, r := range s.AllowedRoles {
			if n, ok := r.Normalize(); !ok || n != r {
				errs = append(errs, fmt.Errorf("section %q: illegal role %q", s.Key, r))
			}
		}
	}
	return errors.Join(errs...)
}
