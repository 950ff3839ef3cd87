// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubhouse/internal/models"
)

var allRoles = []models.Role{"admin", "moderator", "", "ADMIN", "editor", "owner"}

func profile(role models.Role, approved bool) *models.Profile {
	return &models.Profile{ID: uuid.New(), Email: "p@club.test", Role: role, IsApproved: approved}
}

func TestBuiltinSectionsAreValid(t *testing.T) {
	require.NoError(t, Validate())
	assert.Len(t, Sections(), 17)
}

func TestAdminOnlySections(t *testing.T) {
	var adminOnly []SectionKey
	for _, s := range Sections() {
		if s.AdminOnly() {
			adminOnly = append(adminOnly, s.Key)
		}
	}
	assert.Equal(t, []SectionKey{SectionStaff, SectionSettings, SectionUsers}, adminOnly)
}

func TestValidateSections_RejectsEmptyAllowedRoles(t *testing.T) {
	err := ValidateSections([]Section{
		{Key: "reports", Name: "Reports", Path: "/admin/reports"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AllowedRoles")
}

func TestValidateSections_RejectsIllegalAndDuplicate(t *testing.T) {
	err := ValidateSections([]Section{
		{Key: "a", Path: "/a", AllowedRoles: []models.Role{"owner"}},
		{Key: "a", Path: "/a2", AllowedRoles: []models.Role{models.RoleAdmin}},
		{Key: "", Path: "/b", AllowedRoles: []models.Role{models.RoleAdmin}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "illegal role")
	assert.Contains(t, err.Error(), "duplicate key")
	assert.Contains(t, err.Error(), "key and path are required")
}

func TestSectionWithoutRolesVisibleToNobody(t *testing.T) {
	s := Section{Key: "reports", Path: "/admin/reports"}
	for _, r := range allRoles {
		assert.False(t, s.Allows(r), "role %q", r)
	}
}

func TestUnapprovedProfilesHaveNoCapabilities(t *testing.T) {
	for _, r := range allRoles {
		p := profile(r, false)
		assert.True(t, Capabilities(p).Empty(), "role %q", r)
		assert.Empty(t, Navigation(p), "role %q", r)
		for _, s := range Sections() {
			assert.False(t, Can(p, s.Key), "role %q section %q", r, s.Key)
		}
	}
	assert.True(t, Capabilities(nil).Empty())
	assert.Empty(t, Navigation(nil))
}

func TestApprovedModeratorCapabilities(t *testing.T) {
	caps := Capabilities(profile(models.RoleModerator, true))
	for _, s := range Sections() {
		if s.Allows(models.RoleModerator) {
			assert.True(t, caps.Has(s.Key), "moderator should have %q", s.Key)
		}
		if s.AdminOnly() {
			assert.False(t, caps.Has(s.Key), "moderator must not have %q", s.Key)
		}
	}
	assert.Equal(t, 14, caps.Len())
}

func TestApprovedAdminCapabilities(t *testing.T) {
	caps := Capabilities(profile(models.RoleAdmin, true))
	assert.Equal(t, len(Sections()), caps.Len())
	assert.Equal(t, SectionDashboard, caps.Keys()[0])
	assert.Equal(t, SectionUsers, caps.Keys()[caps.Len()-1])
}

func TestEmptyRoleReadsAsModerator(t *testing.T) {
	p := profile("", true)
	assert.True(t, IsModerator(p))
	assert.False(t, IsAdmin(p))
	assert.True(t, Capabilities(p).Equal(Capabilities(profile(models.RoleModerator, true))))
}

func TestUnknownRoleGrantsNothing(t *testing.T) {
	p := profile("owner", true)
	assert.True(t, IsApproved(p))
	assert.False(t, IsAdmin(p))
	assert.False(t, IsModerator(p))
	assert.True(t, Capabilities(p).Empty())
}

func TestIsAdminImpliesIsApproved(t *testing.T) {
	for _, r := range allRoles {
		for _, approved := range []bool{true, false} {
			p := profile(r, approved)
			if IsAdmin(p) {
				assert.True(t, IsApproved(p), "role %q approved %v", r, approved)
			}
			if IsModerator(p) {
				assert.True(t, IsApproved(p), "role %q approved %v", r, approved)
			}
		}
	}
	assert.False(t, IsAdmin(nil))
	assert.False(t, IsApproved(nil))
}

func TestCapabilitiesIsIdempotent(t *testing.T) {
	for _, r := range allRoles {
		for _, approved := range []bool{true, false} {
			p := profile(r, approved)
			first := Capabilities(p)
			second := Capabilities(p)
			assert.True(t, first.Equal(second), "role %q approved %v", r, approved)
		}
	}
}

func TestCapabilitiesKeysIsACopy(t *testing.T) {
	caps := Capabilities(profile(models.RoleAdmin, true))
	keys := caps.Keys()
	keys[0] = "tampered"
	assert.True(t, caps.Has(SectionDashboard))
}

func TestNavigationMatchesCapabilities(t *testing.T) {
	for _, r := range allRoles {
		p := profile(r, true)
		nav := Navigation(p)
		caps := Capabilities(p)
		require.Len(t, nav, caps.Len())
		for i, s := range nav {
			assert.Equal(t, caps.Keys()[i], s.Key)
		}
	}
}

func TestNavigationPreservesDeclaredOrder(t *testing.T) {
	nav := Navigation(profile(models.RoleModerator, true))
	all := Sections()
	j := 0
	for _, s := range nav {
		for j < len(all) && all[j].Key != s.Key {
			j++
		}
		require.Less(t, j, len(all), "section %q out of order", s.Key)
	}
}

// A moderator requesting Settings: hidden from the sidebar and refused.
func TestModeratorCannotSeeSettings(t *testing.T) {
	p := profile(models.RoleModerator, true)
	for _, s := range Navigation(p) {
		assert.NotEqual(t, SectionSettings, s.Key)
	}
	assert.False(t, Can(p, SectionSettings))
	assert.False(t, IsAdmin(p))
}

// An unapproved admin is not an admin and has no capabilities.
func TestUnapprovedAdminIsNotAdmin(t *testing.T) {
	p := profile(models.RoleAdmin, false)
	assert.False(t, IsAdmin(p))
	assert.True(t, Capabilities(p).Empty())
}

func TestCanUnknownSection(t *testing.T) {
	assert.False(t, Can(profile(models.RoleAdmin, true), "billing"))
}

func TestLookup(t *testing.T) {
	s, ok := Lookup(SectionStaff)
	require.True(t, ok)
	assert.Equal(t, "/admin/staff", s.Path)
	_, ok = Lookup("missing")
	assert.False(t, ok)
}
