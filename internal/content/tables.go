// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package content is the generic CRUD layer over the club's content
// tables. Each table is described once (columns, owning admin section,
// public visibility) and every read and write goes through Service, which
// checks the acting profile against the section's allowed roles.
package content

import (
	"slices"

	"clubhouse/internal/authz"
)

// Kind is the input and storage type of a column.
type Kind int

const (
	Text Kind = iota
	LongText
	Markdown
	Bool
	Int
	Time
	Ref
	URL
	Email
	Enum
	Slug
)

// Column describes one editable column of a content table.
type Column struct {
	Name     string
	Label    string
	Kind     Kind
	Required bool
	Options  []string // Enum only; the first option is the default
	Ref      string   // Ref only; referenced table
	Listed   bool     // shown in the admin list view
}

// Table describes a content table.
type Table struct {
	Name    string
	Label   string
	Section authz.SectionKey
	Columns []Column

	// Visibility is the boolean column that hides rows from the public
	// site. It never affects who may mutate the row.
	Visibility string
	OrderBy    []string
	// SlugFrom names the column a blank slug is generated from.
	SlugFrom string

	Public   bool // anonymous visitors may read visible rows
	Submit   bool // anonymous visitors may insert through public forms
	Owned    bool // carries created_by
	ReadOnly bool // rows are written elsewhere; the admin may only delete
}

// Column returns the named column.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Listed returns the columns shown in the admin list view.
func (t Table) Listed() []Column {
	var out []Column
	for _, c := range t.Columns {
		if c.Listed {
			out = append(out, c)
		}
	}
	return out
}

// selectColumns is the column list every read returns.
func (t Table) selectColumns() []string {
	cols := make([]string, 0, len(t.Columns)+3)
	cols = append(cols, "id")
	for _, c := range t.Columns {
		cols = append(cols, c.Name)
	}
	return append(cols, "created_at", "updated_at")
}

func (t Table) filterable(col string) bool {
	if col == "id" {
		return true
	}
	_, ok := t.Column(col)
	return ok
}

var (
	visible = Column{Label: "Visible", Kind: Bool, Listed: true}
	order   = Column{Name: "sort_order", Label: "Order", Kind: Int}
)

func published() Column { c := visible; c.Name = "is_published"; c.Label = "Published"; return c }
func active() Column    { c := visible; c.Name = "is_active"; c.Label = "Active"; return c }
func public() Column    { c := visible; c.Name = "is_public"; c.Label = "Public"; return c }

var tables = []Table{
	{
		Name: "news", Label: "News", Section: authz.SectionNews,
		Columns: []Column{
			{Name: "title", Label: "Title", Kind: Text, Required: true, Listed: true},
			{Name: "slug", Label: "Slug", Kind: Slug},
			{Name: "summary", Label: "Summary", Kind: LongText},
			{Name: "body", Label: "Body", Kind: Markdown},
			{Name: "cover_image_url", Label: "Cover image", Kind: URL},
			published(),
			{Name: "published_at", Label: "Published at", Kind: Time, Listed: true},
		},
		Visibility: "is_published", SlugFrom: "title",
		OrderBy: []string{"published_at DESC NULLS LAST", "created_at DESC"},
		Public:  true, Owned: true,
	},
	{
		Name: "pages", Label: "Pages", Section: authz.SectionPages,
		Columns: []Column{
			{Name: "title", Label: "Title", Kind: Text, Required: true, Listed: true},
			{Name: "slug", Label: "Slug", Kind: Slug, Listed: true},
			{Name: "body", Label: "Body", Kind: Markdown},
			order,
			published(),
		},
		Visibility: "is_published", SlugFrom: "title",
		OrderBy: []string{"sort_order", "title"},
		Public:  true, Owned: true,
	},
	{
		Name: "faqs", Label: "FAQs", Section: authz.SectionPages,
		Columns: []Column{
			{Name: "question", Label: "Question", Kind: Text, Required: true, Listed: true},
			{Name: "answer", Label: "Answer", Kind: Markdown},
			order,
			published(),
		},
		Visibility: "is_published",
		OrderBy:    []string{"sort_order", "created_at"},
		Public:     true, Owned: true,
	},
	{
		Name: "fixtures", Label: "Fixtures", Section: authz.SectionFixtures,
		Columns: []Column{
			{Name: "team_id", Label: "Team", Kind: Ref, Ref: "teams"},
			{Name: "opponent", Label: "Opponent", Kind: Text, Required: true, Listed: true},
			{Name: "competition", Label: "Competition", Kind: Text, Listed: true},
			{Name: "kickoff_at", Label: "Kick-off", Kind: Time, Required: true, Listed: true},
			{Name: "venue", Label: "Venue", Kind: Text},
			{Name: "is_home", Label: "Home fixture", Kind: Bool},
			{Name: "home_score", Label: "Home score", Kind: Int},
			{Name: "away_score", Label: "Away score", Kind: Int},
			published(),
		},
		Visibility: "is_published",
		OrderBy:    []string{"kickoff_at"},
		Public:     true, Owned: true,
	},
	{
		Name: "teams", Label: "Teams", Section: authz.SectionTeams,
		Columns: []Column{
			{Name: "name", Label: "Name", Kind: Text, Required: true, Listed: true},
			{Name: "slug", Label: "Slug", Kind: Slug},
			{Name: "age_group", Label: "Age group", Kind: Text, Listed: true},
			{Name: "description", Label: "Description", Kind: LongText},
			order,
			active(),
		},
		Visibility: "is_active", SlugFrom: "name",
		OrderBy: []string{"sort_order", "name"},
		Public:  true, Owned: true,
	},
	{
		Name: "honours", Label: "Honours", Section: authz.SectionTeams,
		Columns: []Column{
			{Name: "team_id", Label: "Team", Kind: Ref, Ref: "teams"},
			{Name: "title", Label: "Title", Kind: Text, Required: true, Listed: true},
			{Name: "season", Label: "Season", Kind: Text, Listed: true},
			published(),
		},
		Visibility: "is_published",
		OrderBy:    []string{"season DESC", "title"},
		Public:     true, Owned: true,
	},
	{
		Name: "players", Label: "Players", Section: authz.SectionPlayers,
		Columns: []Column{
			{Name: "team_id", Label: "Team", Kind: Ref, Ref: "teams"},
			{Name: "full_name", Label: "Name", Kind: Text, Required: true, Listed: true},
			{Name: "squad_number", Label: "Squad number", Kind: Int, Listed: true},
			{Name: "position", Label: "Position", Kind: Enum, Options: []string{"", "goalkeeper", "defender", "midfielder", "forward"}, Listed: true},
			{Name: "bio", Label: "Bio", Kind: LongText},
			{Name: "photo_url", Label: "Photo", Kind: URL},
			active(),
		},
		Visibility: "is_active",
		OrderBy:    []string{"squad_number NULLS LAST", "full_name"},
		Public:     true, Owned: true,
	},
	{
		Name: "training_sessions", Label: "Training", Section: authz.SectionTraining,
		Columns: []Column{
			{Name: "team_id", Label: "Team", Kind: Ref, Ref: "teams", Listed: true},
			{Name: "weekday", Label: "Weekday (0 = Sunday)", Kind: Int, Required: true, Listed: true},
			{Name: "start_time", Label: "Start", Kind: Text, Listed: true},
			{Name: "end_time", Label: "End", Kind: Text},
			{Name: "venue", Label: "Venue", Kind: Text, Listed: true},
			active(),
		},
		Visibility: "is_active",
		OrderBy:    []string{"weekday", "start_time"},
		Public:     true, Owned: true,
	},
	{
		Name: "staff", Label: "Staff", Section: authz.SectionStaff,
		Columns: []Column{
			{Name: "full_name", Label: "Name", Kind: Text, Required: true, Listed: true},
			{Name: "role_title", Label: "Role", Kind: Text, Listed: true},
			{Name: "email", Label: "Email", Kind: Email},
			{Name: "phone", Label: "Phone", Kind: Text},
			{Name: "photo_url", Label: "Photo", Kind: URL},
			order,
			active(),
		},
		Visibility: "is_active",
		OrderBy:    []string{"sort_order", "full_name"},
		Public:     true, Owned: true,
	},
	{
		Name: "gallery_albums", Label: "Albums", Section: authz.SectionGallery,
		Columns: []Column{
			{Name: "title", Label: "Title", Kind: Text, Required: true, Listed: true},
			{Name: "slug", Label: "Slug", Kind: Slug},
			{Name: "description", Label: "Description", Kind: LongText},
			public(),
		},
		Visibility: "is_public", SlugFrom: "title",
		OrderBy: []string{"created_at DESC"},
		Public:  true, Owned: true,
	},
	{
		Name: "gallery_images", Label: "Photos", Section: authz.SectionGallery,
		Columns: []Column{
			{Name: "album_id", Label: "Album", Kind: Ref, Ref: "gallery_albums", Required: true, Listed: true},
			{Name: "caption", Label: "Caption", Kind: Text, Listed: true},
			{Name: "s3_key", Label: "Storage key", Kind: Text},
			{Name: "url", Label: "Image URL", Kind: URL, Required: true},
			order,
			public(),
		},
		Visibility: "is_public",
		OrderBy:    []string{"sort_order", "created_at"},
		Public:     true, Owned: true,
	},
	{
		Name: "sponsors", Label: "Sponsors", Section: authz.SectionSponsors,
		Columns: []Column{
			{Name: "name", Label: "Name", Kind: Text, Required: true, Listed: true},
			{Name: "tier", Label: "Tier", Kind: Enum, Options: []string{"partner", "main", "kit", "community"}, Listed: true},
			{Name: "logo_url", Label: "Logo", Kind: URL},
			{Name: "website_url", Label: "Website", Kind: URL},
			order,
			active(),
		},
		Visibility: "is_active",
		OrderBy:    []string{"sort_order", "name"},
		Public:     true, Owned: true,
	},
	{
		Name: "events", Label: "Events", Section: authz.SectionEvents,
		Columns: []Column{
			{Name: "title", Label: "Title", Kind: Text, Required: true, Listed: true},
			{Name: "slug", Label: "Slug", Kind: Slug},
			{Name: "description", Label: "Description", Kind: Markdown},
			{Name: "location", Label: "Location", Kind: Text, Listed: true},
			{Name: "starts_at", Label: "Starts", Kind: Time, Required: true, Listed: true},
			{Name: "ends_at", Label: "Ends", Kind: Time},
			published(),
		},
		Visibility: "is_published", SlugFrom: "title",
		OrderBy: []string{"starts_at"},
		Public:  true, Owned: true,
	},
	{
		Name: "announcements", Label: "Announcements", Section: authz.SectionAnnouncements,
		Columns: []Column{
			{Name: "message", Label: "Message", Kind: Text, Required: true, Listed: true},
			{Name: "link_url", Label: "Link", Kind: URL},
			{Name: "starts_at", Label: "Show from", Kind: Time, Listed: true},
			{Name: "ends_at", Label: "Show until", Kind: Time, Listed: true},
			active(),
		},
		Visibility: "is_active",
		OrderBy:    []string{"created_at DESC"},
		Public:     true, Owned: true,
	},
	{
		Name: "polls", Label: "Polls", Section: authz.SectionPolls,
		Columns: []Column{
			{Name: "question", Label: "Question", Kind: Text, Required: true, Listed: true},
			{Name: "closes_at", Label: "Closes", Kind: Time, Listed: true},
			active(),
		},
		Visibility: "is_active",
		OrderBy:    []string{"created_at DESC"},
		Public:     true, Owned: true,
	},
	{
		Name: "poll_options", Label: "Poll options", Section: authz.SectionPolls,
		Columns: []Column{
			{Name: "poll_id", Label: "Poll", Kind: Ref, Ref: "polls", Required: true, Listed: true},
			{Name: "label", Label: "Label", Kind: Text, Required: true, Listed: true},
			{Name: "position", Label: "Position", Kind: Int, Listed: true},
		},
		OrderBy: []string{"poll_id", "position"},
		Public:  true, Owned: true,
	},
	{
		Name: "poll_votes", Label: "Poll votes", Section: authz.SectionPolls,
		Columns: []Column{
			{Name: "poll_id", Label: "Poll", Kind: Ref, Ref: "polls", Listed: true},
			{Name: "option_id", Label: "Option", Kind: Ref, Ref: "poll_options", Listed: true},
			{Name: "voter_hash", Label: "Voter", Kind: Text},
		},
		OrderBy:  []string{"created_at DESC"},
		ReadOnly: true,
	},
	{
		Name: "comments", Label: "Comments", Section: authz.SectionComments,
		Columns: []Column{
			{Name: "news_id", Label: "Article", Kind: Ref, Ref: "news", Required: true},
			{Name: "author_name", Label: "Name", Kind: Text, Required: true, Listed: true},
			{Name: "author_email", Label: "Email", Kind: Email},
			{Name: "body", Label: "Comment", Kind: LongText, Required: true, Listed: true},
			{Name: "is_approved", Label: "Approved", Kind: Bool, Listed: true},
		},
		Visibility: "is_approved",
		OrderBy:    []string{"created_at DESC"},
		Public:     true, Submit: true,
	},
	{
		Name: "contact_submissions", Label: "Messages", Section: authz.SectionInbox,
		Columns: []Column{
			{Name: "name", Label: "Name", Kind: Text, Required: true, Listed: true},
			{Name: "email", Label: "Email", Kind: Email, Required: true, Listed: true},
			{Name: "subject", Label: "Subject", Kind: Text, Listed: true},
			{Name: "message", Label: "Message", Kind: LongText, Required: true},
			{Name: "is_read", Label: "Read", Kind: Bool, Listed: true},
		},
		OrderBy: []string{"is_read", "created_at DESC"},
		Submit:  true,
	},
	{
		Name: "join_submissions", Label: "Membership enquiries", Section: authz.SectionInbox,
		Columns: []Column{
			{Name: "full_name", Label: "Name", Kind: Text, Required: true, Listed: true},
			{Name: "email", Label: "Email", Kind: Email, Required: true, Listed: true},
			{Name: "phone", Label: "Phone", Kind: Text},
			{Name: "preferred_team", Label: "Preferred team", Kind: Text, Listed: true},
			{Name: "message", Label: "Message", Kind: LongText},
			{Name: "status", Label: "Status", Kind: Enum, Options: []string{"new", "contacted", "accepted", "declined"}, Listed: true},
		},
		OrderBy: []string{"created_at DESC"},
		Submit:  true,
	},
	{
		Name: "site_settings", Label: "Site settings", Section: authz.SectionSettings,
		Columns: []Column{
			{Name: "key", Label: "Key", Kind: Text, Required: true, Listed: true},
			{Name: "value", Label: "Value", Kind: LongText, Listed: true},
			{Name: "category", Label: "Category", Kind: Text, Listed: true},
		},
		OrderBy: []string{"category", "key"},
	},
	{
		Name: "feature_toggles", Label: "Features", Section: authz.SectionSettings,
		Columns: []Column{
			{Name: "key", Label: "Key", Kind: Text, Required: true, Listed: true},
			{Name: "description", Label: "Description", Kind: Text, Listed: true},
			{Name: "is_enabled", Label: "Enabled", Kind: Bool, Listed: true},
		},
		OrderBy: []string{"key"},
	},
}

// Tables returns every content table in declaration order.
func Tables() []Table {
	return slices.Clone(tables)
}

// Lookup returns the table with the given name.
func Lookup(name string) (Table, bool) {
	for _, t := range tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// ForSection returns the tables managed from an admin section.
func ForSection(key authz.SectionKey) []Table {
	var out []Table
	for _, t := range tables {
		if t.Section == key {
			out = append(out, t)
		}
	}
	return out
}
