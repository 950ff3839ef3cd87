// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"sort"
	"strings"
	"time"
)

// DefaultSettingCategory holds settings saved without a category.
const DefaultSettingCategory = "general"

// SiteSetting represents a single configuration key-value pair.
type SiteSetting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	Category  string    `json:"category"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SiteSettings is a convenience map for accessing settings by key.
type SiteSettings map[string]string

// Get returns the value for a key, or the fallback if the key doesn't exist.
func (s SiteSettings) Get(key, fallback string) string {
	if v, ok := s[key]; ok && v != "" {
		return v
	}
	return fallback
}

// SettingGroup is one category block on the settings page.
type SettingGroup struct {
	Category string
	Settings []SiteSetting
}

// GroupSettings buckets settings by category. Categories are sorted by
// name with "general" first; settings keep key order within a category.
func GroupSettings(settings []SiteSetting) []SettingGroup {
	buckets := make(map[string][]SiteSetting)
	for _, s := range settings {
		cat := strings.ToLower(strings.TrimSpace(s.Category))
		if cat == "" {
			cat = DefaultSettingCategory
		}
		buckets[cat] = append(buckets[cat], s)
	}

	names := make([]string, 0, len(buckets))
	for name := range buckets {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if names[i] == DefaultSettingCategory || names[j] == DefaultSettingCategory {
			return names[i] == DefaultSettingCategory
		}
		return names[i] < names[j]
	})

	groups := make([]SettingGroup, 0, len(names))
	for _, name := range names {
		items := buckets[name]
		sort.SliceStable(items, func(i, j int) bool { return items[i].Key < items[j].Key })
		groups = append(groups, SettingGroup{Category: name, Settings: items})
	}
	return groups
}
