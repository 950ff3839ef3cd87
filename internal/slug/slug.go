// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation from arbitrary strings.
package slug

import (
	"strings"

	gosimple "github.com/gosimple/slug"
)

// MaxLength caps generated slugs so they stay readable in URLs.
const MaxLength = 80

func init() {
	gosimple.MaxLength = MaxLength
}

// Generate creates a URL-friendly slug from the given string.
// Example: "Under-12s beat Rovers 3-1!" → "under-12s-beat-rovers-3-1"
func Generate(s string) string {
	return gosimple.Make(strings.TrimSpace(s))
}

// Valid reports whether s is already a well-formed slug.
func Valid(s string) bool {
	return s != "" && gosimple.IsSlug(s)
}
