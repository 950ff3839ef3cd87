// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package markdown

import (
	"strings"
	"testing"
)

func TestToHTML(t *testing.T) {
	tests := []struct {
		name, in, contains string
	}{
		{"heading", "# Match Report", "<h1 id=\"match-report\">Match Report</h1>"},
		{"emphasis", "a **great** win", "<strong>great</strong>"},
		{"table", "| A | B |\n|---|---|\n| 1 | 2 |", "<table>"},
		{"autolink", "see https://example.com", "<a href=\"https://example.com\">"},
		{"fenced code", "```\n4-4-2\n```", "<pre"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToHTML(tt.in)
			if err != nil {
				t.Fatalf("ToHTML: %v", err)
			}
			if !strings.Contains(got, tt.contains) {
				t.Errorf("ToHTML(%q) = %q, want it to contain %q", tt.in, got, tt.contains)
			}
		})
	}
}

func TestRawHTMLIsNotPassedThrough(t *testing.T) {
	got := string(Render("<script>alert(1)</script>"))
	if strings.Contains(got, "<script>") {
		t.Errorf("raw script tag leaked into output: %q", got)
	}
}
