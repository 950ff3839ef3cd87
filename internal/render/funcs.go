// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package render

import (
	"fmt"
	"html/template"
	"time"

	"clubhouse/internal/authz"
	"clubhouse/internal/content"
	"clubhouse/internal/markdown"
	"clubhouse/internal/models"
)

func funcMap(devMode bool) template.FuncMap {
	return template.FuncMap{
		"isDev": func() bool { return devMode },
		"activeClass": func(current, target authz.SectionKey) string {
			if current == target {
				return "bg-gray-900 text-white"
			}
			return "text-gray-300 hover:bg-gray-700 hover:text-white"
		},
		"markdown": markdown.Render,
		"col": func(row models.Row, name string) string {
			return row.String(name)
		},
		"flag": func(row models.Row, name string) bool {
			return row.Bool(name)
		},
		"date":     func(row models.Row, name string) string { return formatTime(row, name, "Mon 2 Jan 2006") },
		"datetime": func(row models.Row, name string) string { return formatTime(row, name, "Mon 2 Jan 2006, 15:04") },
		"result": func(row models.Row) string {
			return row.Score().Label()
		},
		"cell":      cell,
		"formValue": content.FormValue,
		"inputType": inputType,
		"dict":      dict,
	}
}

func formatTime(row models.Row, name, layout string) string {
	t, ok := row.Time(name)
	if !ok {
		return ""
	}
	return t.In(time.Local).Format(layout)
}

// cell formats a column of a row for the admin list view.
func cell(row models.Row, col content.Column) string {
	switch col.Kind {
	case content.Bool:
		if row.Bool(col.Name) {
			return "Yes"
		}
		return "No"
	case content.Time:
		return formatTime(row, col.Name, "2 Jan 2006 15:04")
	case content.Ref:
		if s := row.String(col.Name); len(s) > 8 {
			return s[:8]
		}
	case content.LongText, content.Markdown:
		if s := []rune(row.String(col.Name)); len(s) > 80 {
			return string(s[:80]) + "…"
		}
	}
	return row.String(col.Name)
}

func inputType(k content.Kind) string {
	switch k {
	case content.Int:
		return "number"
	case content.Time:
		return "datetime-local"
	case content.URL:
		return "url"
	case content.Email:
		return "email"
	case content.Bool:
		return "checkbox"
	case content.LongText, content.Markdown:
		return "textarea"
	case content.Enum:
		return "select"
	case content.Ref:
		return "ref"
	}
	return "text"
}

// dict builds a map from alternating keys and values, for passing several
// values to a nested template.
func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		k, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", pairs[i])
		}
		m[k] = pairs[i+1]
	}
	return m, nil
}
