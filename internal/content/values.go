// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package content

import (
	"fmt"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"clubhouse/internal/slug"
)

// Values maps column names to the values written by an insert or update.
// A nil value stores NULL.
type Values map[string]any

// timeLayouts are the accepted timestamp formats, tried in order. The
// first is what an HTML datetime-local input submits.
var timeLayouts = []string{"2006-01-02T15:04", time.RFC3339, "2006-01-02 15:04", "2006-01-02"}

var validate = validator.New()

// ParseForm converts submitted form fields into typed values for t.
// Unchecked checkboxes read as false. Blank optional numbers, timestamps
// and references read as NULL.
func (t Table) ParseForm(form url.Values) (Values, error) {
	v := make(Values, len(t.Columns))
	verr := &ValidationError{}

	for _, col := range t.Columns {
		raw := strings.TrimSpace(form.Get(col.Name))

		if col.Kind == Bool {
			v[col.Name] = parseBool(raw)
			continue
		}
		if col.Kind == Slug && raw == "" && t.SlugFrom != "" {
			raw = slug.Generate(form.Get(t.SlugFrom))
		}
		if raw == "" && col.Kind == Enum && len(col.Options) > 0 {
			raw = col.Options[0]
		}
		if raw == "" {
			if col.Required {
				verr.add(col.Name, col.Label+" is required")
				continue
			}
			v[col.Name] = blank(col.Kind)
			continue
		}

		val, msg := convert(col, raw)
		if msg != "" {
			verr.add(col.Name, msg)
			continue
		}
		v[col.Name] = val
	}

	if verr.empty() {
		return v, nil
	}
	return v, verr
}

// check rejects values for undeclared columns and, when creating, any
// required column left out. Values built by ParseForm always pass.
func (t Table) check(v Values, creating bool) error {
	verr := &ValidationError{}
	for name := range v {
		if _, ok := t.Column(name); !ok {
			verr.add(name, "unknown column")
		}
	}
	for _, col := range t.Columns {
		val, present := v[col.Name]
		if !present {
			if creating && col.Required {
				verr.add(col.Name, col.Label+" is required")
			}
			continue
		}
		if col.Required && (val == nil || val == "") {
			verr.add(col.Name, col.Label+" is required")
			continue
		}
		if s, ok := val.(string); ok && s != "" {
			if _, msg := convert(col, s); msg != "" {
				verr.add(col.Name, msg)
			}
		}
	}
	if verr.empty() {
		return nil
	}
	return verr
}

func convert(col Column, raw string) (any, string) {
	switch col.Kind {
	case Int:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, col.Label + " must be a whole number"
		}
		return n, ""
	case Time:
		for _, layout := range timeLayouts {
			if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
				return t, ""
			}
		}
		return nil, col.Label + " must be a date and time"
	case Ref:
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, col.Label + " must reference an existing record"
		}
		return id, ""
	case URL:
		if validate.Var(raw, "http_url") != nil {
			return nil, col.Label + " must be an http(s) URL"
		}
	case Email:
		if validate.Var(raw, "email") != nil {
			return nil, col.Label + " must be an email address"
		}
	case Enum:
		if !slices.Contains(col.Options, raw) {
			return nil, col.Label + " must be one of " + strings.Join(col.Options, ", ")
		}
	case Slug:
		if !slug.Valid(raw) {
			return nil, col.Label + " may only contain lowercase letters, digits and hyphens"
		}
	}
	return raw, ""
}

func blank(k Kind) any {
	switch k {
	case Int, Time, Ref:
		return nil
	}
	return ""
}

func parseBool(raw string) bool {
	switch strings.ToLower(raw) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// FormValue formats a stored value for an HTML input of the column's kind.
func FormValue(col Column, v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case time.Time:
		return x.In(time.Local).Format(timeLayouts[0])
	case string:
		if col.Kind == Time {
			if t, err := time.Parse(time.RFC3339Nano, x); err == nil {
				return t.In(time.Local).Format(timeLayouts[0])
			}
		}
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// ValidationError lists per-column problems with submitted values.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) add(col, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, dup := e.Fields[col]; !dup {
		e.Fields[col] = msg
	}
}

func (e *ValidationError) empty() bool { return len(e.Fields) == 0 }

func (e *ValidationError) Error() string {
	cols := make([]string, 0, len(e.Fields))
	for c := range e.Fields {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = e.Fields[c]
	}
	return "invalid values: " + strings.Join(parts, "; ")
}
