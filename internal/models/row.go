// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Row is one record read from a content table, keyed by column name.
// Values are whatever the driver returned, or their JSON equivalents
// when the row came back from the query cache.
type Row map[string]any

// ID returns the row's primary key, or uuid.Nil if missing or malformed.
func (r Row) ID() uuid.UUID {
	switch v := r["id"].(type) {
	case uuid.UUID:
		return v
	case [16]byte:
		return uuid.UUID(v)
	case []byte:
		if id, err := uuid.ParseBytes(v); err == nil {
			return id
		}
	case string:
		if id, err := uuid.Parse(v); err == nil {
			return id
		}
	}
	return uuid.Nil
}

// String returns the column formatted as text. NULL reads as "".
func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	case uuid.UUID:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// Bool returns the column as a boolean. NULL and unparsable values are false.
func (r Row) Bool(col string) bool {
	switch v := r[col].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	case []byte:
		b, _ := strconv.ParseBool(string(v))
		return b
	}
	return false
}

// Int returns the column as an integer and whether it held a number.
func (r Row) Int(col string) (int64, bool) {
	switch v := r[col].(type) {
	case int64:
		return v, true
	case int32:
		return int64(v), true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	case []byte:
		n, err := strconv.ParseInt(string(v), 10, 64)
		return n, err == nil
	}
	return 0, false
}

// IntPtr is Int for nullable columns: nil when the column holds no number.
func (r Row) IntPtr(col string) *int64 {
	n, ok := r.Int(col)
	if !ok {
		return nil
	}
	return &n
}

// Time returns the column as a timestamp and whether it held one.
func (r Row) Time(col string) (time.Time, bool) {
	switch v := r[col].(type) {
	case time.Time:
		return v, true
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		return t, err == nil
	}
	return time.Time{}, false
}

// Score builds a fixture score from the row's is_home, home_score, and
// away_score columns.
func (r Row) Score() Score {
	return Score{
		IsHome:    r.Bool("is_home"),
		HomeGoals: r.IntPtr("home_score"),
		AwayGoals: r.IntPtr("away_score"),
	}
}
