// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store provides database access for profiles, settings, polls
// and the other records that need hand-written queries. Each store struct
// wraps a *sql.DB and exposes typed, context-aware query methods.
// Content tables edited through the generic admin CRUD live in the
// content package instead.
package store

import "errors"

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")
