// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package content

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrForbidden is returned when the acting profile may not mutate the
	// table: not signed in, not approved, or not in the section's roles.
	ErrForbidden = errors.New("content: forbidden")

	// ErrUnknownTable is returned for a table name with no descriptor.
	ErrUnknownTable = errors.New("content: unknown table")

	// ErrNotFound is returned when no row has the requested id.
	ErrNotFound = errors.New("content: not found")

	// ErrNotPublic is returned when anonymous visitors ask to read or
	// submit to a table that does not allow it.
	ErrNotPublic = errors.New("content: not public")
)

// MutationError wraps a failed insert, update, or delete.
type MutationError struct {
	Op    string
	Table string
	Err   error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// Message is the text shown to the person who attempted the change.
func (e *MutationError) Message() string {
	var verr *ValidationError
	if errors.As(e.Err, &verr) {
		return "Please correct the highlighted fields."
	}
	if errors.Is(e.Err, ErrNotFound) {
		return "That record no longer exists."
	}
	var pgErr *pgconn.PgError
	if errors.As(e.Err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return "A record with the same unique value already exists."
		case "23503":
			return "This record references, or is referenced by, another record."
		case "23514", "22003":
			return "A value is outside the allowed range."
		}
	}
	return "The change could not be saved. Please try again."
}

// Fields returns per-column validation messages, if any.
func (e *MutationError) Fields() map[string]string {
	var verr *ValidationError
	if errors.As(e.Err, &verr) {
		return verr.Fields
	}
	return nil
}
