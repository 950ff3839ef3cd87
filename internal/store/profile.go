// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"clubhouse/internal/models"
)

// ErrInvalidRole is returned when asked to store a role that is not legal.
var ErrInvalidRole = errors.New("invalid role")

const profileColumns = "id, email, full_name, role, is_approved, created_at, updated_at"

// ProfileStore reads and writes the authorization record of each identity.
type ProfileStore struct {
	db *sql.DB
}

// NewProfileStore creates a new ProfileStore.
func NewProfileStore(db *sql.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

// FindByID retrieves the profile for an identity.
func (s *ProfileStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return s.findOne(ctx, "id = $1", id)
}

// FindByEmail retrieves a profile by email, ignoring case.
func (s *ProfileStore) FindByEmail(ctx context.Context, email string) (*models.Profile, error) {
	return s.findOne(ctx, "lower(email) = $1", strings.ToLower(strings.TrimSpace(email)))
}

// List returns every profile, pending ones first, then by sign-up date.
func (s *ProfileStore) List(ctx context.Context) ([]models.Profile, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+profileColumns+" FROM profiles ORDER BY is_approved ASC, created_at ASC")
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(scanProfile(&p)...); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// CountPending returns how many profiles await approval.
func (s *ProfileStore) CountPending(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM profiles WHERE NOT is_approved").Scan(&n); err != nil {
		return 0, fmt.Errorf("count pending profiles: %w", err)
	}
	return n, nil
}

// SetApproval grants or revokes approval.
func (s *ProfileStore) SetApproval(ctx context.Context, id uuid.UUID, approved bool) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE profiles SET is_approved = $1, updated_at = NOW() WHERE id = $2", approved, id)
	if err != nil {
		return fmt.Errorf("set approval: %w", err)
	}
	return expectOne(res)
}

// SetRole changes a profile's role. Only the two legal roles are accepted.
func (s *ProfileStore) SetRole(ctx context.Context, id uuid.UUID, role models.Role) error {
	r, ok := role.Normalize()
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE profiles SET role = $1, updated_at = NOW() WHERE id = $2", string(r), id)
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	return expectOne(res)
}

// Promote makes the profile with the given email an approved admin.
func (s *ProfileStore) Promote(ctx context.Context, email string) (*models.Profile, error) {
	p := &models.Profile{}
	err := s.db.QueryRowContext(ctx, `
		UPDATE profiles SET role = 'admin', is_approved = TRUE, updated_at = NOW()
		WHERE lower(email) = $1
		RETURNING `+profileColumns, strings.ToLower(strings.TrimSpace(email)),
	).Scan(scanProfile(p)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("promote profile: %w", err)
	}
	return p, nil
}

func (s *ProfileStore) findOne(ctx context.Context, where string, arg any) (*models.Profile, error) {
	p := &models.Profile{}
	err := s.db.QueryRowContext(ctx,
		"SELECT "+profileColumns+" FROM profiles WHERE "+where, arg,
	).Scan(scanProfile(p)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return p, nil
}

func scanProfile(p *models.Profile) []any {
	return []any{&p.ID, &p.Email, &p.FullName, &p.Role, &p.IsApproved, &p.CreatedAt, &p.UpdatedAt}
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
