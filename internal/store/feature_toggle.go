// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Feature toggle keys checked by the public site.
const (
	FeatureGallery  = "gallery"
	FeaturePolls    = "polls"
	FeatureJoinForm = "join_form"
	FeatureComments = "comments"
)

// FeatureToggleStore reads the feature_toggles table.
type FeatureToggleStore struct {
	db *sql.DB
}

// NewFeatureToggleStore creates a new FeatureToggleStore.
func NewFeatureToggleStore(db *sql.DB) *FeatureToggleStore {
	return &FeatureToggleStore{db: db}
}

// Enabled reports whether a feature is on. Features without a row are on.
func (s *FeatureToggleStore) Enabled(ctx context.Context, key string) (bool, error) {
	var on bool
	err := s.db.QueryRowContext(ctx,
		`SELECT is_enabled FROM feature_toggles WHERE key = $1`, key).Scan(&on)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("feature toggle %s: %w", key, err)
	}
	return on, nil
}
