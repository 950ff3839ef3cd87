// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"clubhouse/internal/models"
)

// SiteSettingStore manages site configuration in the database.
type SiteSettingStore struct {
	db *sql.DB
}

// NewSiteSettingStore returns a new SiteSettingStore backed by the given database.
func NewSiteSettingStore(db *sql.DB) *SiteSettingStore {
	return &SiteSettingStore{db: db}
}

// All returns every setting as a convenience map.
func (s *SiteSettingStore) All(ctx context.Context) (models.SiteSettings, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	settings := make(models.SiteSettings, len(list))
	for _, st := range list {
		settings[st.Key] = st.Value
	}
	return settings, nil
}

// List returns every setting with its category, ordered by key.
func (s *SiteSettingStore) List(ctx context.Context) ([]models.SiteSetting, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value, category, updated_at FROM site_settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var out []models.SiteSetting
	for rows.Next() {
		var st models.SiteSetting
		if err := rows.Scan(&st.Key, &st.Value, &st.Category, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// Grouped returns settings bucketed by category for the settings page.
func (s *SiteSettingStore) Grouped(ctx context.Context) ([]models.SettingGroup, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return models.GroupSettings(list), nil
}

// Get returns a single setting by key, or the fallback if not found.
func (s *SiteSettingStore) Get(ctx context.Context, key, fallback string) (string, error) {
	var val string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM site_settings WHERE key = $1`, key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return fallback, nil
	}
	if err != nil {
		return fallback, fmt.Errorf("get setting %s: %w", key, err)
	}
	if val == "" {
		return fallback, nil
	}
	return val, nil
}

// SetMany updates the values of existing settings in a single transaction.
// Keys not yet present are created in the general category.
func (s *SiteSettingStore) SetMany(ctx context.Context, settings map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO site_settings (key, value, category, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for k, v := range settings {
		if _, err := stmt.ExecContext(ctx, k, v, models.DefaultSettingCategory, now); err != nil {
			return fmt.Errorf("save setting %s: %w", k, err)
		}
	}

	return tx.Commit()
}
