// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
)

// HousekeepingStore runs the periodic expiry updates.
type HousekeepingStore struct {
	db *sql.DB
}

// NewHousekeepingStore creates a new HousekeepingStore.
func NewHousekeepingStore(db *sql.DB) *HousekeepingStore {
	return &HousekeepingStore{db: db}
}

// DeactivateExpiredAnnouncements turns off announcements whose window ended.
func (s *HousekeepingStore) DeactivateExpiredAnnouncements(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE announcements SET is_active = FALSE, updated_at = NOW()
		WHERE is_active AND ends_at IS NOT NULL AND ends_at <= NOW()
	`)
	if err != nil {
		return 0, fmt.Errorf("expire announcements: %w", err)
	}
	return res.RowsAffected()
}

// ClosePastDuePolls turns off polls whose closing time has passed.
func (s *HousekeepingStore) ClosePastDuePolls(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE polls SET is_active = FALSE, updated_at = NOW()
		WHERE is_active AND closes_at IS NOT NULL AND closes_at <= NOW()
	`)
	if err != nil {
		return 0, fmt.Errorf("close polls: %w", err)
	}
	return res.RowsAffected()
}
