// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func TestCacheLogStoreLog(t *testing.T) {
	db, mock := mockDB(t)
	s := NewCacheLogStore(db)
	id := uuid.New()

	mock.ExpectExec("INSERT INTO cache_invalidation_log").
		WithArgs("news", uuid.NullUUID{UUID: id, Valid: true}, "update").
		WillReturnResult(sqlmock.NewResult(1, 1))
	s.Log(context.Background(), "news", id, "update")
}

func TestCacheLogStoreLog_FailureIsSwallowed(t *testing.T) {
	db, mock := mockDB(t)
	s := NewCacheLogStore(db)

	mock.ExpectExec("INSERT INTO cache_invalidation_log").
		WillReturnError(errors.New("table missing"))
	s.Log(context.Background(), "polls", uuid.Nil, "expire")
}

func TestCacheLogStoreRecentEntries(t *testing.T) {
	db, mock := mockDB(t)
	s := NewCacheLogStore(db)
	newer := time.Now()
	older := newer.Add(-time.Minute)

	mock.ExpectQuery("SELECT (.+) FROM cache_invalidation_log").
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "entity_type", "entity_id", "action", "invalidated_at"}).
			AddRow(2, "news", uuid.NewString(), "update", newer).
			AddRow(1, "announcements", nil, "expire", older))

	entries, err := s.RecentEntries(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentEntries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if !entries[0].EntityID.Valid || entries[1].EntityID.Valid {
		t.Errorf("entity ids = %+v, %+v", entries[0].EntityID, entries[1].EntityID)
	}
	if entries[0].InvalidatedAt.Before(entries[1].InvalidatedAt) {
		t.Error("expected entries ordered by invalidated_at DESC")
	}
}

func TestCacheLogStoreIntegration(t *testing.T) {
	db := testDB(t)
	s := NewCacheLogStore(db)
	id := uuid.New()

	s.Log(context.Background(), "news", id, "create")
	t.Cleanup(func() {
		db.Exec("DELETE FROM cache_invalidation_log WHERE entity_id = $1", id)
	})

	var count int
	if err := db.QueryRow(
		"SELECT COUNT(*) FROM cache_invalidation_log WHERE entity_id = $1", id,
	).Scan(&count); err != nil {
		t.Fatalf("query: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 log entry, got %d", count)
	}
}
