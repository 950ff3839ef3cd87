// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestSiteSettingStoreGrouped(t *testing.T) {
	db, mock := mockDB(t)
	s := NewSiteSettingStore(db)
	now := time.Now()

	mock.ExpectQuery("SELECT key, value, category, updated_at FROM site_settings").
		WillReturnRows(sqlmock.NewRows([]string{"key", "value", "category", "updated_at"}).
			AddRow("contact_email", "hello@club.test", "contact", now).
			AddRow("site_name", "Clubhouse FC", "general", now).
			AddRow("twitter", "@clubhouse", "social", now))

	groups, err := s.Grouped(context.Background())
	if err != nil {
		t.Fatalf("Grouped: %v", err)
	}
	if len(groups) != 3 || groups[0].Category != "general" || groups[1].Category != "contact" {
		t.Errorf("groups = %+v", groups)
	}
}

func TestSiteSettingStoreGet(t *testing.T) {
	db, mock := mockDB(t)
	s := NewSiteSettingStore(db)

	mock.ExpectQuery("SELECT value FROM site_settings").
		WithArgs("tagline").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	got, err := s.Get(context.Background(), "tagline", "Up the Clubhouse")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "Up the Clubhouse" {
		t.Errorf("Get missing = %q, want fallback", got)
	}
}

func TestSiteSettingStoreSetMany(t *testing.T) {
	db, mock := mockDB(t)
	s := NewSiteSettingStore(db)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO site_settings")
	prep.ExpectExec().WithArgs("site_name", "New FC", "general", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := s.SetMany(context.Background(), map[string]string{"site_name": "New FC"}); err != nil {
		t.Fatalf("SetMany: %v", err)
	}
}

func TestFeatureToggleStoreEnabled(t *testing.T) {
	db, mock := mockDB(t)
	s := NewFeatureToggleStore(db)

	mock.ExpectQuery("SELECT is_enabled FROM feature_toggles").
		WithArgs(FeatureGallery).
		WillReturnRows(sqlmock.NewRows([]string{"is_enabled"}).AddRow(false))
	on, err := s.Enabled(context.Background(), FeatureGallery)
	if err != nil || on {
		t.Errorf("Enabled(gallery) = %v, %v; want false", on, err)
	}

	mock.ExpectQuery("SELECT is_enabled FROM feature_toggles").
		WithArgs(FeaturePolls).
		WillReturnRows(sqlmock.NewRows([]string{"is_enabled"}))
	on, err = s.Enabled(context.Background(), FeaturePolls)
	if err != nil || !on {
		t.Errorf("Enabled(polls) without row = %v, %v; want true", on, err)
	}
}

func TestHousekeepingStore(t *testing.T) {
	db, mock := mockDB(t)
	s := NewHousekeepingStore(db)

	mock.ExpectExec("UPDATE announcements SET is_active = FALSE").WillReturnResult(sqlmock.NewResult(0, 2))
	n, err := s.DeactivateExpiredAnnouncements(context.Background())
	if err != nil || n != 2 {
		t.Errorf("DeactivateExpiredAnnouncements = %d, %v", n, err)
	}

	mock.ExpectExec("UPDATE polls SET is_active = FALSE").WillReturnResult(sqlmock.NewResult(0, 1))
	n, err = s.ClosePastDuePolls(context.Background())
	if err != nil || n != 1 {
		t.Errorf("ClosePastDuePolls = %d, %v", n, err)
	}
}
