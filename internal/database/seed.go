// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// SeedAdminEmail is the account created by Seed in development.
const SeedAdminEmail = "admin@clubhouse.local"

// Seed populates an empty database with development data: an approved
// admin (password "admin") and a first team so the public site has
// something to show.
func Seed(ctx context.Context, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM identities").Scan(&count); err != nil {
		return fmt.Errorf("seed check identities: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	// The insert trigger creates a pending moderator profile; promote it.
	var id string
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO identities (email, full_name, password_hash, email_confirmed_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id
	`, SeedAdminEmail, "Club Admin", string(hash)).Scan(&id); err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE profiles SET role = 'admin', is_approved = TRUE WHERE id = $1`, id); err != nil {
		return fmt.Errorf("seed promote admin: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO teams (name, slug, age_group, description, created_by)
		VALUES ('First Team', 'first-team', 'Senior', 'Our senior men''s side.', $1)
		ON CONFLICT (slug) DO NOTHING
	`, id); err != nil {
		return fmt.Errorf("seed team: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with default admin user",
		"email", SeedAdminEmail,
		"password", "admin",
	)
	return nil
}
