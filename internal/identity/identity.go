// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package identity owns credentials: email and password accounts stored
// in PostgreSQL with bcrypt hashes, and optional email confirmation
// tokens kept in Valkey. It knows nothing about roles or approval.
package identity

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"clubhouse/internal/models"
)

const (
	// ConfirmationTTL is how long an email confirmation link stays valid.
	ConfirmationTTL = 48 * time.Hour

	confirmPrefix = "confirm:"

	// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint.
	uniqueViolation = "23505"
)

// ErrNotFound is returned when no identity matches.
var ErrNotFound = errors.New("identity not found")

// ErrInvalidToken is returned for unknown or expired confirmation tokens.
var ErrInvalidToken = errors.New("invalid or expired confirmation token")

// dummyHash is compared against when an email is unknown so that both
// failure paths cost one bcrypt comparison.
var dummyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	return h
})

const identityColumns = "id, email, full_name, password_hash, email_confirmed_at, created_at, updated_at"

// Store handles identity persistence and credential checks.
type Store struct {
	db                  *sql.DB
	valkey              *redis.Client
	requireConfirmation bool
	cost                int
}

// New creates an identity store. When requireConfirmation is true new
// accounts start unconfirmed and cannot sign in until Confirm succeeds.
func New(db *sql.DB, valkey *redis.Client, requireConfirmation bool) *Store {
	return &Store{db: db, valkey: valkey, requireConfirmation: requireConfirmation, cost: bcrypt.DefaultCost}
}

// RequiresConfirmation reports whether new accounts must confirm their email.
func (s *Store) RequiresConfirmation() bool {
	return s.requireConfirmation
}

// Authenticate checks an email and password. Failures are *AuthError.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*models.Identity, error) {
	id, err := s.FindByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		return nil, NewAuthError(CodeInvalidCredentials, nil)
	}
	if err != nil {
		return nil, NewAuthError(CodeUnknown, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(id.PasswordHash), []byte(password)) != nil {
		return nil, NewAuthError(CodeInvalidCredentials, nil)
	}
	if s.requireConfirmation && !id.IsConfirmed() {
		return nil, NewAuthError(CodeEmailNotConfirmed, nil)
	}
	return id, nil
}

// Register creates an identity. The database trigger creates the
// matching pending profile in the same statement. Failures are *AuthError.
func (s *Store) Register(ctx context.Context, email, password, fullName string) (*models.Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, NewAuthError(CodeUnknown, fmt.Errorf("hash password: %w", err))
	}

	var confirmedAt *time.Time
	if !s.requireConfirmation {
		now := time.Now()
		confirmedAt = &now
	}

	id := &models.Identity{}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO identities (email, full_name, password_hash, email_confirmed_at)
		VALUES ($1, $2, $3, $4)
		RETURNING `+identityColumns,
		normalizeEmail(email), strings.TrimSpace(fullName), string(hash), confirmedAt,
	).Scan(scanTargets(id)...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, NewAuthError(CodeAlreadyRegistered, err)
		}
		return nil, NewAuthError(CodeUnknown, fmt.Errorf("register identity: %w", err))
	}
	return id, nil
}

// IssueConfirmation stores a one-time confirmation token for the identity.
func (s *Store) IssueConfirmation(ctx context.Context, id uuid.UUID) (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("confirmation token: %w", err)
	}
	token := hex.EncodeToString(b)
	if err := s.valkey.Set(ctx, confirmPrefix+token, id.String(), ConfirmationTTL).Err(); err != nil {
		return "", fmt.Errorf("store confirmation token: %w", err)
	}
	return token, nil
}

// Confirm consumes a confirmation token and marks the identity confirmed.
func (s *Store) Confirm(ctx context.Context, token string) (*models.Identity, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	raw, err := s.valkey.GetDel(ctx, confirmPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("read confirmation token: %w", err)
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return nil, ErrInvalidToken
	}

	id := &models.Identity{}
	err = s.db.QueryRowContext(ctx, `
		UPDATE identities
		SET email_confirmed_at = COALESCE(email_confirmed_at, NOW()), updated_at = NOW()
		WHERE id = $1
		RETURNING `+identityColumns, userID,
	).Scan(scanTargets(id)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("confirm identity: %w", err)
	}
	return id, nil
}

// FindByID retrieves an identity by id.
func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*models.Identity, error) {
	return s.findOne(ctx, "id = $1", id)
}

// FindByEmail retrieves an identity by email, ignoring case.
func (s *Store) FindByEmail(ctx context.Context, email string) (*models.Identity, error) {
	return s.findOne(ctx, "lower(email) = $1", normalizeEmail(email))
}

// Delete removes an identity. Its profile goes with it (ON DELETE CASCADE).
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM identities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) findOne(ctx context.Context, where string, arg any) (*models.Identity, error) {
	id := &models.Identity{}
	err := s.db.QueryRowContext(ctx,
		"SELECT "+identityColumns+" FROM identities WHERE "+where, arg,
	).Scan(scanTargets(id)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find identity: %w", err)
	}
	return id, nil
}

func scanTargets(id *models.Identity) []any {
	return []any{&id.ID, &id.Email, &id.FullName, &id.PasswordHash, &id.EmailConfirmedAt, &id.CreatedAt, &id.UpdatedAt}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
