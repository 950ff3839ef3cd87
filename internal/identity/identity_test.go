// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package identity

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var identityCols = []string{"id", "email", "full_name", "password_hash", "email_confirmed_at", "created_at", "updated_at"}

func newTestStore(t *testing.T, requireConfirmation bool) (*Store, sqlmock.Sqlmock, *miniredis.Miniredis) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	s := New(db, rdb, requireConfirmation)
	s.cost = bcrypt.MinCost
	return s, mock, mr
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func identityRow(id uuid.UUID, email, hash string, confirmedAt any) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(identityCols).AddRow(id.String(), email, "Sam Keeper", hash, confirmedAt, now, now)
}

func TestAuthenticate_Success(t *testing.T) {
	s, mock, _ := newTestStore(t, false)
	id := uuid.New()
	mock.ExpectQuery("SELECT (.+) FROM identities WHERE lower\\(email\\)").
		WithArgs("coach@club.test").
		WillReturnRows(identityRow(id, "coach@club.test", hashOf(t, "correct horse"), time.Now()))

	got, err := s.Authenticate(context.Background(), " Coach@Club.test ", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.True(t, got.IsConfirmed())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	s, mock, _ := newTestStore(t, false)
	mock.ExpectQuery("SELECT (.+) FROM identities").
		WillReturnRows(identityRow(uuid.New(), "coach@club.test", hashOf(t, "correct horse"), time.Now()))

	_, err := s.Authenticate(context.Background(), "coach@club.test", "wrong")
	assert.Equal(t, CodeInvalidCredentials, CodeOf(err))
	assert.Equal(t, messages[CodeInvalidCredentials], Classify(err).Message)
}

func TestAuthenticate_UnknownEmail(t *testing.T) {
	s, mock, _ := newTestStore(t, false)
	mock.ExpectQuery("SELECT (.+) FROM identities").WillReturnError(sql.ErrNoRows)

	_, err := s.Authenticate(context.Background(), "nobody@club.test", "whatever")
	assert.Equal(t, CodeInvalidCredentials, CodeOf(err))
}

func TestAuthenticate_Unconfirmed(t *testing.T) {
	s, mock, _ := newTestStore(t, true)
	mock.ExpectQuery("SELECT (.+) FROM identities").
		WillReturnRows(identityRow(uuid.New(), "new@club.test", hashOf(t, "pw123456"), nil))

	_, err := s.Authenticate(context.Background(), "new@club.test", "pw123456")
	assert.Equal(t, CodeEmailNotConfirmed, CodeOf(err))
}

func TestAuthenticate_BackendErrorPassesRawMessage(t *testing.T) {
	s, mock, _ := newTestStore(t, false)
	mock.ExpectQuery("SELECT (.+) FROM identities").WillReturnError(errors.New("connection reset by peer"))

	_, err := s.Authenticate(context.Background(), "coach@club.test", "pw")
	ae := Classify(err)
	require.NotNil(t, ae)
	assert.Equal(t, CodeUnknown, ae.Code)
	assert.Contains(t, ae.Message, "connection reset by peer")
}

func TestRegister_Success(t *testing.T) {
	s, mock, _ := newTestStore(t, false)
	id := uuid.New()
	mock.ExpectQuery("INSERT INTO identities").
		WithArgs("new@club.test", "Sam Keeper", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(identityRow(id, "new@club.test", "hash", time.Now()))

	got, err := s.Register(context.Background(), "New@Club.test", "pw123456", " Sam Keeper ")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_AlreadyRegistered(t *testing.T) {
	s, mock, _ := newTestStore(t, false)
	mock.ExpectQuery("INSERT INTO identities").
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value"})

	_, err := s.Register(context.Background(), "dup@club.test", "pw123456", "Dup")
	assert.Equal(t, CodeAlreadyRegistered, CodeOf(err))
	assert.Equal(t, messages[CodeAlreadyRegistered], Classify(err).Message)
}

func TestConfirmationRoundTrip(t *testing.T) {
	s, mock, mr := newTestStore(t, true)
	ctx := context.Background()
	id := uuid.New()

	token, err := s.IssueConfirmation(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, ConfirmationTTL, mr.TTL(confirmPrefix+token))

	mock.ExpectQuery("UPDATE identities").
		WithArgs(id).
		WillReturnRows(identityRow(id, "new@club.test", "hash", time.Now()))

	got, err := s.Confirm(ctx, token)
	require.NoError(t, err)
	assert.True(t, got.IsConfirmed())

	_, err = s.Confirm(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken, "tokens are single use")
}

func TestConfirm_UnknownToken(t *testing.T) {
	s, _, _ := newTestStore(t, true)
	_, err := s.Confirm(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = s.Confirm(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDelete(t *testing.T) {
	s, mock, _ := newTestStore(t, false)
	id := uuid.New()
	mock.ExpectExec("DELETE FROM identities").WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.Delete(context.Background(), id))

	mock.ExpectExec("DELETE FROM identities").WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, s.Delete(context.Background(), id), ErrNotFound)
}

func TestClassify(t *testing.T) {
	assert.Nil(t, Classify(nil))

	wrapped := errors.Join(errors.New("ctx"), NewAuthError(CodeEmailNotConfirmed, nil))
	assert.Equal(t, CodeEmailNotConfirmed, CodeOf(wrapped))

	ae := NewAuthError("bogus", nil)
	assert.Equal(t, CodeUnknown, ae.Code)
	assert.NotEmpty(t, ae.Message)
}
